package engine

import "fmt"

// ProcedurePolicy decides which procedure blocks an update replaces.
type ProcedurePolicy string

const (
	// ProceduresChanged skips blocks whose source and parameters match the
	// catalog.
	ProceduresChanged ProcedurePolicy = "changed"
	// ProceduresAlways drops and recreates every block.
	ProceduresAlways ProcedurePolicy = "always"
)

func ParseProcedurePolicy(s string) (ProcedurePolicy, error) {
	switch ProcedurePolicy(s) {
	case "", ProceduresChanged:
		return ProceduresChanged, nil
	case ProceduresAlways:
		return ProceduresAlways, nil
	default:
		return "", fmt.Errorf("invalid procedure policy %q (want %s or %s)", s, ProceduresChanged, ProceduresAlways)
	}
}

type Options struct {
	Procedures ProcedurePolicy
	Logger     Logger

	// OnStatement is called once per script statement, after it is handled.
	OnStatement func()
}

func (o Options) logger() Logger {
	if o.Logger == nil {
		return NullLogger{}
	}
	return o.Logger
}

func (o Options) progress() {
	if o.OnStatement != nil {
		o.OnStatement()
	}
}
