package engine

// Logger receives progress narration. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

type NullLogger struct{}

func (NullLogger) Printf(format string, v ...any) {}
