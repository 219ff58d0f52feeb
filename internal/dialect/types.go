package dialect

import "fmt"

// UnknownType is rendered for field types a dialect cannot map.
const UnknownType = "UNKNOWN"

// FieldType is the raw type description of a column, parameter or domain as
// read from the catalog. Name is set by catalogs that report a type name;
// Code by those that report a numeric type code (Firebird).
type FieldType struct {
	Code      int
	Name      string
	Length    int
	Scale     int
	Precision int
	Charset   string
}

func (ft FieldType) String() string {
	if ft.Name != "" {
		return ft.Name
	}
	return fmt.Sprintf("type %d", ft.Code)
}

// ErrorKind classifies execution errors.
type ErrorKind int

const (
	ErrorOther ErrorKind = iota
	ErrorNotFound
	ErrorAlreadyExists
	ErrorDuplicateKey
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNotFound:
		return "not found"
	case ErrorAlreadyExists:
		return "already exists"
	case ErrorDuplicateKey:
		return "duplicate key"
	default:
		return "other"
	}
}
