package schema

import (
	"database/sql/driver"
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// ColumnType is the portable logical type of a column. Dialect providers map it
// to their own parameter conversions and literals.
type ColumnType string

// Logical column types.
const (
	TypeUnknown ColumnType = ""
	TypeBool    ColumnType = "bool"
	TypeInt     ColumnType = "int"
	TypeInt64   ColumnType = "int64"
	TypeUint64  ColumnType = "uint64"
	TypeFloat   ColumnType = "float"
	TypeString  ColumnType = "string"
	TypeText    ColumnType = "text"
	TypeBytes   ColumnType = "bytes"
	TypeTime    ColumnType = "time"
	TypeUUID    ColumnType = "uuid"
	TypeJSON    ColumnType = "json"
	TypeOther   ColumnType = "other" // driver.Valuer implementations
)

// Valid reports whether t is one of the known logical types.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeBool, TypeInt, TypeInt64, TypeUint64, TypeFloat, TypeString,
		TypeText, TypeBytes, TypeTime, TypeUUID, TypeJSON, TypeOther:
		return true
	}
	return false
}

// Numeric reports whether the column holds numbers that support addition.
func (t ColumnType) Numeric() bool {
	switch t {
	case TypeInt, TypeInt64, TypeUint64, TypeFloat:
		return true
	}
	return false
}

// Variable names a value computed by the database at statement time.
type Variable string

// System variables usable as defaults.
const (
	SystemUTC  Variable = "system_utc" // current UTC timestamp
	SystemNow  Variable = "now"        // current timestamp in the session time zone
	SystemUUID Variable = "uuid"       // random UUID
)

// Raw is a default value rendered verbatim into SQL.
type Raw string

// DefaultSpec describes a column's fallback value.
//
// Exactly one of Value or Variable is set. Every default applies on insert;
// OnUpdate makes it apply on replace-updates as well.
type DefaultSpec struct {
	Value    any
	Variable Variable
	OnUpdate bool
}

// FieldDefinition holds per-column metadata.
type FieldDefinition struct {
	Name          string       // Go struct field name
	Column        string       // Database column name
	Type          ColumnType   // Logical column type
	GoType        reflect.Type // Declared Go type
	Index         []int        // Struct index path for reflect.Value.FieldByIndex
	Nullable      bool         // Pointer, slice, map or interface field
	PrimaryKey    bool
	AutoIncrement bool
	SkipUpdate    bool
	Default       *DefaultSpec
}

// ShouldSkipUpdate reports whether the field is excluded from UPDATE SET clauses.
// Primary keys are never updated.
func (f *FieldDefinition) ShouldSkipUpdate() bool {
	return f.SkipUpdate || f.PrimaryKey
}

// ShouldSkipInsert reports whether the field is excluded from INSERT column lists.
func (f *FieldDefinition) ShouldSkipInsert() bool {
	return f.AutoIncrement
}

// UpdateDefault returns the default applied on replace-updates, or nil.
func (f *FieldDefinition) UpdateDefault() *DefaultSpec {
	if f.Default == nil || !f.Default.OnUpdate {
		return nil
	}
	return f.Default
}

// Value returns the field of the struct value v. v must be addressable or a
// struct of the model type.
func (f *FieldDefinition) Value(v reflect.Value) reflect.Value {
	return v.FieldByIndex(f.Index)
}

// ModelDefinition holds the metadata of one model type.
// It is immutable once returned by a Registry.
type ModelDefinition struct {
	Type       reflect.Type
	Name       string // Go type name
	Table      string // Table name without schema
	Schema     string // Optional schema qualifier
	Fields     []*FieldDefinition
	PrimaryKey *FieldDefinition

	byName map[string]*FieldDefinition
}

// Field looks up a field by Go name or column name, ignoring case.
func (m *ModelDefinition) Field(name string) (*FieldDefinition, bool) {
	fd, ok := m.byName[fold(name)]
	return fd, ok
}

// index registers every field by folded Go name and column name. Go names take
// precedence over column names of other fields.
func (m *ModelDefinition) index() {
	m.byName = make(map[string]*FieldDefinition, len(m.Fields)*2)
	for _, fd := range m.Fields {
		if k := fold(fd.Column); m.byName[k] == nil {
			m.byName[k] = fd
		}
	}
	for _, fd := range m.Fields {
		m.byName[fold(fd.Name)] = fd
	}
}

// fold returns the case-folded form of s. A Caser is stateful, so one is
// created per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

var (
	timeType   = reflect.TypeFor[time.Time]()
	uuidType   = reflect.TypeFor[uuid.UUID]()
	bytesType  = reflect.TypeFor[[]byte]()
	valuerType = reflect.TypeFor[driver.Valuer]()
	jsonType   = reflect.TypeFor[json.RawMessage]()
)

// TypeOf infers the logical column type of a Go type. Pointers are dereferenced.
func TypeOf(t reflect.Type) ColumnType {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return TypeTime
	case uuidType:
		return TypeUUID
	case bytesType:
		return TypeBytes
	case jsonType:
		return TypeJSON
	}
	if t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType) {
		return TypeOther
	}
	switch t.Kind() {
	case reflect.Bool:
		return TypeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return TypeInt
	case reflect.Int64:
		return TypeInt64
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return TypeUint64
	case reflect.Float32, reflect.Float64:
		return TypeFloat
	case reflect.String:
		return TypeString
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		return TypeJSON
	}
	return TypeUnknown
}
