package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// TagName is the struct tag key read by the Registry.
//
// The tag value is a comma separated list whose first element is the column
// name (empty keeps the naming strategy's choice) followed by options:
//
//	pk             primary key (never updated)
//	autoincrement  database generated, never inserted
//	skipupdate     never written by UPDATE statements
//	default=V      default value; V is a number, a boolean, a 'quoted string',
//	               or a system variable ($system_utc, $now, $uuid). Commas
//	               inside quotes are part of the value and '' escapes a quote
//	onupdate       the default also applies on replace-updates
//	type=T         logical column type override (see ColumnType)
//
// A tag of "-" excludes the field.
const TagName = "velox"

// ErrInvalidSchema indicates a model declaration error.
var ErrInvalidSchema = errors.New("schema: invalid model")

// Error represents a model declaration error.
type Error struct {
	Type    string // Model type name
	Field   string // Field name (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("schema: ")
	b.WriteString(e.Type)
	if e.Field != "" {
		b.WriteString(".")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether the target matches ErrInvalidSchema.
func (e *Error) Is(target error) bool { return target == ErrInvalidSchema }

type fieldTag struct {
	column        string
	ignore        bool
	pk            bool
	autoIncrement bool
	skipUpdate    bool
	onUpdate      bool
	hasDefault    bool
	defaultRaw    string
	typ           ColumnType
}

func parseTag(tag string) (fieldTag, error) {
	var ft fieldTag
	if tag == "-" {
		ft.ignore = true
		return ft, nil
	}
	parts, err := splitTag(tag)
	if err != nil {
		return ft, err
	}
	ft.column = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		key, val, hasVal := strings.Cut(p, "=")
		switch strings.ToLower(key) {
		case "":
		case "pk":
			ft.pk = true
		case "autoincrement":
			ft.autoIncrement = true
		case "skipupdate":
			ft.skipUpdate = true
		case "onupdate":
			ft.onUpdate = true
		case "default":
			if !hasVal {
				return ft, fmt.Errorf("option %q requires a value", key)
			}
			ft.hasDefault = true
			ft.defaultRaw = val
		case "type":
			if !hasVal {
				return ft, fmt.Errorf("option %q requires a value", key)
			}
			ft.typ = ColumnType(strings.ToLower(strings.TrimSpace(val)))
			if !ft.typ.Valid() {
				return ft, fmt.Errorf("unknown column type %q", val)
			}
		default:
			return ft, fmt.Errorf("unknown option %q", key)
		}
	}
	if ft.onUpdate && !ft.hasDefault {
		return ft, errors.New("onupdate requires a default")
	}
	return ft, nil
}

// splitTag splits a tag value on the commas outside single quotes.
func splitTag(tag string) ([]string, error) {
	var (
		parts  []string
		start  int
		quoted bool
	)
	for i := 0; i < len(tag); i++ {
		switch tag[i] {
		case '\'':
			// A doubled quote inside a quoted value toggles twice.
			quoted = !quoted
		case ',':
			if !quoted {
				parts = append(parts, tag[start:i])
				start = i + 1
			}
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote in %q", tag)
	}
	return append(parts, tag[start:]), nil
}

// parseDefault converts the raw tag default into a DefaultSpec for a field of type t.
func parseDefault(raw string, t reflect.Type, onUpdate bool) (*DefaultSpec, error) {
	spec := &DefaultSpec{OnUpdate: onUpdate}
	if name, ok := strings.CutPrefix(raw, "$"); ok {
		switch v := Variable(strings.ToLower(name)); v {
		case SystemUTC, SystemNow, SystemUUID:
			spec.Variable = v
			return spec, nil
		default:
			return nil, fmt.Errorf("unknown system variable %q", raw)
		}
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		spec.Value = strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
		return spec, nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var err error
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		spec.Value, err = strconv.ParseInt(raw, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		spec.Value, err = strconv.ParseUint(raw, 10, 64)
	case reflect.Float32, reflect.Float64:
		spec.Value, err = strconv.ParseFloat(raw, 64)
	case reflect.Bool:
		spec.Value, err = strconv.ParseBool(raw)
	case reflect.String:
		spec.Value = raw
	default:
		spec.Value = Raw(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("default %q: %w", raw, err)
	}
	return spec, nil
}
