package sql

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/syssam/veloxsql/dialect"
	"github.com/syssam/veloxsql/schema"
)

var (
	// ErrUnsupportedType is returned when a value is bound to a column whose
	// logical type the dialect cannot handle.
	ErrUnsupportedType = errors.New("dialect/sql: unsupported column type")
	// ErrUnsupportedDefault is returned when a default cannot be rendered as
	// a literal of the dialect.
	ErrUnsupportedDefault = errors.New("dialect/sql: unsupported default")
)

// Provider implements dialect.Provider for one SQL dialect.
type Provider struct {
	name        string
	emptyInsert string
	quote       func(string) string
	placeholder func(int) string
	quoteString func(string) string
	boolLiteral func(bool) string
	variables   map[schema.Variable]string
	// uuidString binds UUIDs as their canonical text form.
	uuidString bool
}

// Postgres returns the PostgreSQL provider: double quoted identifiers and
// numbered ($n) placeholders.
func Postgres() *Provider {
	return &Provider{
		name:        dialect.Postgres,
		emptyInsert: "DEFAULT VALUES",
		quote:       pq.QuoteIdentifier,
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		quoteString: pq.QuoteLiteral,
		boolLiteral: upperBool,
		variables: map[schema.Variable]string{
			schema.SystemUTC:  "(now() at time zone 'utc')",
			schema.SystemNow:  "CURRENT_TIMESTAMP",
			schema.SystemUUID: "gen_random_uuid()",
		},
	}
}

// MySQL returns the MySQL provider: backquoted identifiers and positional
// placeholders.
func MySQL() *Provider {
	return &Provider{
		name:        dialect.MySQL,
		emptyInsert: "() VALUES ()",
		quote: func(s string) string {
			return "`" + strings.ReplaceAll(s, "`", "``") + "`"
		},
		placeholder: positional,
		quoteString: func(s string) string { return "'" + escapeStringValue(s) + "'" },
		boolLiteral: upperBool,
		variables: map[schema.Variable]string{
			schema.SystemUTC:  "UTC_TIMESTAMP()",
			schema.SystemNow:  "CURRENT_TIMESTAMP",
			schema.SystemUUID: "(UUID())",
		},
		uuidString: true,
	}
}

// escapeStringValue escapes a string value for safe use in a MySQL literal.
// It escapes both single quotes (by doubling) and backslashes.
func escapeStringValue(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// SQLite returns the SQLite provider: double quoted identifiers and
// positional placeholders. SQLite has no UUID function.
func SQLite() *Provider {
	return &Provider{
		name:        dialect.SQLite,
		emptyInsert: "DEFAULT VALUES",
		quote: func(s string) string {
			return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
		},
		placeholder: positional,
		quoteString: func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" },
		boolLiteral: func(b bool) string {
			if b {
				return "1"
			}
			return "0"
		},
		variables: map[schema.Variable]string{
			schema.SystemUTC: "CURRENT_TIMESTAMP",
			schema.SystemNow: "CURRENT_TIMESTAMP",
		},
		uuidString: true,
	}
}

// NewProvider returns the provider of the named dialect. Driver names such as
// "sqlite3" or "postgresql" are matched by prefix.
func NewProvider(name string) (*Provider, error) {
	switch normalize(name) {
	case dialect.Postgres:
		return Postgres(), nil
	case dialect.MySQL:
		return MySQL(), nil
	case dialect.SQLite:
		return SQLite(), nil
	default:
		return nil, fmt.Errorf("dialect/sql: unsupported dialect %q", name)
	}
}

// normalize maps a driver name to its dialect constant.
func normalize(name string) string {
	for _, d := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(name, d) {
			return d
		}
	}
	return name
}

func positional(int) string { return "?" }

func upperBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Name implements dialect.Provider.
func (p *Provider) Name() string { return p.name }

// QuoteIdentifier implements dialect.Provider.
func (p *Provider) QuoteIdentifier(name string) string { return p.quote(name) }

// QuoteTable implements dialect.Provider.
func (p *Provider) QuoteTable(m *schema.ModelDefinition) string {
	if m.Schema != "" {
		return p.quote(m.Schema) + "." + p.quote(m.Table)
	}
	return p.quote(m.Table)
}

// EmptyInsert implements dialect.Provider.
func (p *Provider) EmptyInsert() string { return p.emptyInsert }

// AddParameter implements dialect.Provider.
func (p *Provider) AddParameter(args *dialect.Args, value any, typ schema.ColumnType) (string, error) {
	v, err := p.convert(value, typ)
	if err != nil {
		return "", err
	}
	return p.placeholder(args.Append(v, typ)), nil
}

// convert prepares value for binding to a column of type typ.
func (p *Provider) convert(value any, typ schema.ColumnType) (any, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: cannot bind %T to %q", ErrUnsupportedType, value, typ)
	}
	if value == nil {
		return nil, nil
	}
	if typ == schema.TypeOther {
		if v, ok := value.(driver.Valuer); ok {
			return v, nil
		}
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	value = rv.Interface()
	switch typ {
	case schema.TypeJSON:
		if raw, ok := value.(json.RawMessage); ok {
			return string(raw), nil
		}
		b, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: marshal json value: %w", err)
		}
		return string(b), nil
	case schema.TypeUUID:
		if u, ok := value.(uuid.UUID); ok && p.uuidString {
			return u.String(), nil
		}
	}
	return value, nil
}

// RenderDefaultLiteral implements dialect.Provider.
func (p *Provider) RenderDefaultLiteral(d *schema.DefaultSpec) (string, error) {
	if d == nil {
		return "NULL", nil
	}
	if d.Variable != "" {
		lit, ok := p.variables[d.Variable]
		if !ok {
			return "", fmt.Errorf("%w: %s has no $%s", ErrUnsupportedDefault, p.name, d.Variable)
		}
		return lit, nil
	}
	switch v := d.Value.(type) {
	case nil:
		return "NULL", nil
	case schema.Raw:
		return string(v), nil
	case bool:
		return p.boolLiteral(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case string:
		return p.quoteString(v), nil
	case time.Time:
		return p.quoteString(v.UTC().Format("2006-01-02 15:04:05.999999")), nil
	case uuid.UUID:
		return p.quoteString(v.String()), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedDefault, d.Value)
	}
}

var _ dialect.Provider = (*Provider)(nil)
