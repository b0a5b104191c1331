package sql

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxsql/dialect"
	"github.com/syssam/veloxsql/schema"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"postgres", dialect.Postgres},
		{"postgresql", dialect.Postgres},
		{"mysql", dialect.MySQL},
		{"sqlite", dialect.SQLite},
		{"sqlite3", dialect.SQLite},
	}
	for _, tt := range tests {
		p, err := NewProvider(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, p.Name())
	}
	_, err := NewProvider("oracle")
	require.Error(t, err)
}

func TestProvider_Quote(t *testing.T) {
	md := &schema.ModelDefinition{Table: "User"}
	qualified := &schema.ModelDefinition{Schema: "app", Table: "User"}

	tests := []struct {
		p         *Provider
		ident     string
		table     string
		qualified string
	}{
		{Postgres(), `"Na""me"`, `"User"`, `"app"."User"`},
		{MySQL(), "`Na\"me`", "`User`", "`app`.`User`"},
		{SQLite(), `"Na""me"`, `"User"`, `"app"."User"`},
	}
	for _, tt := range tests {
		t.Run(tt.p.Name(), func(t *testing.T) {
			assert.Equal(t, tt.ident, tt.p.QuoteIdentifier(`Na"me`))
			assert.Equal(t, tt.table, tt.p.QuoteTable(md))
			assert.Equal(t, tt.qualified, tt.p.QuoteTable(qualified))
		})
	}
	assert.Equal(t, "`a``b`", MySQL().QuoteIdentifier("a`b"))
}

func TestProvider_AddParameter(t *testing.T) {
	t.Run("Placeholders", func(t *testing.T) {
		var pg, my dialect.Args
		for i, want := range []string{"$1", "$2", "$3"} {
			ph, err := Postgres().AddParameter(&pg, i, schema.TypeInt)
			require.NoError(t, err)
			assert.Equal(t, want, ph)

			ph, err = MySQL().AddParameter(&my, i, schema.TypeInt)
			require.NoError(t, err)
			assert.Equal(t, "?", ph)
		}
		assert.Equal(t, []any{0, 1, 2}, pg.Values())
		assert.Equal(t, 3, my.Len())
		assert.Equal(t, schema.TypeInt, my.List()[2].Type)
	})

	t.Run("Conversions", func(t *testing.T) {
		id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
		n := 7
		var nilInt *int

		var args dialect.Args
		p := SQLite()
		for _, v := range []struct {
			value any
			typ   schema.ColumnType
		}{
			{&n, schema.TypeInt},
			{nilInt, schema.TypeInt},
			{nil, schema.TypeString},
			{id, schema.TypeUUID},
			{[]string{"a", "b"}, schema.TypeJSON},
			{json.RawMessage(`{"k":1}`), schema.TypeJSON},
		} {
			_, err := p.AddParameter(&args, v.value, v.typ)
			require.NoError(t, err)
		}
		assert.Equal(t, []any{7, nil, nil, id.String(), `["a","b"]`, `{"k":1}`}, args.Values())

		args = dialect.Args{}
		_, err := Postgres().AddParameter(&args, id, schema.TypeUUID)
		require.NoError(t, err)
		assert.Equal(t, id, args.Values()[0])
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		var args dialect.Args
		_, err := MySQL().AddParameter(&args, make(chan int), schema.TypeUnknown)
		require.ErrorIs(t, err, ErrUnsupportedType)
		assert.Zero(t, args.Len())

		_, err = Postgres().AddParameter(&args, "x", schema.ColumnType("bogus"))
		require.ErrorIs(t, err, ErrUnsupportedType)
		assert.Zero(t, args.Len())
	})
}

func TestProvider_RenderDefaultLiteral(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name   string
		spec   *schema.DefaultSpec
		pg     string
		mysql  string
		sqlite string
	}{
		{"nil", nil, "NULL", "NULL", "NULL"},
		{"int", &schema.DefaultSpec{Value: int64(1)}, "1", "1", "1"},
		{"uint", &schema.DefaultSpec{Value: uint64(18446744073709551615)}, "18446744073709551615", "18446744073709551615", "18446744073709551615"},
		{"float", &schema.DefaultSpec{Value: 1.1}, "1.1", "1.1", "1.1"},
		{"bool", &schema.DefaultSpec{Value: true}, "TRUE", "TRUE", "1"},
		{"string", &schema.DefaultSpec{Value: "it's"}, `'it''s'`, `'it''s'`, `'it''s'`},
		{"backslash", &schema.DefaultSpec{Value: `a\b`}, ` E'a\\b'`, `'a\\b'`, `'a\b'`},
		{"time", &schema.DefaultSpec{Value: ts}, `'2024-01-02 03:04:05'`, `'2024-01-02 03:04:05'`, `'2024-01-02 03:04:05'`},
		{"raw", &schema.DefaultSpec{Value: schema.Raw("CURRENT_DATE")}, "CURRENT_DATE", "CURRENT_DATE", "CURRENT_DATE"},
		{"utc", &schema.DefaultSpec{Variable: schema.SystemUTC}, "(now() at time zone 'utc')", "UTC_TIMESTAMP()", "CURRENT_TIMESTAMP"},
		{"now", &schema.DefaultSpec{Variable: schema.SystemNow}, "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for p, want := range map[*Provider]string{Postgres(): tt.pg, MySQL(): tt.mysql, SQLite(): tt.sqlite} {
				got, err := p.RenderDefaultLiteral(tt.spec)
				require.NoError(t, err, p.Name())
				assert.Equal(t, want, got, p.Name())
			}
		})
	}

	t.Run("uuid", func(t *testing.T) {
		spec := &schema.DefaultSpec{Variable: schema.SystemUUID}
		got, err := Postgres().RenderDefaultLiteral(spec)
		require.NoError(t, err)
		assert.Equal(t, "gen_random_uuid()", got)

		_, err = SQLite().RenderDefaultLiteral(spec)
		require.True(t, errors.Is(err, ErrUnsupportedDefault))
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := MySQL().RenderDefaultLiteral(&schema.DefaultSpec{Value: []int{1}})
		require.ErrorIs(t, err, ErrUnsupportedDefault)
	})
}

func TestEscapeStringValue(t *testing.T) {
	assert.Equal(t, "plain", escapeStringValue("plain"))
	assert.Equal(t, "it''s", escapeStringValue("it's"))
	assert.Equal(t, `a\\''b`, escapeStringValue(`a\'b`))
	assert.Equal(t, `'a\\b'`, MySQL().quoteString(`a\b`))
}

func TestProvider_EmptyInsert(t *testing.T) {
	assert.Equal(t, "DEFAULT VALUES", Postgres().EmptyInsert())
	assert.Equal(t, "DEFAULT VALUES", SQLite().EmptyInsert())
	assert.Equal(t, "() VALUES ()", MySQL().EmptyInsert())
}
