package sql

import (
	"errors"
	"slices"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild  = 1452 // Cannot add or update a child row
	mysqlCheckViolation   = 3819
)

// constraint classifies a driver error by kind.
type constraint struct {
	pg      pq.ErrorCode
	mysql   []uint16
	sqlite  []int
	message []string
}

var (
	uniqueConstraint = constraint{
		pg:      pgUniqueViolation,
		mysql:   []uint16{mysqlDuplicateEntry},
		sqlite:  []int{sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY},
		message: []string{"Error 1062", "violates unique constraint", "UNIQUE constraint failed"},
	}
	foreignKeyConstraint = constraint{
		pg:      pgForeignKeyViolation,
		mysql:   []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		sqlite:  []int{sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY},
		message: []string{"Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"},
	}
	checkConstraint = constraint{
		pg:      pgCheckViolation,
		mysql:   []uint16{mysqlCheckViolation},
		sqlite:  []int{sqlite3.SQLITE_CONSTRAINT_CHECK},
		message: []string{"Error 3819", "violates check constraint", "CHECK constraint failed"},
	}
)

func (c constraint) match(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[*pq.Error](err); ok && e.Code == c.pg {
		return true
	}
	if e, ok := asError[*mysql.MySQLError](err); ok && slices.Contains(c.mysql, e.Number) {
		return true
	}
	if e, ok := asError[*sqlite.Error](err); ok && slices.Contains(c.sqlite, e.Code()) {
		return true
	}
	// Fallback to string matching for primary result codes and wrapped drivers.
	msg := err.Error()
	for _, m := range c.message {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsConstraintError reports whether err resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports whether err resulted from a uniqueness or
// primary key violation.
func IsUniqueConstraintError(err error) bool {
	return uniqueConstraint.match(err)
}

// IsForeignKeyConstraintError reports whether err resulted from a foreign-key violation.
func IsForeignKeyConstraintError(err error) bool {
	return foreignKeyConstraint.match(err)
}

// IsCheckConstraintError reports whether err resulted from a check constraint violation.
func IsCheckConstraintError(err error) bool {
	return checkConstraint.match(err)
}

// asError attempts to extract an error of type T from the error chain.
func asError[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}
