package sqlstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialect captures the few places where sqlite and postgres disagree.
type dialect struct {
	name       string
	sqlDriver  string
	primaryKey string
	floatType  string
	lockSuffix string
}

var (
	sqliteDialect = dialect{
		name:       DriverSQLite,
		sqlDriver:  "sqlite",
		primaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
		floatType:  "REAL",
		// transactions start with BEGIN IMMEDIATE, which already holds the
		// database write lock
		lockSuffix: "",
	}
	postgresDialect = dialect{
		name:       DriverPostgres,
		sqlDriver:  "pgx",
		primaryKey: "BIGSERIAL PRIMARY KEY",
		floatType:  "DOUBLE PRECISION",
		lockSuffix: " FOR UPDATE",
	}
)

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		return sqliteDialect, nil
	case DriverPostgres, "pgx":
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// rebind rewrites ? placeholders into $n for postgres.
func (d dialect) rebind(query string) string {
	if d.name != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ddl fills the dialect specific column types into a CREATE statement.
func (d dialect) ddl(statement string) string {
	return strings.NewReplacer(
		"{{pk}}", d.primaryKey,
		"{{float}}", d.floatType,
	).Replace(statement)
}

func (d dialect) isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

// isTransient reports store conflicts that succeed when the transaction is
// run again.
func (d dialect) isTransient(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return true
		}
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}
	return false
}
