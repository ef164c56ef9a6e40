// Package migrations holds the Go migrations whose DDL differs per database,
// such as the links table with its timestamp and url column types.
package migrations

// dialect is set by the parent db package before migrations are applied.
var dialect string

// SetDialect selects the goose dialect ("sqlite3", "postgres" or "mysql") the
// Go migrations emit DDL for. db.Migrate calls it before goose.Up.
func SetDialect(d string) {
	dialect = d
}
