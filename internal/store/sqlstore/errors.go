// Package sqlstore implements the store interfaces on top of sqlx. Queries are
// written with ? placeholders and rebound for the connected driver, so the same
// code runs against SQLite, MySQL and PostgreSQL.
package sqlstore

import "strings"

// isUniqueConstraintError checks whether err indicates a unique constraint violation.
// Works across SQLite, PostgreSQL, and MySQL.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite & PostgreSQL
		strings.Contains(msg, "duplicate key") || // PostgreSQL
		strings.Contains(msg, "duplicate entry") // MySQL
}
