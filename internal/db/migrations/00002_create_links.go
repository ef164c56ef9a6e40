package migrations

// The links table is a Go migration because column types differ by driver:
// MySQL cannot index TEXT without a prefix length and wants DATETIME(6) for
// sub-second timestamps, PostgreSQL wants TIMESTAMPTZ.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateLinks, downCreateLinks)
}

func upCreateLinks(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range createLinksStmts() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create links table: %w", err)
		}
	}
	return nil
}

func downCreateLinks(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS links`)
	return err
}

func createLinksStmts() []string {
	switch dialect {
	case "postgres":
		return []string{
			`CREATE TABLE IF NOT EXISTS links (
    id          VARCHAR(36)  PRIMARY KEY,
    user_id     VARCHAR(128) NOT NULL,
    url         TEXT         NOT NULL,
    title       VARCHAR(100) NOT NULL,
    description VARCHAR(500) NOT NULL,
    created_at  TIMESTAMPTZ  NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS links_user_id_idx ON links (user_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS links_url_idx ON links (url)`,
		}
	case "mysql":
		return []string{
			`CREATE TABLE IF NOT EXISTS links (
    id          VARCHAR(36)   PRIMARY KEY,
    user_id     VARCHAR(128)  NOT NULL,
    url         VARCHAR(2048) NOT NULL,
    title       VARCHAR(100)  NOT NULL,
    description VARCHAR(500)  NOT NULL,
    created_at  DATETIME(6)   NOT NULL,
    INDEX links_user_id_idx (user_id, created_at),
    INDEX links_url_idx (url(255))
)`,
		}
	default: // sqlite3
		return []string{
			`CREATE TABLE IF NOT EXISTS links (
    id          TEXT      PRIMARY KEY,
    user_id     TEXT      NOT NULL,
    url         TEXT      NOT NULL,
    title       TEXT      NOT NULL,
    description TEXT      NOT NULL,
    created_at  TIMESTAMP NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS links_user_id_idx ON links (user_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS links_url_idx ON links (url)`,
		}
	}
}
