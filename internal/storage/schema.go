package storage

import (
	"context"
	"fmt"
)

var schemas = map[Dialect][]string{
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS audit_events (
			id                VARCHAR(255) NOT NULL PRIMARY KEY,
			user_id           VARCHAR(255) NULL,
			user_description  TEXT         NOT NULL,
			ip_addr           VARCHAR(64)  NOT NULL,
			event_time        DATETIME(6)  NOT NULL,
			request_path      TEXT         NOT NULL,
			event_description TEXT         NOT NULL,
			content_type      VARCHAR(255) NULL,
			object_id         VARCHAR(255) NULL,
			request_id        VARCHAR(128) NOT NULL DEFAULT '',
			method            VARCHAR(16)  NOT NULL DEFAULT '',
			status_code       INT          NOT NULL DEFAULT 0,
			INDEX idx_audit_events_time (event_time),
			INDEX idx_audit_events_user (user_id),
			INDEX idx_audit_events_object (content_type, object_id)
		)`,
	},
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS audit_events (
			id                TEXT     NOT NULL PRIMARY KEY,
			user_id           TEXT     NULL,
			user_description  TEXT     NOT NULL DEFAULT '',
			ip_addr           TEXT     NOT NULL,
			event_time        DATETIME NOT NULL,
			request_path      TEXT     NOT NULL,
			event_description TEXT     NOT NULL,
			content_type      TEXT     NULL,
			object_id         TEXT     NULL,
			request_id        TEXT     NOT NULL DEFAULT '',
			method            TEXT     NOT NULL DEFAULT '',
			status_code       INTEGER  NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_time ON audit_events (event_time)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_user ON audit_events (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_object ON audit_events (content_type, object_id)`,
	},
	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS audit_events (
			id                TEXT        NOT NULL PRIMARY KEY,
			user_id           TEXT        NULL,
			user_description  TEXT        NOT NULL DEFAULT '',
			ip_addr           TEXT        NOT NULL,
			event_time        TIMESTAMPTZ NOT NULL,
			request_path      TEXT        NOT NULL,
			event_description TEXT        NOT NULL,
			content_type      TEXT        NULL,
			object_id         TEXT        NULL,
			request_id        TEXT        NOT NULL DEFAULT '',
			method            TEXT        NOT NULL DEFAULT '',
			status_code       INTEGER     NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_time ON audit_events (event_time)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_user ON audit_events (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_object ON audit_events (content_type, object_id)`,
	},
}

// EnsureSchema creates the audit_events table and its indexes when missing.
func (c *Client) EnsureSchema(ctx context.Context) error {
	stmts, ok := schemas[c.dialect]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", c.dialect)
	}
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure audit schema: %w", err)
		}
	}
	return nil
}
