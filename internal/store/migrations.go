package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQLite      string
	Postgres    string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "facts: unique (category, key) with provenance and retention",
		SQLite: `
CREATE TABLE facts (
    id            TEXT PRIMARY KEY,
    category      TEXT NOT NULL,
    key           TEXT NOT NULL,
    value         TEXT NOT NULL,
    source        TEXT NOT NULL DEFAULT '',
    confidence    REAL NOT NULL DEFAULT 1.0 CHECK (confidence >= 0 AND confidence <= 1),
    scope         TEXT NOT NULL DEFAULT 'global',
    tier          TEXT NOT NULL DEFAULT 'long-term',
    expires_at    INTEGER,
    last_verified INTEGER,
    source_type   TEXT NOT NULL DEFAULT 'manual',
    access_count  INTEGER NOT NULL DEFAULT 0,
    last_accessed INTEGER,
    created       INTEGER NOT NULL,
    updated       INTEGER NOT NULL,
    UNIQUE (category, key)
);
CREATE INDEX idx_facts_updated ON facts(updated DESC);
CREATE INDEX idx_facts_tier_expires ON facts(tier, expires_at)`,
		Postgres: `
CREATE TABLE facts (
    id            TEXT PRIMARY KEY,
    category      TEXT NOT NULL,
    key           TEXT NOT NULL,
    value         TEXT NOT NULL,
    source        TEXT NOT NULL DEFAULT '',
    confidence    DOUBLE PRECISION NOT NULL DEFAULT 1.0 CHECK (confidence >= 0 AND confidence <= 1),
    scope         TEXT NOT NULL DEFAULT 'global',
    tier          TEXT NOT NULL DEFAULT 'long-term',
    expires_at    BIGINT,
    last_verified BIGINT,
    source_type   TEXT NOT NULL DEFAULT 'manual',
    access_count  INTEGER NOT NULL DEFAULT 0,
    last_accessed BIGINT,
    created       BIGINT NOT NULL,
    updated       BIGINT NOT NULL,
    UNIQUE (category, key)
);
CREATE INDEX idx_facts_updated ON facts(updated DESC);
CREATE INDEX idx_facts_tier_expires ON facts(tier, expires_at)`,
	},
	{
		Version:     2,
		Description: "change_ledger: append-only value transitions",
		SQLite: `
CREATE TABLE change_ledger (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    id          TEXT NOT NULL UNIQUE,
    fact_id     TEXT NOT NULL REFERENCES facts(id) ON DELETE CASCADE,
    category    TEXT NOT NULL,
    key         TEXT NOT NULL,
    old_value   TEXT,
    new_value   TEXT NOT NULL,
    change_type TEXT NOT NULL CHECK (change_type IN ('created', 'updated')),
    source      TEXT NOT NULL DEFAULT '',
    created     INTEGER NOT NULL
);
CREATE INDEX idx_ledger_fact ON change_ledger(fact_id);
CREATE INDEX idx_ledger_created ON change_ledger(created DESC)`,
		Postgres: `
CREATE TABLE change_ledger (
    seq         BIGSERIAL PRIMARY KEY,
    id          TEXT NOT NULL UNIQUE,
    fact_id     TEXT NOT NULL REFERENCES facts(id) ON DELETE CASCADE,
    category    TEXT NOT NULL,
    key         TEXT NOT NULL,
    old_value   TEXT,
    new_value   TEXT NOT NULL,
    change_type TEXT NOT NULL CHECK (change_type IN ('created', 'updated')),
    source      TEXT NOT NULL DEFAULT '',
    created     BIGINT NOT NULL
);
CREATE INDEX idx_ledger_fact ON change_ledger(fact_id);
CREATE INDEX idx_ledger_created ON change_ledger(created DESC)`,
	},
	{
		Version:     3,
		Description: "relations: typed directed edges between facts",
		SQLite: `
CREATE TABLE relations (
    id             TEXT PRIMARY KEY,
    source_fact_id TEXT NOT NULL REFERENCES facts(id) ON DELETE CASCADE,
    target_fact_id TEXT NOT NULL REFERENCES facts(id) ON DELETE CASCADE,
    relation_type  TEXT NOT NULL,
    created        INTEGER NOT NULL,
    UNIQUE (source_fact_id, target_fact_id, relation_type)
);
CREATE INDEX idx_relations_target ON relations(target_fact_id)`,
		Postgres: `
CREATE TABLE relations (
    id             TEXT PRIMARY KEY,
    source_fact_id TEXT NOT NULL REFERENCES facts(id) ON DELETE CASCADE,
    target_fact_id TEXT NOT NULL REFERENCES facts(id) ON DELETE CASCADE,
    relation_type  TEXT NOT NULL,
    created        BIGINT NOT NULL,
    UNIQUE (source_fact_id, target_fact_id, relation_type)
);
CREATE INDEX idx_relations_target ON relations(target_fact_id)`,
	},
	{
		Version:     4,
		Description: "forgetting_archive: facts removed by confidence decay",
		SQLite: `
CREATE TABLE forgetting_archive (
    id                  TEXT PRIMARY KEY,
    original_fact_id    TEXT NOT NULL,
    category            TEXT NOT NULL,
    key                 TEXT NOT NULL,
    value               TEXT NOT NULL,
    original_confidence REAL NOT NULL,
    final_confidence    REAL NOT NULL,
    days_unused         INTEGER NOT NULL,
    archived_date       INTEGER NOT NULL,
    reason              TEXT NOT NULL
);
CREATE INDEX idx_archive_date ON forgetting_archive(archived_date DESC)`,
		Postgres: `
CREATE TABLE forgetting_archive (
    id                  TEXT PRIMARY KEY,
    original_fact_id    TEXT NOT NULL,
    category            TEXT NOT NULL,
    key                 TEXT NOT NULL,
    value               TEXT NOT NULL,
    original_confidence DOUBLE PRECISION NOT NULL,
    final_confidence    DOUBLE PRECISION NOT NULL,
    days_unused         INTEGER NOT NULL,
    archived_date       BIGINT NOT NULL,
    reason              TEXT NOT NULL
);
CREATE INDEX idx_archive_date ON forgetting_archive(archived_date DESC)`,
	},
	{
		Version:     5,
		Description: "activity: log events, session styles and projects",
		SQLite: `
CREATE TABLE events (
    id         TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    category   TEXT NOT NULL DEFAULT '',
    message    TEXT NOT NULL DEFAULT '',
    created    INTEGER NOT NULL
);
CREATE INDEX idx_events_created ON events(created DESC);
CREATE TABLE sessions (
    id      TEXT PRIMARY KEY,
    style   TEXT NOT NULL,
    started INTEGER NOT NULL
);
CREATE INDEX idx_sessions_started ON sessions(started DESC);
CREATE TABLE projects (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    status      TEXT NOT NULL DEFAULT 'active',
    started     INTEGER NOT NULL,
    last_active INTEGER NOT NULL,
    ended       INTEGER
)`,
		Postgres: `
CREATE TABLE events (
    id         TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    category   TEXT NOT NULL DEFAULT '',
    message    TEXT NOT NULL DEFAULT '',
    created    BIGINT NOT NULL
);
CREATE INDEX idx_events_created ON events(created DESC);
CREATE TABLE sessions (
    id      TEXT PRIMARY KEY,
    style   TEXT NOT NULL,
    started BIGINT NOT NULL
);
CREATE INDEX idx_sessions_started ON sessions(started DESC);
CREATE TABLE projects (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    status      TEXT NOT NULL DEFAULT 'active',
    started     BIGINT NOT NULL,
    last_active BIGINT NOT NULL,
    ended       BIGINT
)`,
	},
}

func (db *DB) migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_versions (
		version     INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at  BIGINT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	var current int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_versions")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		script := m.SQLite
		if db.Dialect == DialectPostgres {
			script = m.Postgres
		}
		err := db.inTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range strings.Split(script, ";\n") {
				stmt = strings.TrimSpace(stmt)
				if stmt == "" {
					continue
				}
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx,
				db.rebind("INSERT INTO schema_versions (version, description, applied_at) VALUES (?, ?, ?)"),
				m.Version, m.Description, time.Now().UnixMilli())
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
	}
	return nil
}
