package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/casekeeper/migrations"
)

// MigrationStatus reports one embedded schema file against the tracking
// table.
type MigrationStatus struct {
	ID          string
	Checksum    string
	Applied     bool
	AppliedAt   *time.Time
	ExecutionMs int64
}

// dialect carries what differs between the sqlite and postgres stores.
type dialect struct {
	files    fs.FS
	dir      string
	tracking string
	// stamp converts the applied-at time to the column's representation.
	stamp func(time.Time) any
}

var dialects = map[string]dialect{
	"sqlite3": {
		files: migrations.SqliteMigrations,
		dir:   "sqlite",
		// Must match the migrations table in sqlite/001_initial_schema.sql.
		tracking: `CREATE TABLE IF NOT EXISTS migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TEXT NOT NULL,
			execution_ms INTEGER NOT NULL,
			CHECK (applied_at LIKE '____-__-__T__:__:__Z')
		)`,
		stamp: func(t time.Time) any { return t.Format(time.RFC3339) },
	},
	"postgres": {
		files: migrations.PostgresMigrations,
		dir:   "postgres",
		tracking: `CREATE TABLE IF NOT EXISTS migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP WITHOUT TIME ZONE NOT NULL,
			execution_ms INTEGER NOT NULL
		)`,
		stamp: func(t time.Time) any { return t },
	},
}

type migration struct {
	id       string
	checksum string
	script   string
}

type appliedMigration struct {
	ID          string         `db:"migration_id"`
	Checksum    string         `db:"checksum"`
	AppliedAt   sql.NullString `db:"applied_at"`
	ExecutionMs int64          `db:"execution_ms"`
}

// MigrateUp applies every pending embedded migration for the database's
// driver, each in its own transaction. Applied migrations whose embedded
// file changed abort the run before anything new is applied.
func MigrateUp(ctx context.Context, db *sqlx.DB) error {
	d, all, applied, err := plan(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range all {
		if _, ok := applied[m.id]; ok {
			continue
		}
		started := time.Now()
		err := inTx(ctx, db, func(tx *sqlx.Tx) error {
			for i, stmt := range splitStatements(m.script) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("statement %d: %w", i+1, err)
				}
			}
			_, err := tx.ExecContext(ctx, tx.Rebind(
				"INSERT INTO migrations (migration_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)"),
				m.id, m.checksum, d.stamp(time.Now().UTC()), time.Since(started).Milliseconds())
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.id, err)
		}
	}
	return nil
}

// MigrateStatus lists every embedded migration in apply order.
func MigrateStatus(ctx context.Context, db *sqlx.DB) ([]MigrationStatus, error) {
	_, all, applied, err := plan(ctx, db)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(all))
	for _, m := range all {
		s := MigrationStatus{ID: m.id, Checksum: m.checksum}
		if a, ok := applied[m.id]; ok {
			s.Applied = true
			s.ExecutionMs = a.ExecutionMs
			// sqlite stores RFC 3339 text; database/sql renders postgres
			// timestamps in the same layout.
			if ts, err := time.Parse(time.RFC3339Nano, a.AppliedAt.String); err == nil {
				s.AppliedAt = &ts
			}
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

// plan loads the embedded migrations and the tracking table, and verifies
// the checksums of everything already applied.
func plan(ctx context.Context, db *sqlx.DB) (dialect, []migration, map[string]appliedMigration, error) {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return dialect{}, nil, nil, fmt.Errorf("unsupported database driver: %s", db.DriverName())
	}
	if _, err := db.ExecContext(ctx, d.tracking); err != nil {
		return d, nil, nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	all, err := readMigrations(d.files, d.dir)
	if err != nil {
		return d, nil, nil, fmt.Errorf("failed to parse migrations: %w", err)
	}

	var rows []appliedMigration
	if err := db.SelectContext(ctx, &rows,
		"SELECT migration_id, checksum, applied_at, execution_ms FROM migrations"); err != nil {
		return d, nil, nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}

	embedded := make(map[string]string, len(all))
	for _, m := range all {
		embedded[m.id] = m.checksum
	}
	applied := make(map[string]appliedMigration, len(rows))
	for _, r := range rows {
		want, ok := embedded[r.ID]
		if !ok {
			return d, nil, nil, fmt.Errorf("migration %s exists in database but not in embedded files", r.ID)
		}
		if r.Checksum != want {
			return d, nil, nil, fmt.Errorf("checksum mismatch for migration %s: expected %s, got %s", r.ID, want, r.Checksum)
		}
		applied[r.ID] = r
	}
	return d, all, applied, nil
}

// readMigrations returns the .sql files under dir ordered by file name.
func readMigrations(files fs.FS, dir string) ([]migration, error) {
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, err
	}
	var out []migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		content, err := fs.ReadFile(files, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		sum := sha256.Sum256(content)
		out = append(out, migration{id: e.Name(), checksum: hex.EncodeToString(sum[:]), script: string(content)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out, nil
}

// splitStatements breaks a script into single statements, since lib/pq
// rejects multi-statement Exec. Whole-line "--" comments are dropped first
// so a semicolon inside one cannot split a statement.
func splitStatements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var stmts []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
