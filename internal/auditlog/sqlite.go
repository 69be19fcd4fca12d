package auditlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteSink stores events in a local SQLite file.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLite opens the database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSink{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         TEXT PRIMARY KEY,
	event_date TEXT NOT NULL,
	event_time TEXT NOT NULL,
	device     TEXT NOT NULL,
	zone       TEXT NOT NULL,
	building   TEXT NOT NULL,
	block      INTEGER NOT NULL,
	unit       INTEGER NOT NULL,
	event      TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_events_unit ON audit_events(zone, building, block, unit);
CREATE INDEX IF NOT EXISTS idx_audit_events_date ON audit_events(event_date);
`

func (s *SQLiteSink) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteSink) Append(ctx context.Context, e Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, event_date, event_time, device, zone, building, block, unit, event, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Date(), e.Clock(), e.DeviceClass,
		e.Unit.Zone, e.Unit.Building, e.Unit.Block, e.Unit.Unit, e.Name,
		e.At.UTC().Format(time.RFC3339),
	)
	return eris.Wrap(err, "sqlite: insert audit event")
}

// Count returns the number of stored events.
func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count audit events")
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
