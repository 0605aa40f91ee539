package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

const schema = `
CREATE TABLE IF NOT EXISTS students (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	class          TEXT NOT NULL,
	accompanied_by TEXT NOT NULL DEFAULT '',
	coupons        BIGINT NOT NULL DEFAULT 0,
	qr_code        TEXT NOT NULL UNIQUE,
	status         TEXT NOT NULL,
	check_in       JSONB,
	check_out      JSONB,
	fee_amount     BIGINT NOT NULL DEFAULT 0,
	fee_status     TEXT NOT NULL,
	fee_paid_at    TIMESTAMPTZ,
	fee_paid_by    TEXT NOT NULL DEFAULT '',
	fee_note       TEXT NOT NULL DEFAULT '',
	fee_history    JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_students_status ON students(status);

CREATE TABLE IF NOT EXISTS activity (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	student_id   TEXT NOT NULL,
	student_name TEXT NOT NULL DEFAULT '',
	class        TEXT NOT NULL DEFAULT '',
	actor        TEXT NOT NULL DEFAULT '',
	occurred_at  TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_activity_occurred ON activity(occurred_at DESC);
`

// Migrate creates the tables if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.Client.ExecContext(ctx, schema)
	return err
}

// Healthy pings the database.
func (d *DB) Healthy(ctx context.Context) bool {
	if d == nil || d.Client == nil {
		return false
	}
	return d.Client.PingContext(ctx) == nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
