package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the dues store (SQLite).
var Migrations = migrate.NewGroup("dues")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_dues_residents",
			Version: "20240301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS dues_residents (
    id         TEXT PRIMARY KEY,
    society_id TEXT NOT NULL DEFAULT '',
    name       TEXT NOT NULL DEFAULT '',
    flat       TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    phone      TEXT NOT NULL DEFAULT '',
    status     TEXT NOT NULL DEFAULT 'active',
    metadata   TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_dues_residents_society ON dues_residents (society_id, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS dues_residents`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_dues_invoices",
			Version: "20240301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS dues_invoices (
    id            TEXT PRIMARY KEY,
    society_id    TEXT NOT NULL DEFAULT '',
    customer_id   TEXT NOT NULL,
    customer_name TEXT NOT NULL DEFAULT '',
    flat          TEXT NOT NULL DEFAULT '',
    items         TEXT NOT NULL DEFAULT '[]',
    period_from   DATETIME NOT NULL,
    period_to     DATETIME NOT NULL,
    due_date      DATETIME,
    notes         TEXT NOT NULL DEFAULT '',
    currency      TEXT NOT NULL DEFAULT 'inr',
    subtotal      INTEGER NOT NULL DEFAULT 0,
    tax           INTEGER NOT NULL DEFAULT 0,
    old_arrears   INTEGER NOT NULL DEFAULT 0,
    total_amount  INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'pending',
    paid_at       DATETIME,
    payment_ref   TEXT NOT NULL DEFAULT '',
    metadata      TEXT NOT NULL DEFAULT '{}',
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_dues_invoices_customer_period ON dues_invoices (customer_id, period_from, period_to);
CREATE INDEX IF NOT EXISTS idx_dues_invoices_society_status ON dues_invoices (society_id, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS dues_invoices`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_dues_notices",
			Version: "20240301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS dues_notices (
    id            TEXT PRIMARY KEY,
    notice_number TEXT NOT NULL,
    notice_year   INTEGER NOT NULL,
    notice_seq    INTEGER NOT NULL,
    society_id    TEXT NOT NULL DEFAULT '',
    tenant_id     TEXT NOT NULL,
    invoice_id    TEXT NOT NULL DEFAULT '',
    subject       TEXT NOT NULL DEFAULT '',
    content       TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'draft',
    sent_at       DATETIME,
    resolved_at   DATETIME,
    dispatch_ref  TEXT NOT NULL DEFAULT '',
    metadata      TEXT NOT NULL DEFAULT '{}',
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_dues_notices_number ON dues_notices (society_id, notice_year, notice_seq);
CREATE INDEX IF NOT EXISTS idx_dues_notices_tenant ON dues_notices (society_id, tenant_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS dues_notices`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_dues_counters",
			Version: "20240301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS dues_counters (
    society_id TEXT    NOT NULL,
    year       INTEGER NOT NULL,
    seq        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (society_id, year)
);

INSERT OR IGNORE INTO dues_counters (society_id, year, seq)
SELECT society_id, notice_year, MAX(notice_seq) FROM dues_notices GROUP BY society_id, notice_year;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS dues_counters`)
				return err
			},
		},
	)
}
