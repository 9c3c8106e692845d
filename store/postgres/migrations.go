package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the dues store.
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
    metadata   JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    items         JSONB NOT NULL DEFAULT '[]',
    period_from   TIMESTAMPTZ NOT NULL,
    period_to     TIMESTAMPTZ NOT NULL,
    due_date      TIMESTAMPTZ,
    notes         TEXT NOT NULL DEFAULT '',
    currency      TEXT NOT NULL DEFAULT 'inr',
    subtotal      BIGINT NOT NULL DEFAULT 0,
    tax           BIGINT NOT NULL DEFAULT 0,
    old_arrears   BIGINT NOT NULL DEFAULT 0,
    total_amount  BIGINT NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'pending',
    paid_at       TIMESTAMPTZ,
    payment_ref   TEXT NOT NULL DEFAULT '',
    metadata      JSONB NOT NULL DEFAULT '{}',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_dues_invoices_customer_period ON dues_invoices (customer_id, period_from, period_to);
CREATE INDEX IF NOT EXISTS idx_dues_invoices_society_status ON dues_invoices (society_id, status);
CREATE INDEX IF NOT EXISTS idx_dues_invoices_created ON dues_invoices (society_id, created_at DESC);
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
    notice_year   INT NOT NULL,
    notice_seq    INT NOT NULL,
    society_id    TEXT NOT NULL DEFAULT '',
    tenant_id     TEXT NOT NULL,
    invoice_id    TEXT NOT NULL DEFAULT '',
    subject       TEXT NOT NULL DEFAULT '',
    content       TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'draft',
    sent_at       TIMESTAMPTZ,
    resolved_at   TIMESTAMPTZ,
    dispatch_ref  TEXT NOT NULL DEFAULT '',
    metadata      JSONB NOT NULL DEFAULT '{}',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_dues_notices_number ON dues_notices (society_id, notice_year, notice_seq);
CREATE INDEX IF NOT EXISTS idx_dues_notices_tenant ON dues_notices (society_id, tenant_id);
CREATE INDEX IF NOT EXISTS idx_dues_notices_status ON dues_notices (society_id, status);
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

INSERT INTO dues_counters (society_id, year, seq)
SELECT society_id, notice_year, MAX(notice_seq) FROM dues_notices GROUP BY society_id, notice_year
ON CONFLICT (society_id, year) DO NOTHING;
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
