// Package dbtest provides in-memory sqlite databases with the core schema for
// repository and service tests. Production schema lives in the goose
// migrations; this mirror is sqlite-dialect DDL only.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// Open returns a fresh in-memory sqlite connection with the core tables created.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:dbtest_%s_%d?mode=memory&cache=shared", t.Name(), dbSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("creating test schema: %v", err)
		}
	}
	return conn
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_batches (
  id TEXT PRIMARY KEY,
  channel_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  quantity NUMERIC NOT NULL,
  unit_cost INTEGER NOT NULL,
  expiry_date DATETIME,
  source_type TEXT NOT NULL,
  source_id TEXT NOT NULL,
  metadata TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_batches_source UNIQUE (channel_id, source_type, source_id)
);`,
	`CREATE TABLE IF NOT EXISTS inventory_movements (
  id TEXT PRIMARY KEY,
  channel_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  type TEXT NOT NULL,
  quantity NUMERIC NOT NULL,
  batch_id TEXT,
  source_type TEXT NOT NULL,
  source_id TEXT NOT NULL,
  occurred_at DATETIME NOT NULL,
  metadata TEXT,
  created_at DATETIME,
  CONSTRAINT ux_movements_source UNIQUE (channel_id, source_type, source_id)
);`,
	`CREATE TABLE IF NOT EXISTS ledger_accounts (
  id TEXT PRIMARY KEY,
  channel_id TEXT NOT NULL,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_accounts_channel_code UNIQUE (channel_id, code)
);`,
	`CREATE TABLE IF NOT EXISTS journal_entries (
  id TEXT PRIMARY KEY,
  channel_id TEXT NOT NULL,
  entry_date DATETIME NOT NULL,
  posted_at DATETIME NOT NULL,
  source_type TEXT NOT NULL,
  source_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'posted',
  reversal_of TEXT,
  memo TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_journal_entries_source UNIQUE (channel_id, source_type, source_id)
);`,
	`CREATE TABLE IF NOT EXISTS journal_lines (
  id TEXT PRIMARY KEY,
  entry_id TEXT NOT NULL,
  channel_id TEXT NOT NULL,
  account_id TEXT NOT NULL,
  debit INTEGER NOT NULL DEFAULT 0,
  credit INTEGER NOT NULL DEFAULT 0,
  meta TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS money_events (
  id TEXT PRIMARY KEY,
  channel_id TEXT NOT NULL,
  event_date DATETIME NOT NULL,
  type TEXT NOT NULL,
  amount INTEGER NOT NULL,
  payment_method TEXT NOT NULL,
  session_id TEXT,
  source_type TEXT NOT NULL,
  source_id TEXT NOT NULL,
  memo TEXT,
  posted_by TEXT NOT NULL,
  reversal_of TEXT,
  reconciliation_id TEXT,
  created_at DATETIME,
  CONSTRAINT ux_money_events_source UNIQUE (channel_id, source_type, source_id)
);`,
	`CREATE TABLE IF NOT EXISTS cashier_sessions (
  id TEXT PRIMARY KEY,
  channel_id TEXT NOT NULL,
  cashier_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  opened_at DATETIME NOT NULL,
  closed_at DATETIME,
  opening_float INTEGER NOT NULL,
  closing_declared INTEGER,
  expected_amount INTEGER,
  variance INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS reconciliations (
  id TEXT PRIMARY KEY,
  channel_id TEXT NOT NULL,
  scope TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  range_start DATETIME NOT NULL,
  range_end DATETIME NOT NULL,
  session_id TEXT,
  account_codes TEXT,
  declared_amount INTEGER NOT NULL,
  ledger_amount INTEGER NOT NULL,
  variance INTEGER NOT NULL,
  external_ref TEXT,
  reviewed_by TEXT,
  approved_by TEXT,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS period_locks (
  id TEXT PRIMARY KEY,
  channel_id TEXT NOT NULL,
  lock_end_date DATETIME,
  locked_by TEXT,
  locked_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_period_locks_channel UNIQUE (channel_id)
);`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
}
