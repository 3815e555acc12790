package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestWithTxCommits(t *testing.T) {
	conn := newTestDB(t)
	client := FromGorm(conn)

	if err := conn.Exec("CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT)").Error; err != nil {
		t.Fatalf("create table: %v", err)
	}

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO things (name) VALUES ('a')").Error
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	var count int64
	if err := conn.Raw("SELECT COUNT(*) FROM things").Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected committed row, got %d", count)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	conn := newTestDB(t)
	client := FromGorm(conn)

	if err := conn.Exec("CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT)").Error; err != nil {
		t.Fatalf("create table: %v", err)
	}

	boom := errors.New("boom")
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Exec("INSERT INTO things (name) VALUES ('a')").Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int64
	if err := conn.Raw("SELECT COUNT(*) FROM things").Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, got %d rows", count)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error is not a violation")
	}
	err := errors.New(`duplicate key value violates unique constraint "ux_movements_source"`)
	if !IsUniqueViolation(err, "") {
		t.Fatal("expected postgres phrasing to match")
	}
	if !IsUniqueViolation(err, "ux_movements_source") {
		t.Fatal("expected constraint hint to match")
	}
	sqliteErr := errors.New("UNIQUE constraint failed: inventory_movements.channel_id, inventory_movements.source_type, inventory_movements.source_id")
	if !IsUniqueViolation(sqliteErr, "ux_movements_source") {
		t.Fatal("expected sqlite phrasing to match despite constraint hint")
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Fatal("unrelated error matched")
	}
}
