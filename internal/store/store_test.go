package store

import (
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Tests run against sqlite, so the schema is created here with
// sqlite-compatible DDL instead of the Postgres migrations.
var testSchema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		airtable_user_id TEXT NOT NULL UNIQUE,
		email TEXT,
		name TEXT,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		token_expires_at DATETIME NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE forms (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		airtable_base_id TEXT NOT NULL,
		airtable_table_id TEXT NOT NULL,
		title TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE form_questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		form_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		question_key TEXT NOT NULL,
		airtable_field_id TEXT NOT NULL,
		label TEXT NOT NULL,
		type TEXT NOT NULL,
		required BOOLEAN NOT NULL DEFAULT 0,
		conditional_rules TEXT,
		UNIQUE (form_id, question_key)
	)`,
	`CREATE TABLE responses (
		id TEXT PRIMARY KEY,
		form_id TEXT NOT NULL,
		airtable_record_id TEXT NOT NULL UNIQUE,
		answers TEXT NOT NULL,
		deleted_in_airtable BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE webhook_registrations (
		id TEXT PRIMARY KEY,
		webhook_id TEXT NOT NULL UNIQUE,
		mac_secret_base64 TEXT,
		notification_url TEXT NOT NULL,
		base_id TEXT,
		cursor_for_next_payload INTEGER NOT NULL DEFAULT 1,
		notifications_enabled BOOLEAN NOT NULL DEFAULT 1,
		hook_enabled BOOLEAN NOT NULL DEFAULT 1,
		expiration_time DATETIME,
		last_payload_fetch_time DATETIME,
		deleted BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "store.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
