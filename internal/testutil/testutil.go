// Package testutil provides the in-memory database fixture shared by
// repository and handler tests. The schema mirrors migrations/000001 in
// SQLite dialect, including the foreign keys and their ON DELETE
// actions, so tests run without a MySQL server but still exercise the
// referential behavior (cascading recipient removal, nulled author
// references).
package testutil

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE users (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    username             TEXT NOT NULL UNIQUE,
    email                TEXT UNIQUE,
    password_hash        TEXT NOT NULL,
    role                 TEXT NOT NULL DEFAULT 'user',
    name                 TEXT NOT NULL,
    is_active            BOOLEAN NOT NULL DEFAULT 1,
    created_at           DATETIME NOT NULL,
    last_password_change DATETIME NOT NULL,
    modified_by          INTEGER REFERENCES users (id) ON DELETE SET NULL
);

CREATE TABLE letters (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    title         TEXT NOT NULL,
    reference     TEXT NOT NULL UNIQUE,
    content       TEXT NOT NULL,
    letter_date   DATETIME NOT NULL,
    status        TEXT NOT NULL DEFAULT 'pending',
    created_by    INTEGER REFERENCES users (id) ON DELETE SET NULL,
    is_public     BOOLEAN NOT NULL DEFAULT 1,
    approved_by   INTEGER REFERENCES users (id) ON DELETE SET NULL,
    approval_date DATETIME,
    created_at    DATETIME NOT NULL
);

CREATE TABLE letter_recipients (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    letter_id   INTEGER NOT NULL REFERENCES letters (id) ON DELETE CASCADE,
    user_id     INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    read_status BOOLEAN NOT NULL DEFAULT 0,
    received_at DATETIME NOT NULL,
    UNIQUE (letter_id, user_id)
);

CREATE TABLE letter_remarks (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    letter_id  INTEGER NOT NULL REFERENCES letters (id) ON DELETE CASCADE,
    author_id  INTEGER REFERENCES users (id) ON DELETE SET NULL,
    text       TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE TABLE letter_attachments (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    letter_id   INTEGER NOT NULL REFERENCES letters (id) ON DELETE CASCADE,
    filename    TEXT NOT NULL,
    path        TEXT NOT NULL,
    uploaded_at DATETIME NOT NULL
);
`

// NewDB opens an in-memory SQLite database with the letters schema
// applied and foreign keys enforced. The pool is pinned to a single
// connection so every query sees the same memory database.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}
