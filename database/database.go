package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lib/pq"
)

// ConnectDB opens the Postgres connection described by DATABASE_URL.
func ConnectDB() (*sql.DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	return db, nil
}

// InitSchema creates all tables and indexes if they do not exist yet.
// The DDL sticks to the portable subset shared by Postgres and SQLite;
// variant payloads, image lists, ticket selections and custom fields are
// stored as JSON text columns. Timestamps are always written from Go in
// UTC, never by the database.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT,
		avatar TEXT,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		images TEXT NOT NULL DEFAULT '[]',
		author_id TEXT NOT NULL,
		author_name TEXT NOT NULL,
		author_avatar TEXT,
		status TEXT NOT NULL,
		event_details TEXT,
		cultural_details TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS registrations (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		transaction_id TEXT,
		booking_dates TEXT NOT NULL DEFAULT '[]',
		tickets TEXT NOT NULL DEFAULT '[]',
		total_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		custom_fields TEXT NOT NULL DEFAULT '{}',
		payment_screenshot TEXT,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (event_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		recipient_id TEXT,
		reporter_id TEXT,
		post_id TEXT,
		report_reason TEXT,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS likes (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (post_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		user_avatar TEXT,
		text TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);
	CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
	CREATE INDEX IF NOT EXISTS idx_registrations_event ON registrations(event_id);
	CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id);
	CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);
	CREATE INDEX IF NOT EXISTS idx_likes_post ON likes(post_id);
	CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id);
	`

	_, err := db.Exec(schema)
	return err
}

// IsUniqueViolation reports whether err is a unique-constraint failure,
// for either driver. Registration and like inserts rely on this to map
// races on the UNIQUE indexes to a conflict response.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
