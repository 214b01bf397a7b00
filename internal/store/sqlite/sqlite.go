package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/skymail/skymail/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	user_did    TEXT NOT NULL,
	user_handle TEXT NOT NULL,
	message     TEXT NOT NULL,
	indexed_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(user_did, indexed_at DESC);
`

// SQLiteStore implements store.Store for SQLite. Used for development and
// as the in-memory store behind tests; production deployments use the
// MySQL store.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) a SQLite mailbox store at dbPath and applies the
// schema. Use ":memory:" for an ephemeral store.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListByRecipient returns the recipient's messages, newest first.
func (s *SQLiteStore) ListByRecipient(ctx context.Context, recipientDID string) ([]*store.Message, error) {
	query := `
		SELECT id, user_did, user_handle, message, indexed_at
		FROM messages
		WHERE user_did = ?
		ORDER BY indexed_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, recipientDID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		var indexedAt string
		if err := rows.Scan(&msg.ID, &msg.RecipientDID, &msg.RecipientHandle, &msg.Body, &indexedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.ArrivedAt, err = time.Parse(store.TimeLayout, indexedAt)
		if err != nil {
			return nil, fmt.Errorf("parse indexed_at: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// Insert persists a message.
func (s *SQLiteStore) Insert(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (id, user_did, user_handle, message, indexed_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.RecipientDID,
		msg.RecipientHandle,
		msg.Body,
		msg.ArrivedAt.UTC().Format(store.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// DeleteByID removes a message owned by recipientDID. A missing id is a
// no-op success; an id owned by someone else is store.ErrNotOwner.
func (s *SQLiteStore) DeleteByID(ctx context.Context, id, recipientDID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE id = ? AND user_did = ?`, id, recipientDID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing deleted: either the id never existed (idempotent success)
	// or it belongs to another recipient.
	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM messages WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check message owner: %w", err)
	}
	if exists {
		return store.ErrNotOwner
	}
	return nil
}

// Ensure SQLiteStore implements store.Store.
var _ store.Store = (*SQLiteStore)(nil)
