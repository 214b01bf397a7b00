package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/skymail/skymail/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id          VARCHAR(255) NOT NULL PRIMARY KEY,
	user_did    VARCHAR(255) NOT NULL,
	user_handle VARCHAR(255) NOT NULL,
	message     TEXT NOT NULL,
	indexed_at  DATETIME NOT NULL,
	INDEX idx_messages_recipient (user_did, indexed_at DESC)
)
`

// Config holds MySQL connection parameters.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// MySQLStore implements store.Store for MySQL, the production mailbox
// backend.
type MySQLStore struct {
	db *sql.DB
}

// New opens a connection pool against the configured MySQL database and
// ensures the messages table exists.
func New(cfg Config) (*MySQLStore, error) {
	dsn := mysql.NewConfig()
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dsn.DBName = cfg.Database
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(3 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

// Close closes the connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// ListByRecipient returns the recipient's messages, newest first.
func (s *MySQLStore) ListByRecipient(ctx context.Context, recipientDID string) ([]*store.Message, error) {
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
func (s *MySQLStore) Insert(ctx context.Context, msg *store.Message) error {
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
func (s *MySQLStore) DeleteByID(ctx context.Context, id, recipientDID string) error {
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

// Ensure MySQLStore implements store.Store.
var _ store.Store = (*MySQLStore)(nil)
