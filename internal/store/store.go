// Package store keeps the per-conversation message log in a private
// in-memory SQLite database. Nothing is written to disk; every Open starts
// from an empty log.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/saravenpi/e63/internal/models"
)

const schema = `
	CREATE TABLE message (
		ROWID        INTEGER PRIMARY KEY AUTOINCREMENT,
		id           INTEGER NOT NULL,
		guid         TEXT    NOT NULL,
		chat_id      INTEGER NOT NULL,
		text         TEXT    NOT NULL,
		time         TEXT    NOT NULL,
		is_from_me   INTEGER NOT NULL,
		kind         TEXT    NOT NULL,
		image_url    TEXT,
		image_mime   TEXT,
		image_width  INTEGER,
		image_height INTEGER,
		image_size   INTEGER,
		image_preview TEXT
	);
	CREATE INDEX message_chat ON message(chat_id, ROWID);
`

type Store struct {
	db *sql.DB
}

// Open creates a fresh, uniquely named in-memory database.
func Open() (*Store, error) {
	dsn := fmt.Sprintf("file:e63-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The database lives as long as one connection holds it open.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SeedFrom appends the initial messages of every conversation. Messages
// without a GUID get one.
func (s *Store) SeedFrom(messages map[int64][]models.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed: %w", err)
	}
	defer tx.Rollback()

	for chatID, msgs := range messages {
		for _, msg := range msgs {
			if err := insert(tx, chatID, msg); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}

// Append adds msg to the end of the conversation's log.
func (s *Store) Append(chatID int64, msg models.Message) error {
	return insert(s.db, chatID, msg)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insert(db execer, chatID int64, msg models.Message) error {
	if msg.GUID == "" {
		msg.GUID = uuid.NewString()
	}
	if msg.Kind == "" {
		msg.Kind = models.KindText
	}

	var (
		url, mime, preview  sql.NullString
		width, height, size sql.NullInt64
	)
	if msg.Image != nil {
		url = sql.NullString{String: msg.Image.URL, Valid: true}
		mime = sql.NullString{String: msg.Image.MIME, Valid: true}
		preview = sql.NullString{String: msg.Image.Preview, Valid: true}
		width = sql.NullInt64{Int64: int64(msg.Image.Width), Valid: true}
		height = sql.NullInt64{Int64: int64(msg.Image.Height), Valid: true}
		size = sql.NullInt64{Int64: int64(msg.Image.Size), Valid: true}
	}

	query := `
		INSERT INTO message (
			id, guid, chat_id, text, time, is_from_me, kind,
			image_url, image_mime, image_width, image_height, image_size, image_preview
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		msg.ID, msg.GUID, chatID, msg.Text, msg.Time, msg.Mine, string(msg.Kind),
		url, mime, width, height, size, preview,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Messages returns the conversation's log in append order.
func (s *Store) Messages(chatID int64) ([]models.Message, error) {
	query := `
		SELECT
			id, guid, text, time, is_from_me, kind,
			image_url, image_mime, image_width, image_height, image_size, image_preview
		FROM message
		WHERE chat_id = ?
		ORDER BY ROWID ASC
	`

	rows, err := s.db.Query(query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var (
			msg                 models.Message
			kind                string
			url, mime, preview  sql.NullString
			width, height, size sql.NullInt64
		)
		err := rows.Scan(&msg.ID, &msg.GUID, &msg.Text, &msg.Time, &msg.Mine, &kind,
			&url, &mime, &width, &height, &size, &preview)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.Kind = models.MessageKind(kind)
		if url.Valid {
			msg.Image = &models.ImageRef{
				URL:     url.String,
				MIME:    mime.String,
				Width:   int(width.Int64),
				Height:  int(height.Int64),
				Size:    int(size.Int64),
				Preview: preview.String,
			}
		}

		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	return messages, nil
}

// LastID returns the largest message id across all conversations, or 0.
func (s *Store) LastID() (int64, error) {
	var id sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(id) FROM message`).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to query last id: %w", err)
	}
	return id.Int64, nil
}
