// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cardwise/cardwise-tui/internal/model"
)

// schema is applied on open. Messages carry their actions as a JSON column;
// the dev service has no need to query inside them.
const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	is_active  INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	actions         TEXT,
	created_at      TIMESTAMP NOT NULL,
	seq             INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages(conversation_id, seq);
`

// DB wraps the sqlite store behind the dev service.
type DB struct {
	db *sql.DB
}

// OpenDB opens (and creates if needed) the sqlite database at path.
// Use ":memory:" for tests.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows one writer; serialize access through a single conn to
	// avoid SQLITE_BUSY under the responder's concurrent inserts.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// CreateConversation inserts a new conversation and returns it.
func (d *DB) CreateConversation(title string, isActive bool) (*model.Conversation, error) {
	if title == "" {
		title = model.DefaultTitle
	}
	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []*model.Message{},
	}

	_, err := d.db.Exec(
		`INSERT INTO conversations (id, title, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		conv.ID, conv.Title, boolToInt(conv.IsActive), conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return conv, nil
}

// ConversationExists reports whether a conversation id is known.
func (d *DB) ConversationExists(id string) (bool, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(1) FROM conversations WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListConversations returns conversation metadata, most recently updated
// first.
func (d *DB) ListConversations() ([]model.ConversationMeta, error) {
	rows, err := d.db.Query(`
		SELECT c.id, c.title, c.is_active, c.created_at, c.updated_at,
		       COUNT(m.id)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		GROUP BY c.id
		ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metas := []model.ConversationMeta{}
	for rows.Next() {
		var meta model.ConversationMeta
		var active int
		if err := rows.Scan(&meta.ID, &meta.Title, &active, &meta.CreatedAt, &meta.UpdatedAt, &meta.MessageCount); err != nil {
			return nil, err
		}
		meta.IsActive = active != 0
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// TouchConversation bumps a conversation's updated_at.
func (d *DB) TouchConversation(id string) error {
	_, err := d.db.Exec(`UPDATE conversations SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

// =============================================================================
// MESSAGES
// =============================================================================

// AppendMessage inserts a message at the end of a conversation's sequence
// and returns the stored message.
func (d *DB) AppendMessage(conversationID string, role model.Role, content string, actions []model.Action) (*model.Message, error) {
	msg := &model.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		Actions:   actions,
	}

	var actionsJSON sql.NullString
	if len(actions) > 0 {
		data, err := json.Marshal(actions)
		if err != nil {
			return nil, fmt.Errorf("failed to encode actions: %w", err)
		}
		actionsJSON = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// seq is assigned inside the transaction so concurrent appends cannot
	// interleave into the same position.
	var seq int64
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`,
		conversationID,
	).Scan(&seq); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		`INSERT INTO messages (id, conversation_id, role, content, actions, created_at, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, conversationID, string(msg.Role), msg.Content, actionsJSON, msg.CreatedAt, seq,
	); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		msg.CreatedAt, conversationID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return msg, nil
}

// Messages returns the full ordered message sequence for a conversation.
func (d *DB) Messages(conversationID string) ([]*model.Message, error) {
	rows, err := d.db.Query(
		`SELECT id, role, content, actions, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY seq`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []*model.Message{}
	for rows.Next() {
		var msg model.Message
		var role string
		var actionsJSON sql.NullString
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &actionsJSON, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Role = model.Role(role)
		if actionsJSON.Valid && actionsJSON.String != "" {
			if err := json.Unmarshal([]byte(actionsJSON.String), &msg.Actions); err != nil {
				return nil, fmt.Errorf("corrupt actions for message %s: %w", msg.ID, err)
			}
		}
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
