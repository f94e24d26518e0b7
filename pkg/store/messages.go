package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	// KindComment is a message posted by a user.
	KindComment MessageKind = "comment"
	// KindNote is written by the system: command side effects, wizard
	// notes and reminders.
	KindNote MessageKind = "note"
)

type Message struct {
	ID        string
	TaskID    int64
	AuthorID  int64 // 0 for system notes
	Kind      MessageKind
	Body      string
	CreatedAt time.Time
}

// PostNote stores a system note on the task thread. Notes are written
// straight to the table and never go through the chat pipeline.
func (s *Store) PostNote(ctx context.Context, taskID int64, body string) error {
	_, err := s.insertMessage(ctx, taskID, 0, KindNote, body)
	return err
}

// PostMessage stores a user-authored message and returns its id.
func (s *Store) PostMessage(ctx context.Context, taskID, authorID int64, body string) (string, error) {
	return s.insertMessage(ctx, taskID, authorID, KindComment, body)
}

func (s *Store) insertMessage(ctx context.Context, taskID, authorID int64, kind MessageKind, body string) (string, error) {
	id := uuid.NewString()
	var author any
	if authorID != 0 {
		author = authorID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, task_id, author_id, kind, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, taskID, author, string(kind), body, s.now().UTC().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("post %s on task %d: %w", kind, taskID, err)
	}
	return id, nil
}

// Messages returns the thread of a task, oldest first.
func (s *Store) Messages(ctx context.Context, taskID int64) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, author_id, kind, body, created_at FROM messages
		 WHERE task_id = ? ORDER BY created_at, rowid`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list messages of task %d: %w", taskID, err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			m       Message
			author  sql.NullInt64
			created int64
		)
		if err := rows.Scan(&m.ID, &m.TaskID, &author, &m.Kind, &m.Body, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.AuthorID = author.Int64
		m.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}
