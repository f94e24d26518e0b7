package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sipeed/taskclaw/pkg/tasks"
)

const dateLayout = "2006-01-02"

const taskColumns = `t.id, t.name, t.description, t.project_id, COALESCE(s.name, ''),
	t.date_deadline, t.priority, t.ai_status, t.kanban_state, t.ai_feedback`

const taskFrom = ` FROM tasks t LEFT JOIN stages s ON s.id = t.stage_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*tasks.Task, error) {
	var (
		t        tasks.Task
		deadline sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.ProjectID, &t.StageName,
		&deadline, &t.Priority, &t.AIStatus, &t.KanbanState, &t.AIFeedback); err != nil {
		return nil, err
	}
	if deadline.Valid && deadline.String != "" {
		d, err := time.Parse(dateLayout, deadline.String)
		if err != nil {
			return nil, fmt.Errorf("task %d: bad deadline %q: %w", t.ID, deadline.String, err)
		}
		t.Deadline = &d
	}
	return &t, nil
}

// FindByID returns (nil, nil) when the task does not exist.
func (s *Store) FindByID(ctx context.Context, id int64) (*tasks.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load task %d: %w", id, err)
	}
	if err := s.loadRelations(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// FindByAssignee returns up to limit tasks assigned to userID, oldest first.
func (s *Store) FindByAssignee(ctx context.Context, userID int64, limit int) ([]tasks.Task, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+taskFrom+`
		 JOIN task_assignees a ON a.task_id = t.id
		 WHERE a.user_id = ?
		 ORDER BY t.id
		 LIMIT ?`, userID, limit)
}

// FindDueOn returns open tasks whose deadline falls on day: not done and
// not cancelled.
func (s *Store) FindDueOn(ctx context.Context, day time.Time) ([]tasks.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+taskFrom+`
		 WHERE t.date_deadline = ? AND t.kanban_state != ? AND t.ai_status != ?
		 ORDER BY t.id`,
		day.Format(dateLayout), string(tasks.KanbanDone), string(tasks.StatusCancelled))
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]tasks.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	var list []*tasks.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan task: %w", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	rows.Close()

	out := make([]tasks.Task, 0, len(list))
	for _, t := range list {
		if err := s.loadRelations(ctx, t); err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *Store) loadRelations(ctx context.Context, t *tasks.Task) error {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM task_assignees WHERE task_id = ? ORDER BY user_id`, t.ID)
	if err != nil {
		return fmt.Errorf("load assignees of task %d: %w", t.ID, err)
	}
	for rows.Next() {
		var uid int64
		if err := rows.Scan(&uid); err != nil {
			rows.Close()
			return fmt.Errorf("scan assignee: %w", err)
		}
		t.AssigneeIDs = append(t.AssigneeIDs, uid)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT g.name FROM task_tags tt JOIN tags g ON g.id = tt.tag_id
		 WHERE tt.task_id = ? ORDER BY g.name`, t.ID)
	if err != nil {
		return fmt.Errorf("load tags of task %d: %w", t.ID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		t.Tags = append(t.Tags, name)
	}
	return rows.Err()
}

// CreateTask inserts t in the first stage and returns its id. Title and
// deadline constraints are enforced here.
func (s *Store) CreateTask(ctx context.Context, t tasks.Task) (int64, error) {
	if err := tasks.ValidateTitle(t.Name); err != nil {
		return 0, err
	}
	if t.Deadline != nil {
		if err := tasks.ValidateDeadline(*t.Deadline, s.now()); err != nil {
			return 0, err
		}
	}
	if !t.AIStatus.Valid() {
		return 0, &tasks.ValidationError{Msg: "Unknown AI status: " + string(t.AIStatus)}
	}
	if t.Priority == "" {
		t.Priority = tasks.PriorityLow
	}
	if t.KanbanState == "" {
		t.KanbanState = tasks.KanbanNormal
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (name, description, project_id, stage_id, date_deadline, priority, ai_status, kanban_state, ai_feedback)
			 VALUES (?, ?, ?, (SELECT id FROM stages ORDER BY sequence, id LIMIT 1), ?, ?, ?, ?, ?)`,
			t.Name, t.Description, t.ProjectID, formatDate(t.Deadline),
			string(t.Priority), string(t.AIStatus), string(t.KanbanState), t.AIFeedback)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return replaceAssignees(ctx, tx, id, t.AssigneeIDs)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update applies ch to task id. Unknown ids yield tasks.ErrNotFound.
func (s *Store) Update(ctx context.Context, id int64, ch tasks.Changes) error {
	if err := tasks.ValidateChanges(ch, s.now()); err != nil {
		return err
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if ch.Name != nil {
		set("name", *ch.Name)
	}
	if ch.Description != nil {
		set("description", *ch.Description)
	}
	if ch.ProjectID != nil {
		set("project_id", *ch.ProjectID)
	}
	if ch.ClearDeadline {
		set("date_deadline", nil)
	} else if ch.Deadline != nil {
		set("date_deadline", formatDate(ch.Deadline))
	}
	if ch.Priority != nil {
		set("priority", string(*ch.Priority))
	}
	if ch.AIStatus != nil {
		set("ai_status", string(*ch.AIStatus))
	}
	if ch.KanbanState != nil {
		set("kanban_state", string(*ch.KanbanState))
	}
	if ch.AIFeedback != nil {
		set("ai_feedback", *ch.AIFeedback)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("update task %d: %w", id, err)
		}
		if exists == 0 {
			return fmt.Errorf("update task %d: %w", id, tasks.ErrNotFound)
		}

		if len(sets) > 0 {
			q := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
			if _, err := tx.ExecContext(ctx, q, append(args, id)...); err != nil {
				return fmt.Errorf("update task %d: %w", id, err)
			}
		}
		if ch.AssigneeIDs != nil {
			if err := replaceAssignees(ctx, tx, id, *ch.AssigneeIDs); err != nil {
				return err
			}
		}
		if ch.TagIDs != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ?`, id); err != nil {
				return fmt.Errorf("clear tags of task %d: %w", id, err)
			}
			for _, tagID := range *ch.TagIDs {
				if _, err := tx.ExecContext(ctx,
					`INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)`, id, tagID); err != nil {
					return fmt.Errorf("link tag %d to task %d: %w", tagID, id, err)
				}
			}
		}
		return nil
	})
}

func replaceAssignees(ctx context.Context, tx *sql.Tx, taskID int64, userIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_assignees WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clear assignees of task %d: %w", taskID, err)
	}
	for _, uid := range userIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO task_assignees (task_id, user_id) VALUES (?, ?)`, taskID, uid); err != nil {
			return fmt.Errorf("assign user %d to task %d: %w", uid, taskID, err)
		}
	}
	return nil
}

// EnsureTags returns the ids of the named tags, creating missing ones.
// Names match case-insensitively.
func (s *Store) EnsureTags(ctx context.Context, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name) VALUES (?)`, name); err != nil {
				return fmt.Errorf("create tag %q: %w", name, err)
			}
			var id int64
			if err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id); err != nil {
				return fmt.Errorf("load tag %q: %w", name, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func formatDate(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(dateLayout)
}
