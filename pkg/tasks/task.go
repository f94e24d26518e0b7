// Package tasks holds the project-task model shared by chat commands, the
// wizard and the storage layer.
package tasks

import (
	"context"
	"time"

	"github.com/sipeed/taskclaw/pkg/access"
)

// AIStatus is the lightweight workflow flag driven by chat commands.
// The zero value means no status.
type AIStatus string

const (
	StatusNone        AIStatus = ""
	StatusPaused      AIStatus = "paused"
	StatusCancelled   AIStatus = "cancelled"
	StatusNeedsReview AIStatus = "needs_review"
)

func (s AIStatus) Valid() bool {
	switch s {
	case StatusNone, StatusPaused, StatusCancelled, StatusNeedsReview:
		return true
	}
	return false
}

type KanbanState string

const (
	KanbanNormal  KanbanState = "normal"
	KanbanDone    KanbanState = "done"
	KanbanBlocked KanbanState = "blocked"
)

type Priority string

const (
	PriorityLow  Priority = "0"
	PriorityHigh Priority = "1"
)

type Task struct {
	ID          int64
	Name        string
	Description string
	ProjectID   int64
	StageName   string
	AssigneeIDs []int64
	Deadline    *time.Time
	Priority    Priority
	AIStatus    AIStatus
	KanbanState KanbanState
	AIFeedback  string
	Tags        []string
}

// Changes is a partial update; nil fields are left untouched.
type Changes struct {
	Name          *string
	Description   *string
	ProjectID     *int64
	AssigneeIDs   *[]int64
	Deadline      *time.Time
	ClearDeadline bool
	Priority      *Priority
	AIStatus      *AIStatus
	KanbanState   *KanbanState
	AIFeedback    *string
	TagIDs        *[]int64
}

func (c Changes) Empty() bool {
	return c.Name == nil && c.Description == nil && c.ProjectID == nil &&
		c.AssigneeIDs == nil && c.Deadline == nil && !c.ClearDeadline &&
		c.Priority == nil && c.AIStatus == nil && c.KanbanState == nil &&
		c.AIFeedback == nil && c.TagIDs == nil
}

// Ptr returns a pointer to v, handy for building Changes literals.
func Ptr[T any](v T) *T {
	return &v
}

// Store is the persistence surface chat commands need. FindByID returns
// (nil, nil) when the task does not exist.
type Store interface {
	FindByID(ctx context.Context, id int64) (*Task, error)
	FindByAssignee(ctx context.Context, userID int64, limit int) ([]Task, error)
	Update(ctx context.Context, id int64, changes Changes) error
	PostNote(ctx context.Context, id int64, body string) error
}

// UserDirectory resolves logins. FindByLogin returns (nil, nil) when unknown.
type UserDirectory interface {
	FindByLogin(ctx context.Context, login string) (*access.User, error)
}
