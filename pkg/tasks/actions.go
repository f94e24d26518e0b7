package tasks

import (
	"context"
	"fmt"

	"github.com/sipeed/taskclaw/pkg/access"
)

// Action is a one-click workflow step: a fixed write followed by a note.
// Roles mirror the matching <name>_task chat command.
type Action struct {
	Name    string
	Roles   []access.Role
	Changes Changes
	Note    string
}

var (
	pmOrDev = []access.Role{access.RolePM, access.RoleDev}

	ActionPause = Action{
		Name: "pause", Roles: pmOrDev,
		Changes: Changes{AIStatus: Ptr(StatusPaused)}, Note: "Task was paused.",
	}
	ActionResume = Action{
		Name: "resume", Roles: pmOrDev,
		Changes: Changes{AIStatus: Ptr(StatusNone)}, Note: "Task was resumed.",
	}
	ActionCancel = Action{
		Name: "cancel", Roles: pmOrDev,
		Changes: Changes{AIStatus: Ptr(StatusCancelled)}, Note: "Task was cancelled.",
	}
	ActionReturn = Action{
		Name: "return", Roles: []access.Role{access.RolePM},
		Changes: Changes{AIStatus: Ptr(StatusNeedsReview)}, Note: "#needs_review: Task was returned to PM.",
	}
	ActionApprove = Action{
		Name: "approve", Roles: []access.Role{access.RolePM},
		Changes: Changes{AIStatus: Ptr(StatusNone)}, Note: "Task approved by PM.",
	}
	ActionComplete = Action{
		Name: "complete", Roles: []access.Role{access.RoleDev},
		Changes: Changes{KanbanState: Ptr(KanbanDone)}, Note: "Task was completed by assignee.",
	}
)

// Actions lists the workflow buttons by name.
var Actions = map[string]Action{
	ActionPause.Name:    ActionPause,
	ActionResume.Name:   ActionResume,
	ActionCancel.Name:   ActionCancel,
	ActionReturn.Name:   ActionReturn,
	ActionApprove.Name:  ActionApprove,
	ActionComplete.Name: ActionComplete,
}

// Allowed reports whether author may trigger the action.
func (a Action) Allowed(author access.Author) bool {
	return access.HasAnyRole(author, a.Roles)
}

// Apply writes the action's changes to each task and posts its note.
func (a Action) Apply(ctx context.Context, s Store, ids ...int64) error {
	for _, id := range ids {
		if err := s.Update(ctx, id, a.Changes); err != nil {
			return fmt.Errorf("%s task %d: %w", a.Name, id, err)
		}
		if err := s.PostNote(ctx, id, a.Note); err != nil {
			return fmt.Errorf("%s task %d: post note: %w", a.Name, id, err)
		}
	}
	return nil
}
