// Package wizard implements the task create/change form behind
// /create_task and /change_task.
package wizard

import (
	"strconv"
	"strings"
	"time"

	"github.com/sipeed/taskclaw/pkg/tasks"
)

const (
	CreateActionName = "taskclaw.open_ai_task_wizard"
	ChangeActionName = "taskclaw.open_ai_change_task_wizard"

	dateLayout = "2006-01-02"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeChange Mode = "change"
)

type Form struct {
	Mode        Mode           `json:"mode"`
	ProjectID   int64          `json:"project_id"`
	TaskID      int64          `json:"task_id,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	UserID      int64          `json:"user_id"`
	Deadline    string         `json:"date_deadline,omitempty"` // YYYY-MM-DD
	Priority    tasks.Priority `json:"priority,omitempty"`
	TagNames    string         `json:"tag_names,omitempty"`
	SpecURL     string         `json:"spec_url,omitempty"`
}

var specKeywords = []string{"api", "specification", "spec", "swagger", "openapi"}

// Validate checks the form the way the wizard dialog does before saving.
func (f Form) Validate(now time.Time) error {
	if err := tasks.ValidateTitle(f.Name); err != nil {
		return err
	}
	if f.ProjectID == 0 {
		return &tasks.ValidationError{Msg: "Project is required."}
	}

	deadline, err := f.deadline()
	if err != nil {
		return err
	}
	if deadline != nil {
		if err := tasks.ValidateDeadline(*deadline, now); err != nil {
			return err
		}
	}

	if f.UserID == 0 {
		return &tasks.ValidationError{Msg: "Assignee is required."}
	}

	desc := strings.ToLower(f.Description)
	for _, kw := range specKeywords {
		if strings.Contains(desc, kw) && strings.TrimSpace(f.SpecURL) == "" {
			return &tasks.ValidationError{Msg: "Please provide a specification URL for API/spec tasks."}
		}
	}

	switch f.mode() {
	case ModeCreate:
	case ModeChange:
		if f.TaskID == 0 {
			return &tasks.ValidationError{Msg: "Select a task to change."}
		}
	default:
		return &tasks.ValidationError{Msg: "Unknown wizard mode: " + string(f.Mode)}
	}
	return nil
}

func (f Form) mode() Mode {
	if f.Mode == "" {
		return ModeCreate
	}
	return f.Mode
}

func (f Form) priority() tasks.Priority {
	if f.Priority == "" {
		return tasks.PriorityLow
	}
	return f.Priority
}

func (f Form) deadline() (*time.Time, error) {
	s := strings.TrimSpace(f.Deadline)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, &tasks.ValidationError{Msg: "Invalid deadline: " + s}
	}
	return &d, nil
}

// Prefill builds a change-mode form from an existing task.
func Prefill(t *tasks.Task) Form {
	f := Form{
		Mode:        ModeChange,
		TaskID:      t.ID,
		ProjectID:   t.ProjectID,
		Name:        t.Name,
		Description: t.Description,
		Priority:    t.Priority,
	}
	if len(t.AssigneeIDs) > 0 {
		f.UserID = t.AssigneeIDs[0]
	}
	if t.Deadline != nil {
		f.Deadline = t.Deadline.Format(dateLayout)
	}
	return f
}

// PrefillContext is Prefill flattened into the default_* keys the change
// view is opened with.
func PrefillContext(t *tasks.Task) map[string]string {
	f := Prefill(t)
	ctx := map[string]string{
		"default_mode":          string(f.Mode),
		"default_task_id":       strconv.FormatInt(f.TaskID, 10),
		"default_project_id":    strconv.FormatInt(f.ProjectID, 10),
		"default_name":          f.Name,
		"default_description":   f.Description,
		"default_date_deadline": f.Deadline,
		"default_priority":      string(f.Priority),
		"default_user_id":       "",
	}
	if f.UserID != 0 {
		ctx["default_user_id"] = strconv.FormatInt(f.UserID, 10)
	}
	return ctx
}
