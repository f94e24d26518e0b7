package tasks

import (
	"strings"
	"time"

	"github.com/sipeed/taskclaw/pkg/access"
)

const (
	MinTitleWords    = 5
	MaxDeadlineDays  = 365
	msgTitleWords    = "Title must contain at least 5 words."
	msgDeadlineRange = "Deadline must be from tomorrow and within one year."
	msgProjectChange = "Only PM can change the project of a task."
)

// ValidateTitle requires at least MinTitleWords whitespace-separated words.
func ValidateTitle(name string) error {
	if len(strings.Fields(name)) < MinTitleWords {
		return &ValidationError{Msg: msgTitleWords}
	}
	return nil
}

// ValidateDeadline requires tomorrow <= deadline <= today+365 days,
// comparing calendar dates only.
func ValidateDeadline(deadline, now time.Time) error {
	today := DateOnly(now)
	d := DateOnly(deadline)
	if d.Before(today.AddDate(0, 0, 1)) || d.After(today.AddDate(0, 0, MaxDeadlineDays)) {
		return &ValidationError{Msg: msgDeadlineRange}
	}
	return nil
}

// ValidateChanges applies the record constraints to the fields being written.
func ValidateChanges(ch Changes, now time.Time) error {
	if ch.Name != nil {
		if err := ValidateTitle(*ch.Name); err != nil {
			return err
		}
	}
	if ch.Deadline != nil && !ch.ClearDeadline {
		if err := ValidateDeadline(*ch.Deadline, now); err != nil {
			return err
		}
	}
	if ch.AIStatus != nil && !ch.AIStatus.Valid() {
		return &ValidationError{Msg: "Unknown AI status: " + string(*ch.AIStatus)}
	}
	return nil
}

// CheckProjectChange rejects moving a task to another project unless the
// author is a PM or superuser. current is nil for new tasks.
func CheckProjectChange(author access.Author, current *Task, ch Changes) error {
	if ch.ProjectID == nil || current == nil || *ch.ProjectID == current.ProjectID {
		return nil
	}
	if author != nil && (author.IsSuperuser() || author.HasRole(access.RolePM)) {
		return nil
	}
	return &AccessError{Msg: msgProjectChange}
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
