package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sipeed/taskclaw/pkg/access"
	"github.com/sipeed/taskclaw/pkg/logger"
	"github.com/sipeed/taskclaw/pkg/tagging"
	"github.com/sipeed/taskclaw/pkg/tasks"
)

// Store is what the wizard needs beyond the chat command surface.
type Store interface {
	tasks.Store
	CreateTask(ctx context.Context, t tasks.Task) (int64, error)
	EnsureTags(ctx context.Context, names []string) ([]int64, error)
}

type Wizard struct {
	store     Store
	suggester tagging.Suggester
	now       func() time.Time
}

func New(store Store, suggester tagging.Suggester) *Wizard {
	if suggester == nil {
		suggester = tagging.KeywordSuggester{}
	}
	return &Wizard{store: store, suggester: suggester, now: time.Now}
}

// Submit validates the form, then creates or updates the task, links
// suggested tags, records AI feedback and posts a note. It returns the
// task id.
func (w *Wizard) Submit(ctx context.Context, author access.Author, f Form) (int64, error) {
	if err := f.Validate(w.now()); err != nil {
		return 0, err
	}

	tags := tagging.Merge(tagging.ParseList(f.TagNames), w.suggest(ctx, f.Description))
	deadline, _ := f.deadline()

	if f.mode() == ModeCreate {
		return w.create(ctx, f, deadline, tags)
	}
	return w.change(ctx, author, f, deadline, tags)
}

func (w *Wizard) create(ctx context.Context, f Form, deadline *time.Time, tags []string) (int64, error) {
	id, err := w.store.CreateTask(ctx, tasks.Task{
		Name:        f.Name,
		Description: f.Description,
		ProjectID:   f.ProjectID,
		AssigneeIDs: []int64{f.UserID},
		Deadline:    deadline,
		Priority:    f.priority(),
		AIStatus:    tasks.StatusNone,
	})
	if err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}

	if err := w.linkTags(ctx, id, tags); err != nil {
		return id, err
	}
	feedback := "Task created via AI wizard. Suggested tags: " + strings.Join(tags, ", ")
	if err := w.store.Update(ctx, id, tasks.Changes{
		AIFeedback: &feedback,
		AIStatus:   tasks.Ptr(tasks.StatusNone),
	}); err != nil {
		return id, fmt.Errorf("store feedback: %w", err)
	}
	if err := w.store.PostNote(ctx, id, "AI Wizard: Task created."); err != nil {
		return id, fmt.Errorf("post note: %w", err)
	}

	logger.InfoCF("wizard", "Task created", map[string]any{"task_id": id, "tags": len(tags)})
	return id, nil
}

func (w *Wizard) change(ctx context.Context, author access.Author, f Form, deadline *time.Time, tags []string) (int64, error) {
	current, err := w.store.FindByID(ctx, f.TaskID)
	if err != nil {
		return 0, fmt.Errorf("load task %d: %w", f.TaskID, err)
	}
	if current == nil {
		return 0, fmt.Errorf("task %d: %w", f.TaskID, tasks.ErrNotFound)
	}

	ch := tasks.Changes{
		ProjectID:   &f.ProjectID,
		Name:        &f.Name,
		Description: &f.Description,
		AssigneeIDs: &[]int64{f.UserID},
		Priority:    tasks.Ptr(f.priority()),
	}
	if deadline != nil {
		ch.Deadline = deadline
	} else {
		ch.ClearDeadline = true
	}
	if err := tasks.CheckProjectChange(author, current, ch); err != nil {
		return 0, err
	}

	if err := w.store.Update(ctx, current.ID, ch); err != nil {
		return 0, fmt.Errorf("update task %d: %w", current.ID, err)
	}
	if err := w.linkTags(ctx, current.ID, tags); err != nil {
		return current.ID, err
	}
	feedback := "AI Wizard: Task updated. Suggested tags: " + strings.Join(tags, ", ")
	if err := w.store.Update(ctx, current.ID, tasks.Changes{AIFeedback: &feedback}); err != nil {
		return current.ID, fmt.Errorf("store feedback: %w", err)
	}
	if err := w.store.PostNote(ctx, current.ID, "AI Wizard: Task updated."); err != nil {
		return current.ID, fmt.Errorf("post note: %w", err)
	}

	logger.InfoCF("wizard", "Task updated", map[string]any{"task_id": current.ID, "tags": len(tags)})
	return current.ID, nil
}

func (w *Wizard) suggest(ctx context.Context, text string) []string {
	tags, err := w.suggester.Suggest(ctx, text)
	if err != nil {
		logger.WarnCF("wizard", "Tag suggestion failed", map[string]any{"error": err.Error()})
		return tagging.SuggestKeywords(text)
	}
	return tags
}

func (w *Wizard) linkTags(ctx context.Context, id int64, names []string) error {
	if len(names) == 0 {
		return nil
	}
	ids, err := w.store.EnsureTags(ctx, names)
	if err != nil {
		return fmt.Errorf("ensure tags: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := w.store.Update(ctx, id, tasks.Changes{TagIDs: &ids}); err != nil {
		return fmt.Errorf("link tags: %w", err)
	}
	return nil
}
