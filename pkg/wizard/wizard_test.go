package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/taskclaw/pkg/access"
	"github.com/sipeed/taskclaw/pkg/tagging"
	"github.com/sipeed/taskclaw/pkg/tasks"
	"github.com/sipeed/taskclaw/pkg/tasks/taskstest"
)

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

type failingSuggester struct{}

func (failingSuggester) Suggest(context.Context, string) ([]string, error) {
	return nil, errors.New("upstream down")
}

func newWizard(store Store, s tagging.Suggester) *Wizard {
	w := New(store, s)
	w.now = func() time.Time { return fixedNow }
	return w
}

func validForm() Form {
	return Form{
		ProjectID:   1,
		Name:        "Fix the login page redirect",
		Description: "There is a bug in the redirect",
		UserID:      7,
		Deadline:    "2026-03-20",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Form)
		wantMsg string
	}{
		{"ok", func(*Form) {}, ""},
		{"short title", func(f *Form) { f.Name = "Fix login" }, "Title must contain at least 5 words."},
		{"no project", func(f *Form) { f.ProjectID = 0 }, "Project is required."},
		{"deadline today", func(f *Form) { f.Deadline = "2026-03-10" }, "Deadline must be from tomorrow and within one year."},
		{"deadline too far", func(f *Form) { f.Deadline = "2027-03-11" }, "Deadline must be from tomorrow and within one year."},
		{"deadline garbage", func(f *Form) { f.Deadline = "next week" }, "Invalid deadline: next week"},
		{"no assignee", func(f *Form) { f.UserID = 0 }, "Assignee is required."},
		{"spec without url", func(f *Form) { f.Description = "Document the OpenAPI schema" }, "Please provide a specification URL for API/spec tasks."},
		{"change without task", func(f *Form) { f.Mode = ModeChange }, "Select a task to change."},
		{"bad mode", func(f *Form) { f.Mode = "delete" }, "Unknown wizard mode: delete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)
			err := f.Validate(fixedNow)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tasks.ErrValidation)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestValidate_SpecURLSatisfiesKeyword(t *testing.T) {
	f := validForm()
	f.Description = "Write the swagger spec"
	f.SpecURL = "https://example.com/spec.yaml"
	assert.NoError(t, f.Validate(fixedNow))
}

func TestSubmit_Create(t *testing.T) {
	store := taskstest.NewStore()
	w := newWizard(store, nil)

	f := validForm()
	f.TagNames = "frontend, bug"
	id, err := w.Submit(context.Background(), &access.User{UserID: 7}, f)
	require.NoError(t, err)

	task, ok := store.Task(id)
	require.True(t, ok)
	assert.Equal(t, "Fix the login page redirect", task.Name)
	assert.Equal(t, []int64{7}, task.AssigneeIDs)
	assert.Equal(t, tasks.PriorityLow, task.Priority)
	assert.Equal(t, []string{"bug", "frontend"}, task.Tags)
	assert.Equal(t, "Task created via AI wizard. Suggested tags: bug, frontend", task.AIFeedback)
	require.NotNil(t, task.Deadline)
	assert.Equal(t, "2026-03-20", task.Deadline.Format(dateLayout))

	require.Len(t, store.Notes, 1)
	assert.Equal(t, "AI Wizard: Task created.", store.Notes[0].Body)
}

func TestSubmit_CreateRejectsInvalidForm(t *testing.T) {
	store := taskstest.NewStore()
	w := newWizard(store, nil)

	f := validForm()
	f.Name = "too short"
	_, err := w.Submit(context.Background(), &access.User{UserID: 7}, f)
	assert.ErrorIs(t, err, tasks.ErrValidation)
	assert.Zero(t, store.Calls)
}

func TestSubmit_SuggesterFailureFallsBackToKeywords(t *testing.T) {
	store := taskstest.NewStore()
	w := newWizard(store, failingSuggester{})

	id, err := w.Submit(context.Background(), &access.User{UserID: 7}, validForm())
	require.NoError(t, err)

	task, _ := store.Task(id)
	assert.Equal(t, []string{"bug"}, task.Tags)
}

func TestSubmit_Change(t *testing.T) {
	store := taskstest.NewStore()
	deadline := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	store.AddTask(tasks.Task{ID: 5, Name: "Old name of the task", ProjectID: 1, AssigneeIDs: []int64{3}, Deadline: &deadline})
	w := newWizard(store, tagging.KeywordSuggester{})

	f := validForm()
	f.Mode = ModeChange
	f.TaskID = 5
	f.Deadline = ""
	f.Priority = tasks.PriorityHigh

	id, err := w.Submit(context.Background(), &access.User{UserID: 3, Roles: []access.Role{access.RoleDev}}, f)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	task, _ := store.Task(5)
	assert.Equal(t, "Fix the login page redirect", task.Name)
	assert.Equal(t, []int64{7}, task.AssigneeIDs)
	assert.Nil(t, task.Deadline)
	assert.Equal(t, tasks.PriorityHigh, task.Priority)
	assert.Equal(t, "AI Wizard: Task updated. Suggested tags: bug", task.AIFeedback)
	require.Len(t, store.Notes, 1)
	assert.Equal(t, "AI Wizard: Task updated.", store.Notes[0].Body)
}

func TestSubmit_ChangeProjectRequiresPM(t *testing.T) {
	store := taskstest.NewStore()
	store.AddTask(tasks.Task{ID: 5, Name: "Old name of the task", ProjectID: 2})
	w := newWizard(store, nil)

	f := validForm()
	f.Mode = ModeChange
	f.TaskID = 5

	dev := &access.User{UserID: 3, Roles: []access.Role{access.RoleDev}}
	_, err := w.Submit(context.Background(), dev, f)
	require.ErrorIs(t, err, tasks.ErrAccess)
	assert.Equal(t, "Only PM can change the project of a task.", err.Error())
	assert.Zero(t, store.Mutations())

	pm := &access.User{UserID: 4, Roles: []access.Role{access.RolePM}}
	_, err = w.Submit(context.Background(), pm, f)
	require.NoError(t, err)
	task, _ := store.Task(5)
	assert.Equal(t, int64(1), task.ProjectID)
}

func TestSubmit_ChangeMissingTask(t *testing.T) {
	w := newWizard(taskstest.NewStore(), nil)

	f := validForm()
	f.Mode = ModeChange
	f.TaskID = 99
	_, err := w.Submit(context.Background(), &access.User{UserID: 1, Superuser: true}, f)
	assert.ErrorIs(t, err, tasks.ErrNotFound)
}

func TestPrefillContext(t *testing.T) {
	deadline := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	ctx := PrefillContext(&tasks.Task{
		ID:          5,
		ProjectID:   2,
		Name:        "Fix the login page redirect",
		AssigneeIDs: []int64{7, 8},
		Deadline:    &deadline,
		Priority:    tasks.PriorityHigh,
	})

	assert.Equal(t, map[string]string{
		"default_mode":          "change",
		"default_task_id":       "5",
		"default_project_id":    "2",
		"default_name":          "Fix the login page redirect",
		"default_description":   "",
		"default_user_id":       "7",
		"default_date_deadline": "2026-04-01",
		"default_priority":      "1",
	}, ctx)
}

func TestPrefillContext_Unassigned(t *testing.T) {
	ctx := PrefillContext(&tasks.Task{ID: 1, ProjectID: 1, Name: "x"})
	assert.Equal(t, "", ctx["default_user_id"])
	assert.Equal(t, "", ctx["default_date_deadline"])
}
