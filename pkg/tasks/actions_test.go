package tasks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/taskclaw/pkg/access"
	"github.com/sipeed/taskclaw/pkg/tasks"
	"github.com/sipeed/taskclaw/pkg/tasks/taskstest"
)

func TestActionApply_WritesAndPostsNote(t *testing.T) {
	store := taskstest.NewStore()
	store.AddTask(tasks.Task{ID: 7, Name: "Ship the quarterly report draft"})

	require.NoError(t, tasks.ActionReturn.Apply(context.Background(), store, 7))

	got, _ := store.Task(7)
	assert.Equal(t, tasks.StatusNeedsReview, got.AIStatus)
	require.Len(t, store.Notes, 1)
	assert.Equal(t, "#needs_review: Task was returned to PM.", store.Notes[0].Body)
}

func TestActionApply_CompleteSetsKanbanDone(t *testing.T) {
	store := taskstest.NewStore()
	store.AddTask(tasks.Task{ID: 1, KanbanState: tasks.KanbanNormal})
	store.AddTask(tasks.Task{ID: 2, KanbanState: tasks.KanbanBlocked})

	require.NoError(t, tasks.Actions["complete"].Apply(context.Background(), store, 1, 2))

	for _, id := range []int64{1, 2} {
		got, _ := store.Task(id)
		assert.Equal(t, tasks.KanbanDone, got.KanbanState)
	}
	assert.Len(t, store.Notes, 2)
}

func TestActionApply_StopsOnStoreError(t *testing.T) {
	store := taskstest.NewStore()
	store.Err = errors.New("db down")

	err := tasks.ActionPause.Apply(context.Background(), store, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pause task 3")
	assert.Empty(t, store.Notes)
}

func TestActionAllowed(t *testing.T) {
	pm := &access.User{UserID: 2, Roles: []access.Role{access.RoleUser, access.RolePM}}
	dev := &access.User{UserID: 3, Roles: []access.Role{access.RoleUser, access.RoleDev}}

	assert.True(t, tasks.ActionApprove.Allowed(pm))
	assert.False(t, tasks.ActionApprove.Allowed(dev))
	assert.True(t, tasks.ActionComplete.Allowed(dev))
	assert.False(t, tasks.ActionComplete.Allowed(pm))
	assert.True(t, tasks.ActionPause.Allowed(dev))
	assert.True(t, tasks.ActionComplete.Allowed(&access.User{Superuser: true}))
	assert.False(t, tasks.ActionPause.Allowed(nil))
}
