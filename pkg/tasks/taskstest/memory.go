// Package taskstest provides an in-memory tasks.Store and tasks.UserDirectory
// that records every call, for tests.
package taskstest

import (
	"context"
	"sort"
	"sync"

	"github.com/sipeed/taskclaw/pkg/access"
	"github.com/sipeed/taskclaw/pkg/tasks"
)

type UpdateCall struct {
	ID      int64
	Changes tasks.Changes
}

type NoteCall struct {
	ID   int64
	Body string
}

type Store struct {
	mu    sync.Mutex
	tasks map[int64]*tasks.Task
	users map[string]*access.User
	tags  map[string]int64

	Calls   int
	Updates []UpdateCall
	Notes   []NoteCall

	// Err, when set, is returned by every method.
	Err error
}

func NewStore() *Store {
	return &Store{
		tasks: make(map[int64]*tasks.Task),
		users: make(map[string]*access.User),
		tags:  make(map[string]int64),
	}
}

func (s *Store) AddTask(t tasks.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := t
	s.tasks[t.ID] = &cp
}

func (s *Store) AddUser(u *access.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Login] = u
}

// Task returns a copy of the stored task.
func (s *Store) Task(id int64) (tasks.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return tasks.Task{}, false
	}
	return *t, true
}

func (s *Store) FindByID(_ context.Context, id int64) (*tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *Store) FindByAssignee(_ context.Context, userID int64, limit int) ([]tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	ids := make([]int64, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []tasks.Task
	for _, id := range ids {
		t := s.tasks[id]
		for _, uid := range t.AssigneeIDs {
			if uid == userID {
				out = append(out, *t)
				break
			}
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Update(_ context.Context, id int64, ch tasks.Changes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return s.Err
	}
	t, ok := s.tasks[id]
	if !ok {
		return tasks.ErrNotFound
	}
	s.Updates = append(s.Updates, UpdateCall{ID: id, Changes: ch})
	applyChanges(t, ch)
	if ch.TagIDs != nil {
		t.Tags = s.tagNames(*ch.TagIDs)
	}
	return nil
}

// CreateTask stores t under the next free id.
func (s *Store) CreateTask(_ context.Context, t tasks.Task) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return 0, s.Err
	}
	var next int64 = 1
	for id := range s.tasks {
		if id >= next {
			next = id + 1
		}
	}
	cp := t
	cp.ID = next
	s.tasks[next] = &cp
	return next, nil
}

func (s *Store) EnsureTags(_ context.Context, names []string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := s.tags[name]
		if !ok {
			id = int64(len(s.tags) + 1)
			s.tags[name] = id
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) tagNames(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		for name, tid := range s.tags {
			if tid == id {
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (s *Store) PostNote(_ context.Context, id int64, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return s.Err
	}
	s.Notes = append(s.Notes, NoteCall{ID: id, Body: body})
	return nil
}

func (s *Store) FindByLogin(_ context.Context, login string) (*access.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.users[login], nil
}

// Mutations counts Update and PostNote calls.
func (s *Store) Mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Updates) + len(s.Notes)
}

func applyChanges(t *tasks.Task, ch tasks.Changes) {
	if ch.Name != nil {
		t.Name = *ch.Name
	}
	if ch.Description != nil {
		t.Description = *ch.Description
	}
	if ch.ProjectID != nil {
		t.ProjectID = *ch.ProjectID
	}
	if ch.AssigneeIDs != nil {
		t.AssigneeIDs = append([]int64(nil), (*ch.AssigneeIDs)...)
	}
	if ch.ClearDeadline {
		t.Deadline = nil
	} else if ch.Deadline != nil {
		d := *ch.Deadline
		t.Deadline = &d
	}
	if ch.Priority != nil {
		t.Priority = *ch.Priority
	}
	if ch.AIStatus != nil {
		t.AIStatus = *ch.AIStatus
	}
	if ch.KanbanState != nil {
		t.KanbanState = *ch.KanbanState
	}
	if ch.AIFeedback != nil {
		t.AIFeedback = *ch.AIFeedback
	}
}
