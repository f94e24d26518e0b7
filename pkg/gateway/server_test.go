package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/taskclaw/pkg/access"
	"github.com/sipeed/taskclaw/pkg/chat"
	"github.com/sipeed/taskclaw/pkg/commands"
	"github.com/sipeed/taskclaw/pkg/config"
	"github.com/sipeed/taskclaw/pkg/ratelimit"
	"github.com/sipeed/taskclaw/pkg/store"
	"github.com/sipeed/taskclaw/pkg/tagging"
	"github.com/sipeed/taskclaw/pkg/tasks"
	"github.com/sipeed/taskclaw/pkg/wizard"
)

type fixture struct {
	handler   http.Handler
	store     *store.Store
	projectID int64
	taskID    int64
}

func newFixture(t *testing.T, limit int, opts ...func(*config.GatewayConfig)) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(filepath.Join(t.TempDir(), "taskclaw.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	projectID, err := st.CreateProject(ctx, "Website")
	require.NoError(t, err)
	require.NoError(t, st.CreateUser(ctx, &access.User{Login: "pat", Name: "Pat", Roles: []access.Role{access.RoleUser, access.RolePM}}))
	dev := &access.User{Login: "dan", Name: "Dan", Roles: []access.Role{access.RoleUser, access.RoleDev}}
	require.NoError(t, st.CreateUser(ctx, dev))
	taskID, err := st.CreateTask(ctx, tasks.Task{
		Name:        "Write the release notes draft",
		ProjectID:   projectID,
		AssigneeIDs: []int64{dev.UserID},
	})
	require.NoError(t, err)

	cfg := config.DefaultConfig().Gateway
	for _, opt := range opts {
		opt(&cfg)
	}
	d := commands.NewDispatcher(commands.NewRegistry(commands.TaskDefinitions(commands.Deps{
		Tasks:   st,
		Users:   st,
		BaseURL: cfg.PublicBaseURL(),
	})), nil)
	limiter := ratelimit.NewLimiter(ratelimit.Config{Enabled: limit > 0, CommandsPerMinute: limit})

	srv := NewServer(cfg, Deps{
		Poster: chat.NewPoster(d, st, limiter, nil),
		Wizard: wizard.New(st, tagging.KeywordSuggester{}),
		Tasks:  st,
		Users:  st,
	})
	return &fixture{handler: srv.Handler(), store: st, projectID: projectID, taskID: taskID}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealthEndpoint(t *testing.T) {
	SetVersion("1.2.3")
	f := newFixture(t, 0)

	w := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestCreateTaskRedirect(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(t, http.MethodGet, "/ai_chat/create_task", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/web#action=taskclaw.open_ai_task_wizard", w.Header().Get("Location"))
}

func TestChangeTaskRedirect(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(t, http.MethodGet, "/ai_chat/change_task?task_id=1", nil)
	require.Equal(t, http.StatusFound, w.Code)
	loc := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/web#action=taskclaw.open_ai_change_task_wizard&active_id=1&context="), loc)

	raw, err := url.QueryUnescape(loc[strings.Index(loc, "&context=")+len("&context="):])
	require.NoError(t, err)
	var prefill map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &prefill))
	assert.Equal(t, "change", prefill["default_mode"])
	assert.Equal(t, "1", prefill["default_task_id"])
	assert.Equal(t, "Write the release notes draft", prefill["default_name"])

	w = f.do(t, http.MethodGet, "/ai_chat/change_task?task_id=999", nil)
	assert.True(t, strings.HasSuffix(w.Header().Get("Location"), "&active_id=999&context=%7B%7D"))

	w = f.do(t, http.MethodGet, "/ai_chat/change_task", nil)
	assert.True(t, strings.HasSuffix(w.Header().Get("Location"), "&active_id=&context=%7B%7D"))
}

func TestMessagesEndpoint(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	w := f.do(t, http.MethodPost, "/api/messages", MessageRequest{TaskID: f.taskID, Login: "dan", Body: "<p>hello</p>"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[MessageResponse](t, w)
	assert.Equal(t, "passthrough", resp.Kind)
	assert.Equal(t, "<p>hello</p>", resp.Text)
	assert.NotEmpty(t, resp.MessageID)

	w = f.do(t, http.MethodPost, "/api/messages", MessageRequest{TaskID: f.taskID, Login: "dan", Body: "/pause_task 1"})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[MessageResponse](t, w)
	assert.Equal(t, "text", resp.Kind)
	assert.Equal(t, "Task [1]: Task paused.", resp.Text)

	task, err := f.store.FindByID(ctx, f.taskID)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusPaused, task.AIStatus)

	thread, err := f.store.Messages(ctx, f.taskID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, "Task paused.", thread[1].Body, "handler note lands before the substituted reply")
	assert.Equal(t, "Task [1]: Task paused.", thread[2].Body)

	w = f.do(t, http.MethodPost, "/api/messages", MessageRequest{TaskID: f.taskID, Login: "dan", Body: "/create_task"})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[MessageResponse](t, w)
	assert.Equal(t, "action", resp.Kind)
	require.NotNil(t, resp.Action)
	assert.Equal(t, wizard.CreateActionName, resp.Action.Name)
}

func TestMessagesEndpoint_Errors(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(t, http.MethodPost, "/api/messages", MessageRequest{TaskID: f.taskID, Login: "ghost", Body: "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found: ghost", decode[ErrorResponse](t, w).Error)

	w = f.do(t, http.MethodPost, "/api/messages", MessageRequest{TaskID: 999, Login: "dan", Body: "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/messages", MessageRequest{Login: "dan", Body: "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	w = f.do(t, http.MethodGet, "/api/messages", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMessagesEndpoint_RateLimited(t *testing.T) {
	f := newFixture(t, 1)

	w := f.do(t, http.MethodPost, "/api/messages", MessageRequest{TaskID: f.taskID, Login: "dan", Body: "/ai_help"})
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodPost, "/api/messages", MessageRequest{TaskID: f.taskID, Login: "dan", Body: "/ai_help"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestWizardEndpoint(t *testing.T) {
	f := newFixture(t, 0)
	deadline := time.Now().AddDate(0, 0, 7).Format("2006-01-02")

	form := wizard.Form{
		ProjectID:   f.projectID,
		Name:        "Fix the login page redirect",
		Description: "A bug in the redirect",
		UserID:      2,
		Deadline:    deadline,
	}
	w := f.do(t, http.MethodPost, "/api/wizard", WizardRequest{Login: "pat", Form: form})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode[WizardResponse](t, w).TaskID

	task, err := f.store.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, []string{"bug"}, task.Tags)
	assert.Equal(t, "Task created via AI wizard. Suggested tags: bug", task.AIFeedback)

	bad := form
	bad.Name = "Too short"
	w = f.do(t, http.MethodPost, "/api/wizard", WizardRequest{Login: "pat", Form: bad})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Title must contain at least 5 words.", decode[ErrorResponse](t, w).Error)

	other, err := f.store.CreateProject(context.Background(), "Mobile")
	require.NoError(t, err)
	move := form
	move.Mode = wizard.ModeChange
	move.TaskID = f.taskID
	move.ProjectID = other
	w = f.do(t, http.MethodPost, "/api/wizard", WizardRequest{Login: "dan", Form: move})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/api/wizard", WizardRequest{Login: "pat", Form: move})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPrefillEndpoint(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(t, http.MethodGet, "/api/tasks/1/prefill", nil)
	require.Equal(t, http.StatusOK, w.Code)
	form := decode[wizard.Form](t, w)
	assert.Equal(t, wizard.ModeChange, form.Mode)
	assert.Equal(t, f.taskID, form.TaskID)
	assert.Equal(t, int64(2), form.UserID)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/tasks/999/prefill", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/tasks/x/prefill", nil).Code)
}

func TestAuth_ChangeTaskRedirectNeedsToken(t *testing.T) {
	f := newFixture(t, 0, func(c *config.GatewayConfig) { c.APIKey = "secret" })

	w := f.do(t, http.MethodGet, "/ai_chat/change_task?task_id=1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	assert.NotContains(t, w.Body.String(), "release notes")

	w = f.do(t, http.MethodGet, "/ai_chat/change_task?task_id=1&access_token=secret", nil)
	assert.Equal(t, http.StatusFound, w.Code)

	assert.Equal(t, http.StatusFound, f.do(t, http.MethodGet, "/ai_chat/create_task", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/tasks/1/prefill", nil).Code)
}

func TestTaskActionEndpoint(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	w := f.do(t, http.MethodPost, "/api/tasks/1/actions/return", ActionRequest{Login: "pat"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[ActionResponse](t, w)
	assert.Equal(t, f.taskID, resp.TaskID)
	assert.Equal(t, "return", resp.Action)

	task, err := f.store.FindByID(ctx, f.taskID)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusNeedsReview, task.AIStatus)
	thread, err := f.store.Messages(ctx, f.taskID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, "#needs_review: Task was returned to PM.", thread[0].Body)

	w = f.do(t, http.MethodPost, "/api/tasks/1/actions/complete", ActionRequest{Login: "dan"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	task, err = f.store.FindByID(ctx, f.taskID)
	require.NoError(t, err)
	assert.Equal(t, tasks.KanbanDone, task.KanbanState)
}

func TestTaskActionEndpoint_Errors(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(t, http.MethodPost, "/api/tasks/1/actions/approve", ActionRequest{Login: "dan"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(t, http.MethodPost, "/api/tasks/1/actions/complete", ActionRequest{Login: "pat"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	thread, err := f.store.Messages(context.Background(), f.taskID)
	require.NoError(t, err)
	assert.Empty(t, thread, "denied actions must not write")

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/tasks/1/actions/archive", ActionRequest{Login: "pat"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/tasks/x/actions/pause", ActionRequest{Login: "pat"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/tasks/1/actions/pause", ActionRequest{}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/tasks/1/actions/pause", ActionRequest{Login: "ghost"}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/tasks/999/actions/pause", ActionRequest{Login: "pat"}).Code)
}
