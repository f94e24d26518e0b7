package commands

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/sipeed/taskclaw/pkg/tasks"
	"github.com/sipeed/taskclaw/pkg/wizard"
)

type taskHandlers struct {
	deps Deps
}

func helpHandler(_ context.Context, req Request) (Reply, error) {
	defs := req.Registry.Available(req.Author)
	return Text(FormatHelpMessage(req.T("*Available AI Commands*:"), defs)), nil
}

func (h *taskHandlers) listTasks(ctx context.Context, req Request) (Reply, error) {
	list, err := h.deps.Tasks.FindByAssignee(ctx, authorID(req.Author), h.deps.ListLimit)
	if err != nil {
		return Reply{}, err
	}
	if len(list) == 0 {
		return Text(req.T("No tasks found.")), nil
	}

	lines := make([]string, 0, len(list))
	for _, t := range list {
		line := fmt.Sprintf("[%d] %s", t.ID, html.EscapeString(t.Name))
		if t.StageName != "" {
			line += fmt.Sprintf(" (%s)", html.EscapeString(t.StageName))
		}
		lines = append(lines, line)
	}
	return Text(strings.Join(lines, "<br/>")), nil
}

func (h *taskHandlers) createTask(_ context.Context, req Request) (Reply, error) {
	return OpenUI(UIAction{
		Name:  wizard.CreateActionName,
		URL:   h.deps.BaseURL + "/ai_chat/create_task",
		Label: req.T("Create Task Wizard"),
	}), nil
}

func (h *taskHandlers) changeTask(ctx context.Context, req Request) (Reply, error) {
	task, stop, err := h.loadTask(ctx, req, "Usage: /change_task <id>")
	if stop != nil || err != nil {
		return deref(stop), err
	}

	id := strconv.FormatInt(task.ID, 10)
	return OpenUI(UIAction{
		Name:    wizard.ChangeActionName,
		URL:     h.deps.BaseURL + "/ai_chat/change_task?task_id=" + url.QueryEscape(id),
		Label:   req.T("Click here to edit Task %s via wizard", id),
		TaskID:  task.ID,
		Context: wizard.PrefillContext(task),
	}), nil
}

func (h *taskHandlers) editTask(ctx context.Context, req Request) (Reply, error) {
	task, stop, err := h.loadTask(ctx, req, "Usage: /edit_task <id>")
	if stop != nil || err != nil {
		return deref(stop), err
	}

	id := strconv.FormatInt(task.ID, 10)
	return Text(fmt.Sprintf(
		`<a href="/ai_chat/change_task?task_id=%s" target="_blank">%s</a>`,
		id, req.T("Edit Task %s via wizard", id),
	)), nil
}

// setStatus overwrites ai_status unconditionally; there are no transition
// guards between statuses. message returns the localized note text.
func (h *taskHandlers) setStatus(status tasks.AIStatus, message func(Request) string) Handler {
	return func(ctx context.Context, req Request) (Reply, error) {
		task, stop, err := h.loadTask(ctx, req, "Usage: "+req.Command+" <id>")
		if stop != nil || err != nil {
			return deref(stop), err
		}

		msg := message(req)
		if err := h.deps.Tasks.Update(ctx, task.ID, tasks.Changes{AIStatus: tasks.Ptr(status)}); err != nil {
			return Reply{}, err
		}
		if err := h.deps.Tasks.PostNote(ctx, task.ID, msg); err != nil {
			return Reply{}, err
		}
		return Text(req.T("Task [%s]: %s", strconv.FormatInt(task.ID, 10), msg)), nil
	}
}

func (h *taskHandlers) completeTask(ctx context.Context, req Request) (Reply, error) {
	task, stop, err := h.loadTask(ctx, req, "Usage: /complete_task <id>")
	if stop != nil || err != nil {
		return deref(stop), err
	}

	if err := h.deps.Tasks.Update(ctx, task.ID, tasks.Changes{KanbanState: tasks.Ptr(tasks.KanbanDone)}); err != nil {
		return Reply{}, err
	}
	if err := h.deps.Tasks.PostNote(ctx, task.ID, req.T("Task marked as completed.")); err != nil {
		return Reply{}, err
	}
	return Text(req.T("Task [%s] marked as done.", strconv.FormatInt(task.ID, 10))), nil
}

func (h *taskHandlers) assignTask(ctx context.Context, req Request) (Reply, error) {
	if len(req.Args) < 2 {
		return Text("Usage: /assign_task <id> @username"), nil
	}
	id, ok := parseTaskID(req.Args[0])
	if !ok {
		return Text(req.T("Invalid task ID.")), nil
	}

	login := strings.TrimLeft(req.Args[1], "@")
	user, err := h.deps.Users.FindByLogin(ctx, login)
	if err != nil {
		return Reply{}, err
	}
	if user == nil {
		return Text(req.T("User not found: %s", login)), nil
	}

	task, err := h.deps.Tasks.FindByID(ctx, id)
	if err != nil {
		return Reply{}, err
	}
	if task == nil {
		return Text(req.T("Task not found: %s", strconv.FormatInt(id, 10))), nil
	}

	if err := h.deps.Tasks.Update(ctx, task.ID, tasks.Changes{AssigneeIDs: &[]int64{user.UserID}}); err != nil {
		return Reply{}, err
	}
	name := html.EscapeString(user.Name)
	if err := h.deps.Tasks.PostNote(ctx, task.ID, req.T("Task reassigned to %s.", name)); err != nil {
		return Reply{}, err
	}
	return Text(req.T("Task [%s] reassigned to %s.", strconv.FormatInt(task.ID, 10), name)), nil
}

func (h *taskHandlers) commentTask(ctx context.Context, req Request) (Reply, error) {
	if len(req.Args) < 2 {
		return Text("Usage: /comment_task <id> <text>"), nil
	}
	task, stop, err := h.loadTask(ctx, req, "")
	if stop != nil || err != nil {
		return deref(stop), err
	}

	comment := strings.Join(req.Args[1:], " ")
	if err := h.deps.Tasks.PostNote(ctx, task.ID, comment); err != nil {
		return Reply{}, err
	}
	return Text(req.T("Comment added to Task [%s].", strconv.FormatInt(task.ID, 10))), nil
}

// loadTask validates args[0] as a task id and fetches the task. A non-nil
// stop reply ends the command before any write.
func (h *taskHandlers) loadTask(ctx context.Context, req Request, usage string) (*tasks.Task, *Reply, error) {
	if len(req.Args) == 0 {
		r := Text(usage)
		return nil, &r, nil
	}
	id, ok := parseTaskID(req.Args[0])
	if !ok {
		r := Text(req.T("Invalid task ID."))
		return nil, &r, nil
	}

	task, err := h.deps.Tasks.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		r := Text(req.T("Task not found: %s", strconv.FormatInt(id, 10)))
		return nil, &r, nil
	}
	return task, nil, nil
}

func parseTaskID(arg string) (int64, bool) {
	id, err := strconv.ParseInt(arg, 10, 64)
	return id, err == nil
}

func deref(r *Reply) Reply {
	if r == nil {
		return Reply{}
	}
	return *r
}
