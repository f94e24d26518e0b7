package commands

import (
	"fmt"
	"strings"

	"github.com/sipeed/taskclaw/pkg/access"
	"github.com/sipeed/taskclaw/pkg/config"
	"github.com/sipeed/taskclaw/pkg/tasks"
)

// Deps are the collaborators the built-in task commands call into.
type Deps struct {
	Tasks     tasks.Store
	Users     tasks.UserDirectory
	BaseURL   string
	ListLimit int
}

var (
	rolesUser  = []access.Role{access.RoleUser}
	rolesPM    = []access.Role{access.RolePM}
	rolesDev   = []access.Role{access.RoleDev}
	rolesPMDev = []access.Role{access.RolePM, access.RoleDev}
)

// TaskDefinitions returns the chat command table in help order.
func TaskDefinitions(deps Deps) []Definition {
	if deps.ListLimit <= 0 {
		deps.ListLimit = config.DefaultListLimit
	}
	h := &taskHandlers{deps: deps}

	return []Definition{
		{
			Name:        "list_tasks",
			Description: "Show your tasks",
			Usage:       "/list_tasks",
			Roles:       rolesUser,
			Handler:     h.listTasks,
		},
		{
			Name:        "create_task",
			Description: "Create new task",
			Usage:       "/create_task",
			Roles:       rolesUser,
			Handler:     h.createTask,
		},
		{
			Name:        "change_task",
			Description: "Update task fields",
			Usage:       "/change_task <id>",
			Roles:       rolesPM,
			Handler:     h.changeTask,
		},
		{
			Name:        "edit_task",
			Description: "Edit returned task",
			Usage:       "/edit_task <id>",
			Roles:       rolesPMDev,
			Handler:     h.editTask,
		},
		{
			Name:        "pause_task",
			Description: "Pause task",
			Usage:       "/pause_task <id>",
			Roles:       rolesPMDev,
			Handler:     h.setStatus(tasks.StatusPaused, func(r Request) string { return r.T("Task paused.") }),
		},
		{
			Name:        "resume_task",
			Description: "Resume paused task",
			Usage:       "/resume_task <id>",
			Roles:       rolesPMDev,
			Handler:     h.setStatus(tasks.StatusNone, func(r Request) string { return r.T("Task resumed.") }),
		},
		{
			Name:        "cancel_task",
			Description: "Cancel task",
			Usage:       "/cancel_task <id>",
			Roles:       rolesPMDev,
			Handler:     h.setStatus(tasks.StatusCancelled, func(r Request) string { return r.T("Task cancelled.") }),
		},
		{
			Name:        "complete_task",
			Description: "Mark task as completed",
			Usage:       "/complete_task <id>",
			Roles:       rolesDev,
			Handler:     h.completeTask,
		},
		{
			Name:        "return_task",
			Description: "Return task to PM",
			Usage:       "/return_task <id>",
			Roles:       rolesPM,
			Handler:     h.setStatus(tasks.StatusNeedsReview, func(r Request) string { return r.T("Task sent back to PM for review.") }),
		},
		{
			Name:        "approve_task",
			Description: "Approve task",
			Usage:       "/approve_task <id>",
			Roles:       rolesPM,
			Handler:     h.setStatus(tasks.StatusNone, func(r Request) string { return r.T("Task approved by PM.") }),
		},
		{
			Name:        "assign_task",
			Description: "Reassign task to another user",
			Usage:       "/assign_task <id> @username",
			Roles:       rolesPM,
			Handler:     h.assignTask,
		},
		{
			Name:        "comment_task",
			Description: "Add a comment to task",
			Usage:       "/comment_task <id> <text>",
			Roles:       rolesPMDev,
			Handler:     h.commentTask,
		},
		{
			Name:        "ai_help",
			Description: "Show available commands",
			Usage:       "/ai_help",
			Roles:       rolesUser,
			Handler:     helpHandler,
		},
	}
}

// FormatHelpMessage renders the commands visible to one author.
func FormatHelpMessage(title string, defs []Definition) string {
	lines := make([]string, 0, len(defs))
	for _, def := range defs {
		desc := def.Description
		if desc == "" {
			desc = "No description"
		}
		lines = append(lines, fmt.Sprintf("%s — %s", def.Token(), desc))
	}
	return title + "<br/>" + strings.Join(lines, "<br/>")
}
