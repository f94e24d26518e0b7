package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sipeed/taskclaw/pkg/chat"
	"github.com/sipeed/taskclaw/pkg/commands"
	"github.com/sipeed/taskclaw/pkg/logger"
	"github.com/sipeed/taskclaw/pkg/tasks"
	"github.com/sipeed/taskclaw/pkg/wizard"
)

type MessageRequest struct {
	TaskID int64  `json:"task_id"`
	Login  string `json:"login"`
	Body   string `json:"body"`
}

type MessageResponse struct {
	Kind      string             `json:"kind"`
	Text      string             `json:"text,omitempty"`
	Action    *commands.UIAction `json:"action,omitempty"`
	MessageID string             `json:"message_id,omitempty"`
}

type WizardRequest struct {
	Login string      `json:"login"`
	Form  wizard.Form `json:"form"`
}

type WizardResponse struct {
	TaskID int64 `json:"task_id"`
}

type ActionRequest struct {
	Login string `json:"login"`
}

type ActionResponse struct {
	TaskID int64  `json:"task_id"`
	Action string `json:"action"`
	Note   string `json:"note"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: apiVersion})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TaskID == 0 || req.Login == "" {
		writeError(w, http.StatusBadRequest, "task_id and login are required")
		return
	}

	ctx := r.Context()
	user, err := s.deps.Users.FindByLogin(ctx, req.Login)
	if err != nil {
		s.internalError(w, "User lookup failed", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found: "+req.Login)
		return
	}
	task, err := s.deps.Tasks.FindByID(ctx, req.TaskID)
	if err != nil {
		s.internalError(w, "Task lookup failed", err)
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "Task not found: "+strconv.FormatInt(req.TaskID, 10))
		return
	}

	res, err := s.deps.Poster.Post(ctx, chat.Message{TaskID: task.ID, Author: user, Body: req.Body})
	if errors.Is(err, chat.ErrRateLimited) {
		writeError(w, http.StatusTooManyRequests, "too many commands")
		return
	}
	if err != nil {
		s.internalError(w, "Post failed", err)
		return
	}

	resp := MessageResponse{
		Kind:      res.Reply.Kind.String(),
		Text:      res.Body,
		Action:    res.Reply.Action,
		MessageID: res.MessageID,
	}
	if res.Failed {
		resp.Kind = "error"
		resp.Text = res.Reply.Text
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWizard(w http.ResponseWriter, r *http.Request) {
	var req WizardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	user, err := s.deps.Users.FindByLogin(ctx, req.Login)
	if err != nil {
		s.internalError(w, "User lookup failed", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found: "+req.Login)
		return
	}

	id, err := s.deps.Wizard.Submit(ctx, user, req.Form)
	switch {
	case errors.Is(err, tasks.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tasks.ErrAccess):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, tasks.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.internalError(w, "Wizard submit failed", err)
	default:
		writeJSON(w, http.StatusOK, WizardResponse{TaskID: id})
	}
}

func (s *Server) handlePrefill(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID.")
		return
	}
	task, err := s.deps.Tasks.FindByID(r.Context(), id)
	if err != nil {
		s.internalError(w, "Task lookup failed", err)
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "Task not found: "+strconv.FormatInt(id, 10))
		return
	}
	writeJSON(w, http.StatusOK, wizard.Prefill(task))
}

func (s *Server) handleTaskAction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID.")
		return
	}
	action, ok := tasks.Actions[r.PathValue("name")]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown action: "+r.PathValue("name"))
		return
	}
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Login == "" {
		writeError(w, http.StatusBadRequest, "login is required")
		return
	}

	ctx := r.Context()
	user, err := s.deps.Users.FindByLogin(ctx, req.Login)
	if err != nil {
		s.internalError(w, "User lookup failed", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found: "+req.Login)
		return
	}
	if !action.Allowed(user) {
		logger.InfoCF("gateway", "Task action denied", map[string]any{
			"action": action.Name,
			"user":   user.UserID,
		})
		writeError(w, http.StatusForbidden, "You don't have access to this action.")
		return
	}
	task, err := s.deps.Tasks.FindByID(ctx, id)
	if err != nil {
		s.internalError(w, "Task lookup failed", err)
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "Task not found: "+strconv.FormatInt(id, 10))
		return
	}

	if err := action.Apply(ctx, s.deps.Tasks, task.ID); err != nil {
		s.internalError(w, "Task action failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ActionResponse{TaskID: task.ID, Action: action.Name, Note: action.Note})
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	logger.ErrorCF("gateway", msg, map[string]any{"error": err.Error()})
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, ErrorResponse{Error: message, Code: code})
}
