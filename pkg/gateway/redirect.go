package gateway

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sipeed/taskclaw/pkg/logger"
	"github.com/sipeed/taskclaw/pkg/wizard"
)

func (s *Server) handleCreateTaskRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/web#action="+wizard.CreateActionName, http.StatusFound)
}

// handleChangeTaskRedirect opens the change wizard prefilled from the
// task. A missing or unknown task id yields an empty context.
func (s *Server) handleChangeTaskRedirect(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("task_id")
	prefill := map[string]string{}

	if id, err := strconv.ParseInt(rawID, 10, 64); err == nil {
		task, err := s.deps.Tasks.FindByID(r.Context(), id)
		if err != nil {
			logger.ErrorCF("gateway", "Task lookup failed", map[string]any{"task_id": id, "error": err.Error()})
		} else if task != nil {
			prefill = wizard.PrefillContext(task)
		}
	}

	ctxJSON, _ := json.Marshal(prefill)
	target := "/web#action=" + wizard.ChangeActionName +
		"&active_id=" + url.QueryEscape(rawID) +
		"&context=" + url.QueryEscape(string(ctxJSON))
	http.Redirect(w, r, target, http.StatusFound)
}
