// Package web serves the local JSON API over a session.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"tasksync/internal/service"
	"tasksync/internal/session"
	"tasksync/internal/store"
)

const dateLayout = "2006-01-02"

// AccountView is the public shape of an account. Tokens never leave the process.
type AccountView struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Image   string `json:"image,omitempty"`
	Default bool   `json:"default"`
}

// ListView is the JSON shape of a task list.
type ListView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	AccountID string `json:"accountId"`
	Default   bool   `json:"default"`
}

// TaskView is the JSON shape of a task.
type TaskView struct {
	ID        string `json:"id"`
	ListID    string `json:"listId"`
	AccountID string `json:"accountId"`
	Title     string `json:"title"`
	Notes     string `json:"notes,omitempty"`
	Due       string `json:"due,omitempty"`
	Priority  int    `json:"priority"`
	Completed bool   `json:"completed"`
	Pending   bool   `json:"pending,omitempty"`
}

// TaskController handles HTTP requests for tasks, lists and accounts.
type TaskController struct {
	Session *session.Session
	Log     zerolog.Logger
}

// NewTaskController creates a new TaskController.
func NewTaskController(s *session.Session) *TaskController {
	return &TaskController{Session: s, Log: s.Log}
}

// GetAccounts handles GET /api/accounts.
func (c *TaskController) GetAccounts(w http.ResponseWriter, r *http.Request) {
	def, _ := c.Session.DefaultAccount()
	accounts := c.Session.Accounts.All()
	out := make([]AccountView, len(accounts))
	for i, a := range accounts {
		out[i] = AccountView{ID: a.ID, Email: a.Email, Name: a.Name, Image: a.Image, Default: a.ID == def.ID}
	}
	writeJSON(w, http.StatusOK, out)
}

// GetLists handles GET /api/lists.
func (c *TaskController) GetLists(w http.ResponseWriter, r *http.Request) {
	var lists []service.TaskList
	if account := r.URL.Query().Get("account"); account != "" {
		lists = c.Session.Tasks.ListsByAccount(account)
	} else {
		lists = c.Session.Tasks.Lists()
	}
	out := make([]ListView, len(lists))
	for i, l := range lists {
		out[i] = ListView{ID: l.ID, Title: l.Title, AccountID: l.AccountID, Default: l.IsDefault}
	}
	writeJSON(w, http.StatusOK, out)
}

// GetTasks handles GET /api/tasks.
func (c *TaskController) GetTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := c.Session.Now()

	var tasks []service.Task
	switch q.Get("view") {
	case "today":
		tasks = c.Session.Tasks.Today(now)
	case "week":
		tasks = c.Session.Tasks.Next7Days(now)
	case "", "all":
		tasks = c.Session.Tasks.All()
	default:
		writeError(w, http.StatusBadRequest, "unknown view: "+q.Get("view"))
		return
	}

	tasks = filter(tasks, func(t service.Task) bool {
		if list := q.Get("list"); list != "" && t.ListID != list {
			return false
		}
		if account := q.Get("account"); account != "" && t.AccountID != account {
			return false
		}
		return true
	})
	store.Sort(tasks)

	out := make([]TaskView, len(tasks))
	for i, t := range tasks {
		out[i] = taskView(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateTask handles POST /api/tasks.
func (c *TaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text      string `json:"text"`
		ListID    string `json:"listId"`
		AccountID string `json:"accountId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	accountID := req.AccountID
	if accountID == "" {
		if l, ok := c.Session.Tasks.List(req.ListID); ok {
			accountID = l.AccountID
		} else if a, ok := c.Session.DefaultAccount(); ok {
			accountID = a.ID
		}
	}

	task, err := c.Session.Sync.QuickAdd(r.Context(), req.Text, accountID, req.ListID)
	if err != nil {
		c.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, taskView(task))
}

// UpdateTask handles PATCH /api/tasks/{taskID}.
func (c *TaskController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	var req struct {
		Title     *string `json:"title"`
		Notes     *string `json:"notes"`
		Due       *string `json:"due"`
		Priority  *int    `json:"priority"`
		Completed *bool   `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	patch := service.TaskPatch{Title: req.Title, Notes: req.Notes, Priority: req.Priority}
	if req.Due != nil {
		if *req.Due == "" {
			patch.ClearDue = true
		} else {
			d, err := time.ParseInLocation(dateLayout, *req.Due, c.Session.Now().Location())
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid due date: "+*req.Due)
				return
			}
			patch.Due = &d
		}
	}
	if req.Completed != nil {
		status := service.StatusNeedsAction
		if *req.Completed {
			status = service.StatusCompleted
		}
		patch.Status = &status
	}

	if err := c.Session.Sync.UpdateTask(r.Context(), taskID, patch); err != nil {
		c.fail(w, err)
		return
	}
	c.writeTask(w, taskID)
}

// ToggleTask handles POST /api/tasks/{taskID}/toggle.
func (c *TaskController) ToggleTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	if err := c.Session.Sync.ToggleCompleted(r.Context(), taskID); err != nil {
		c.fail(w, err)
		return
	}
	c.writeTask(w, taskID)
}

// DeleteTask handles DELETE /api/tasks/{taskID}.
func (c *TaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	if err := c.Session.Sync.DeleteTask(r.Context(), taskID); err != nil {
		c.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /api/refresh.
func (c *TaskController) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := c.Session.Sync.LoadAll(r.Context()); err != nil {
		c.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *TaskController) writeTask(w http.ResponseWriter, taskID string) {
	t, ok := c.Session.Tasks.Get(taskID)
	if !ok {
		writeError(w, http.StatusNotFound, "task not found: "+taskID)
		return
	}
	writeJSON(w, http.StatusOK, taskView(t))
}

// fail maps an orchestrator error to a status code.
func (c *TaskController) fail(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, service.ErrSessionExpired):
		status = http.StatusUnauthorized
	case service.IsValidation(err):
		status = http.StatusBadRequest
	case service.IsNotFound(err):
		status = http.StatusNotFound
	}
	if status >= 500 {
		c.Log.Error().Err(err).Msg("request failed")
	}
	writeError(w, status, err.Error())
}

func taskView(t service.Task) TaskView {
	v := TaskView{
		ID:        t.ID,
		ListID:    t.ListID,
		AccountID: t.AccountID,
		Title:     t.Title,
		Notes:     t.Notes,
		Priority:  t.Priority,
		Completed: t.Done(),
		Pending:   t.Pending,
	}
	if t.Due != nil {
		v.Due = t.Due.Format(dateLayout)
	}
	return v
}

func filter(tasks []service.Task, keep func(service.Task) bool) []service.Task {
	out := tasks[:0]
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
