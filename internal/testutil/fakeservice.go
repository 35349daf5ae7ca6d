// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"tasksync/internal/service"
)

// DefaultListID is the ID used for the default list.
const DefaultListID = "@default"

// FakeGateway is an in-memory implementation of service.Gateway for testing.
type FakeGateway struct {
	mu     sync.RWMutex
	lists  []service.TaskList
	tasks  map[string][]service.Task // listID -> tasks
	nextID int
	calls  []string

	// ExpiredTokens are rejected with an auth-expired error.
	ExpiredTokens map[string]bool

	// Error injection for testing
	ListTaskListsErr error
	ListTasksErr     map[string]error // listID -> error
	CreateTaskErr    error
	UpdateTaskErr    error
	DeleteTaskErr    error
	CreateListErr    error
	DeleteListErr    error
}

// NewFakeGateway creates a new FakeGateway with a default list.
func NewFakeGateway() *FakeGateway {
	fg := &FakeGateway{
		tasks:         make(map[string][]service.Task),
		ExpiredTokens: make(map[string]bool),
		ListTasksErr:  make(map[string]error),
	}
	fg.lists = []service.TaskList{
		{ID: DefaultListID, Title: "My Tasks", IsDefault: true},
	}
	fg.tasks[DefaultListID] = nil
	return fg
}

// AuthExpired returns the error the gateway reports for a rejected token.
func AuthExpired() error {
	return &service.Error{Kind: service.KindAuthExpired, Status: http.StatusUnauthorized, Message: "Invalid Credentials"}
}

// Transient returns a server-side failure.
func Transient() error {
	return &service.Error{Kind: service.KindTransient, Status: http.StatusServiceUnavailable, Message: "Backend Error"}
}

// AddList adds a list to the fake gateway.
func (f *FakeGateway) AddList(id, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, service.TaskList{ID: id, Title: title})
	if f.tasks[id] == nil {
		f.tasks[id] = nil
	}
}

// AddTask adds a task to a list.
func (f *FakeGateway) AddTask(listID string, t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ListID = listID
	if t.Status == "" {
		t.Status = service.StatusNeedsAction
	}
	if t.Priority == 0 {
		t.Priority = service.DefaultPriority
	}
	f.tasks[listID] = append(f.tasks[listID], t)
}

// Task returns the remote copy of a task.
func (f *FakeGateway) Task(listID, taskID string) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.tasks[listID] {
		if t.ID == taskID {
			return t.Clone(), true
		}
	}
	return service.Task{}, false
}

// Calls returns the recorded calls as "Method token".
func (f *FakeGateway) Calls() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeGateway) record(method, token string) error {
	f.mu.Lock()
	f.calls = append(f.calls, method+" "+token)
	expired := f.ExpiredTokens[token]
	f.mu.Unlock()
	if expired {
		return AuthExpired()
	}
	return nil
}

// ListTaskLists implements service.Gateway.
func (f *FakeGateway) ListTaskLists(ctx context.Context, token string) ([]service.TaskList, error) {
	if err := f.record("ListTaskLists", token); err != nil {
		return nil, err
	}
	if f.ListTaskListsErr != nil {
		return nil, f.ListTaskListsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.TaskList, len(f.lists))
	copy(result, f.lists)
	return result, nil
}

// ListTasks implements service.Gateway.
func (f *FakeGateway) ListTasks(ctx context.Context, token, listID string, includeCompleted bool) ([]service.Task, error) {
	if err := f.record("ListTasks", token); err != nil {
		return nil, err
	}
	if err, ok := f.ListTasksErr[listID]; ok && err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	tasks, ok := f.tasks[listID]
	if !ok {
		return nil, service.NotFound("list not found: %s", listID)
	}
	var out []service.Task
	for _, t := range tasks {
		if includeCompleted || !t.Done() {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

// CreateTask implements service.Gateway.
func (f *FakeGateway) CreateTask(ctx context.Context, token, listID string, draft service.TaskDraft) (service.Task, error) {
	if err := f.record("CreateTask", token); err != nil {
		return service.Task{}, err
	}
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tasks[listID]; !ok {
		return service.Task{}, service.NotFound("list not found: %s", listID)
	}
	f.nextID++
	t := service.Task{
		ID:       fmt.Sprintf("srv-%d", f.nextID),
		ListID:   listID,
		Title:    draft.Title,
		Notes:    draft.Notes,
		Due:      draft.Due,
		Priority: draft.Priority,
		Status:   service.StatusNeedsAction,
	}
	if !service.ValidPriority(t.Priority) {
		t.Priority = service.DefaultPriority
	}
	f.tasks[listID] = append(f.tasks[listID], t)
	return t.Clone(), nil
}

// UpdateTask implements service.Gateway.
func (f *FakeGateway) UpdateTask(ctx context.Context, token, listID, taskID string, patch service.TaskPatch) (service.Task, error) {
	if err := f.record("UpdateTask", token); err != nil {
		return service.Task{}, err
	}
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks[listID] {
		if t.ID == taskID {
			f.tasks[listID][i] = patch.Apply(t)
			return f.tasks[listID][i].Clone(), nil
		}
	}
	return service.Task{}, service.NotFound("task not found: %s", taskID)
}

// DeleteTask implements service.Gateway.
func (f *FakeGateway) DeleteTask(ctx context.Context, token, listID, taskID string) error {
	if err := f.record("DeleteTask", token); err != nil {
		return err
	}
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	tasks := f.tasks[listID]
	for i, t := range tasks {
		if t.ID == taskID {
			f.tasks[listID] = append(tasks[:i], tasks[i+1:]...)
			return nil
		}
	}
	return service.NotFound("task not found: %s", taskID)
}

// CreateTaskList implements service.Gateway.
func (f *FakeGateway) CreateTaskList(ctx context.Context, token, title string) (service.TaskList, error) {
	if err := f.record("CreateTaskList", token); err != nil {
		return service.TaskList{}, err
	}
	if f.CreateListErr != nil {
		return service.TaskList{}, f.CreateListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	l := service.TaskList{ID: fmt.Sprintf("list-%d", f.nextID), Title: title}
	f.lists = append(f.lists, l)
	f.tasks[l.ID] = nil
	return l, nil
}

// DeleteTaskList implements service.Gateway.
func (f *FakeGateway) DeleteTaskList(ctx context.Context, token, listID string) error {
	if err := f.record("DeleteTaskList", token); err != nil {
		return err
	}
	if f.DeleteListErr != nil {
		return f.DeleteListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, l := range f.lists {
		if l.ID == listID {
			f.lists = append(f.lists[:i], f.lists[i+1:]...)
			delete(f.tasks, listID)
			return nil
		}
	}
	return service.NotFound("list not found: %s", listID)
}

// FakeTokens is an in-memory orchestrator.TokenProvider.
type FakeTokens struct {
	mu        sync.Mutex
	tokens    map[string]string // accountID -> access token
	refreshed map[string]string // accountID -> token handed out on refresh

	RefreshErr error
	Refreshes  int
}

// NewFakeTokens creates a FakeTokens.
func NewFakeTokens() *FakeTokens {
	return &FakeTokens{
		tokens:    make(map[string]string),
		refreshed: make(map[string]string),
	}
}

// Set sets the current token of an account and the one a refresh yields.
func (f *FakeTokens) Set(accountID, token, refreshed string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[accountID] = token
	f.refreshed[accountID] = refreshed
}

// Token returns the current token of an account.
func (f *FakeTokens) Token(ctx context.Context, accountID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[accountID]
	if !ok {
		return "", fmt.Errorf("no token for account %s", accountID)
	}
	return tok, nil
}

// Refresh swaps in the refreshed token of an account.
func (f *FakeTokens) Refresh(ctx context.Context, accountID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Refreshes++
	if f.RefreshErr != nil {
		return "", f.RefreshErr
	}
	tok, ok := f.refreshed[accountID]
	if !ok {
		return "", fmt.Errorf("no refresh token for account %s", accountID)
	}
	f.tokens[accountID] = tok
	return tok, nil
}
