// Package orchestrator applies task mutations optimistically.
//
// Every mutation changes the local store first, then calls the remote
// gateway. When the call fails the exact prior state is put back. Only this
// package interprets gateway error kinds: an auth-expired failure triggers
// one token refresh and one retry, everything else rolls back.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tasksync/internal/intake"
	"tasksync/internal/service"
	"tasksync/internal/store"
)

// TempIDPrefix marks task records the server has not confirmed yet.
const TempIDPrefix = "tmp-"

// TokenProvider supplies bearer tokens per account.
type TokenProvider interface {
	// Token returns the current access token of an account.
	Token(ctx context.Context, accountID string) (string, error)

	// Refresh obtains a new access token after the current one was rejected.
	Refresh(ctx context.Context, accountID string) (string, error)
}

// Op names the kind of mutation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// State is the lifecycle of one mutation.
type State int

const (
	Pending State = iota
	Confirmed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Mutation records one optimistic change and how it settled.
type Mutation struct {
	ID        string
	Op        Op
	TaskID    string
	AccountID string
	State     State
	Err       error
}

// Orchestrator owns all writes to the task store after the initial load.
type Orchestrator struct {
	tasks    *store.Tasks
	accounts *store.Accounts
	gateway  service.Gateway
	tokens   TokenProvider

	log              zerolog.Logger
	now              func() time.Time
	includeCompleted bool
	onSettle         func(Mutation)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithClock sets the time source used for relative dates and completion stamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithCompleted makes Load fetch completed tasks too.
func WithCompleted(include bool) Option {
	return func(o *Orchestrator) { o.includeCompleted = include }
}

// WithSettleHook registers fn to receive every settled mutation.
func WithSettleHook(fn func(Mutation)) Option {
	return func(o *Orchestrator) { o.onSettle = fn }
}

// New creates an Orchestrator.
func New(tasks *store.Tasks, accounts *store.Accounts, gw service.Gateway, tokens TokenProvider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tasks:    tasks,
		accounts: accounts,
		gateway:  gw,
		tokens:   tokens,
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// mutate runs the shared optimistic protocol: forward is applied before the
// network call, inverse after a failed one.
func (o *Orchestrator) mutate(ctx context.Context, m *Mutation, forward, inverse func(), call func(ctx context.Context, token string) error) error {
	m.ID = uuid.NewString()
	m.State = Pending

	forward()
	o.log.Debug().
		Str("mutation", m.ID).
		Str("op", string(m.Op)).
		Str("task", m.TaskID).
		Msg("mutation pending")

	err := o.withToken(ctx, m.AccountID, call)
	if err != nil {
		inverse()
		m.State = RolledBack
		m.Err = err
		o.log.Warn().
			Str("mutation", m.ID).
			Str("op", string(m.Op)).
			Str("task", m.TaskID).
			Err(err).
			Msg("mutation rolled back")
	} else {
		m.State = Confirmed
		o.log.Debug().
			Str("mutation", m.ID).
			Str("op", string(m.Op)).
			Str("task", m.TaskID).
			Msg("mutation confirmed")
	}

	if o.onSettle != nil {
		o.onSettle(*m)
	}
	return err
}

// withToken runs call with the account's token. An auth-expired failure is
// retried once with a refreshed token; a second one ends the session.
func (o *Orchestrator) withToken(ctx context.Context, accountID string, call func(ctx context.Context, token string) error) error {
	token, err := o.tokens.Token(ctx, accountID)
	if err != nil {
		return fmt.Errorf("%w: %w", service.ErrSessionExpired, err)
	}

	err = call(ctx, token)
	if !service.IsAuthExpired(err) {
		return err
	}

	o.log.Debug().Str("account", accountID).Msg("token rejected, refreshing")
	token, rerr := o.tokens.Refresh(ctx, accountID)
	if rerr != nil {
		return fmt.Errorf("%w: %w", service.ErrSessionExpired, rerr)
	}

	err = call(ctx, token)
	if service.IsAuthExpired(err) {
		return fmt.Errorf("%w: %w", service.ErrSessionExpired, err)
	}
	return err
}

// CreateTask inserts a pending record, creates the task remotely and swaps
// the pending record for the server-confirmed one.
// An empty listID means the account's default list.
func (o *Orchestrator) CreateTask(ctx context.Context, accountID, listID string, draft service.TaskDraft) (service.Task, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return service.Task{}, service.Validation("title required")
	}
	if draft.Priority == 0 {
		draft.Priority = service.DefaultPriority
	}
	if !service.ValidPriority(draft.Priority) {
		return service.Task{}, service.Validation("invalid priority: %d", draft.Priority)
	}
	list, err := o.resolveList(accountID, listID)
	if err != nil {
		return service.Task{}, err
	}

	temp := service.Task{
		ID:        TempIDPrefix + uuid.NewString(),
		ListID:    list.ID,
		AccountID: accountID,
		Title:     draft.Title,
		Notes:     draft.Notes,
		Due:       draft.Due,
		Priority:  draft.Priority,
		Status:    service.StatusNeedsAction,
		Pending:   true,
	}

	var created service.Task
	m := &Mutation{Op: OpCreate, TaskID: temp.ID, AccountID: accountID}
	err = o.mutate(ctx, m,
		func() { o.tasks.Put(temp) },
		func() { o.tasks.Remove(temp.ID) },
		func(ctx context.Context, token string) error {
			t, err := o.gateway.CreateTask(ctx, token, list.ID, draft)
			if err != nil {
				return err
			}
			t.AccountID = accountID
			t.ListID = list.ID
			created = t
			o.tasks.Swap(temp.ID, created)
			return nil
		},
	)
	if err != nil {
		return service.Task{}, err
	}
	return created, nil
}

// QuickAdd parses one line of text and creates the task it describes.
// A matched #account tag overrides fallbackAccountID; when the chosen account
// does not own listID, its default list is used.
func (o *Orchestrator) QuickAdd(ctx context.Context, text, fallbackAccountID, listID string) (service.Task, error) {
	res := intake.Parse(text, o.accounts.Refs(), o.now())
	if res.Title == "" {
		return service.Task{}, service.Validation("title required")
	}

	accountID := res.AccountID
	if accountID == "" {
		accountID = fallbackAccountID
	}
	if l, ok := o.tasks.List(listID); !ok || l.AccountID != accountID {
		listID = ""
	}

	return o.CreateTask(ctx, accountID, listID, service.TaskDraft{
		Title:    res.Title,
		Due:      res.Due,
		Priority: res.Priority,
	})
}

// UpdateTask applies patch locally, then remotely; on failure the prior
// record is restored.
func (o *Orchestrator) UpdateTask(ctx context.Context, taskID string, patch service.TaskPatch) error {
	prior, err := o.confirmedTask(taskID)
	if err != nil {
		return err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return service.Validation("title required")
		}
		patch.Title = &title
	}
	if patch.Priority != nil && !service.ValidPriority(*patch.Priority) {
		return service.Validation("invalid priority: %d", *patch.Priority)
	}

	next := patch.Apply(prior)
	if next.Done() && !prior.Done() {
		ts := o.now()
		next.Completed = &ts
	}

	m := &Mutation{Op: OpUpdate, TaskID: taskID, AccountID: prior.AccountID}
	return o.mutate(ctx, m,
		func() { o.tasks.Put(next) },
		func() { o.tasks.Put(prior) },
		func(ctx context.Context, token string) error {
			_, err := o.gateway.UpdateTask(ctx, token, prior.ListID, taskID, patch)
			return err
		},
	)
}

// SetCompleted marks a task completed or reopens it.
func (o *Orchestrator) SetCompleted(ctx context.Context, taskID string, done bool) error {
	status := service.StatusNeedsAction
	if done {
		status = service.StatusCompleted
	}
	return o.UpdateTask(ctx, taskID, service.TaskPatch{Status: &status})
}

// ToggleCompleted flips the completion state of a task.
func (o *Orchestrator) ToggleCompleted(ctx context.Context, taskID string) error {
	t, err := o.confirmedTask(taskID)
	if err != nil {
		return err
	}
	return o.SetCompleted(ctx, taskID, !t.Done())
}

// SetPriority changes the priority of a task.
func (o *Orchestrator) SetPriority(ctx context.Context, taskID string, priority int) error {
	return o.UpdateTask(ctx, taskID, service.TaskPatch{Priority: &priority})
}

// DeleteTask removes a task locally, then remotely; on failure the record
// is put back.
func (o *Orchestrator) DeleteTask(ctx context.Context, taskID string) error {
	prior, err := o.confirmedTask(taskID)
	if err != nil {
		return err
	}

	m := &Mutation{Op: OpDelete, TaskID: taskID, AccountID: prior.AccountID}
	return o.mutate(ctx, m,
		func() { o.tasks.Remove(taskID) },
		func() { o.tasks.Put(prior) },
		func(ctx context.Context, token string) error {
			return o.gateway.DeleteTask(ctx, token, prior.ListID, taskID)
		},
	)
}

// CreateList creates a task list and adds it to the store once confirmed.
func (o *Orchestrator) CreateList(ctx context.Context, accountID, title string) (service.TaskList, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return service.TaskList{}, service.Validation("list name required")
	}
	if _, ok := o.accounts.Get(accountID); !ok {
		return service.TaskList{}, service.Validation("unknown account: %s", accountID)
	}

	var created service.TaskList
	err := o.withToken(ctx, accountID, func(ctx context.Context, token string) error {
		l, err := o.gateway.CreateTaskList(ctx, token, title)
		created = l
		return err
	})
	if err != nil {
		return service.TaskList{}, err
	}
	created.AccountID = accountID
	o.tasks.PutList(created)
	return created, nil
}

// DeleteList deletes a task list and, once confirmed, its local tasks.
func (o *Orchestrator) DeleteList(ctx context.Context, listID string) error {
	list, ok := o.tasks.List(listID)
	if !ok {
		return service.NotFound("list not found: %s", listID)
	}
	if list.IsDefault {
		return service.Validation("cannot delete default list")
	}

	err := o.withToken(ctx, list.AccountID, func(ctx context.Context, token string) error {
		return o.gateway.DeleteTaskList(ctx, token, listID)
	})
	if err != nil {
		return err
	}
	o.tasks.RemoveList(listID)
	return nil
}

// Load replaces the store's view of one account with the remote state.
func (o *Orchestrator) Load(ctx context.Context, accountID string) error {
	var lists []service.TaskList
	var all []service.Task
	err := o.withToken(ctx, accountID, func(ctx context.Context, token string) error {
		var err error
		lists, err = o.gateway.ListTaskLists(ctx, token)
		if err != nil {
			return err
		}
		all = all[:0]
		for _, l := range lists {
			ts, err := o.gateway.ListTasks(ctx, token, l.ID, o.includeCompleted)
			if err != nil {
				return fmt.Errorf("list %s: %w", l.Title, err)
			}
			all = append(all, ts...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	o.tasks.ReplaceAccount(accountID, lists, all)
	o.log.Debug().
		Str("account", accountID).
		Int("lists", len(lists)).
		Int("tasks", len(all)).
		Msg("account loaded")
	return nil
}

// LoadAll loads every linked account. A failing account does not stop the
// others; all failures are returned joined.
func (o *Orchestrator) LoadAll(ctx context.Context) error {
	var errs []error
	for _, a := range o.accounts.All() {
		if err := o.Load(ctx, a.ID); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Email, err))
		}
	}
	return errors.Join(errs...)
}

// RemoveAccount unlinks an account and drops its lists and tasks.
func (o *Orchestrator) RemoveAccount(accountID string) error {
	if _, ok := o.accounts.Get(accountID); !ok {
		return service.NotFound("account not found: %s", accountID)
	}
	o.tasks.RemoveAccount(accountID)
	return o.accounts.Remove(accountID)
}

// confirmedTask returns a stored task that has a server identity.
func (o *Orchestrator) confirmedTask(taskID string) (service.Task, error) {
	t, ok := o.tasks.Get(taskID)
	if !ok {
		return service.Task{}, service.NotFound("task not found: %s", taskID)
	}
	if t.Pending {
		return service.Task{}, service.Validation("task is still being created")
	}
	return t, nil
}

// resolveList validates the account and returns the target list.
func (o *Orchestrator) resolveList(accountID, listID string) (service.TaskList, error) {
	if accountID == "" {
		return service.TaskList{}, service.Validation("account required")
	}
	if _, ok := o.accounts.Get(accountID); !ok {
		return service.TaskList{}, service.Validation("unknown account: %s", accountID)
	}
	if listID == "" {
		l, ok := o.tasks.DefaultList(accountID)
		if !ok {
			return service.TaskList{}, service.Validation("list required")
		}
		return l, nil
	}
	l, ok := o.tasks.List(listID)
	if !ok || l.AccountID != accountID {
		return service.TaskList{}, service.Validation("unknown list: %s", listID)
	}
	return l, nil
}
