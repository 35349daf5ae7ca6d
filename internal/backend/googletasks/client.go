// Package googletasks implements the service.Gateway interface using Google Tasks API.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"tasksync/internal/metadata"
	"tasksync/internal/service"
)

// PageSize is the number of items requested per page.
const PageSize = 100

// Client implements service.Gateway using Google Tasks API.
// It holds no credentials; every call is made with the token it is given.
type Client struct {
	httpClient *http.Client
	endpoint   string
	loc        *time.Location

	// Timeout bounds each API call. Zero means no timeout.
	Timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the base HTTP client the bearer transport wraps.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoint overrides the API base URL (for testing).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithLocation sets the zone due dates are materialized in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.loc = loc }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.Timeout = d }
}

// New creates a new Google Tasks client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		loc:        time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// service builds a Tasks service that authenticates with token.
func (c *Client) service(ctx context.Context, token string) (*tasks.Service, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return svc, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(ctx, c.Timeout)
	}
	return context.WithCancel(ctx)
}

// ListTaskLists returns all task lists in API order.
// The first list the API returns is the account's default list.
func (c *Client) ListTaskLists(ctx context.Context, token string) ([]service.TaskList, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	var result []service.TaskList
	err = svc.Tasklists.List().MaxResults(PageSize).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			result = append(result, service.TaskList{
				ID:        list.Id,
				Title:     list.Title,
				IsDefault: len(result) == 0,
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// ListTasks returns the tasks of a list, all pages, with metadata decoded.
func (c *Client) ListTasks(ctx context.Context, token, listID string, includeCompleted bool) ([]service.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	call := svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(includeCompleted).
		ShowHidden(includeCompleted).
		ShowDeleted(false)

	var result []service.Task
	err = call.Pages(ctx, func(resp *tasks.Tasks) error {
		for _, t := range resp.Items {
			result = append(result, c.fromRemote(listID, t))
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// CreateTask creates a task; priority is folded into the notes.
func (c *Client) CreateTask(ctx context.Context, token, listID string, draft service.TaskDraft) (service.Task, error) {
	if draft.Title == "" {
		return service.Task{}, service.Validation("title required")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	svc, err := c.service(ctx, token)
	if err != nil {
		return service.Task{}, err
	}

	body := &tasks.Task{
		Title: draft.Title,
		Notes: metadata.Encode(draft.Notes, draft.Priority),
	}
	if draft.Due != nil {
		body.Due = formatDue(*draft.Due)
	}

	created, err := svc.Tasks.Insert(listID, body).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return c.fromRemote(listID, created), nil
}

// UpdateTask reads the current task, merges patch into it and writes it back.
// The read is needed because priority lives inside the notes field.
func (c *Client) UpdateTask(ctx context.Context, token, listID, taskID string, patch service.TaskPatch) (service.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	svc, err := c.service(ctx, token)
	if err != nil {
		return service.Task{}, err
	}

	current, err := svc.Tasks.Get(listID, taskID).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	merged := patch.Apply(c.fromRemote(listID, current))

	body := &tasks.Task{
		Title:           merged.Title,
		Notes:           metadata.Encode(merged.Notes, merged.Priority),
		Status:          string(merged.Status),
		ForceSendFields: []string{"Notes"},
	}
	switch {
	case merged.Due != nil:
		body.Due = formatDue(*merged.Due)
	case patch.ClearDue:
		body.NullFields = append(body.NullFields, "Due")
	}
	if patch.Status != nil && *patch.Status == service.StatusNeedsAction {
		body.NullFields = append(body.NullFields, "Completed")
	}

	updated, err := svc.Tasks.Patch(listID, taskID, body).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return c.fromRemote(listID, updated), nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, token, listID, taskID string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	svc, err := c.service(ctx, token)
	if err != nil {
		return err
	}
	if err := svc.Tasks.Delete(listID, taskID).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

// CreateTaskList creates a new task list.
func (c *Client) CreateTaskList(ctx context.Context, token, title string) (service.TaskList, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	svc, err := c.service(ctx, token)
	if err != nil {
		return service.TaskList{}, err
	}

	list, err := svc.Tasklists.Insert(&tasks.TaskList{Title: title}).Context(ctx).Do()
	if err != nil {
		return service.TaskList{}, wrapError(err)
	}
	return service.TaskList{ID: list.Id, Title: list.Title}, nil
}

// DeleteTaskList deletes a task list by ID.
func (c *Client) DeleteTaskList(ctx context.Context, token, listID string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	svc, err := c.service(ctx, token)
	if err != nil {
		return err
	}
	if err := svc.Tasklists.Delete(listID).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

// fromRemote materializes the local task shape. This is the only place
// remote notes are decoded.
func (c *Client) fromRemote(listID string, t *tasks.Task) service.Task {
	meta := metadata.Decode(t.Notes)
	out := service.Task{
		ID:       t.Id,
		ListID:   listID,
		Title:    t.Title,
		Notes:    meta.Notes,
		Priority: meta.Priority,
		Status:   service.Status(t.Status),
		Position: t.Position,
	}
	if out.Status == "" {
		out.Status = service.StatusNeedsAction
	}
	if due, ok := c.parseDue(t.Due); ok {
		out.Due = &due
	}
	if t.Completed != nil {
		if ts, err := time.Parse(time.RFC3339, *t.Completed); err == nil {
			out.Completed = &ts
		}
	}
	if ts, err := time.Parse(time.RFC3339, t.Updated); err == nil {
		out.Updated = ts
	}
	return out
}

// formatDue encodes the calendar date of d. The API keeps only the date part.
func formatDue(d time.Time) string {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

// parseDue returns the remote due date as local midnight.
func (c *Client) parseDue(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc), true
}

// wrapError normalizes API errors into service errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.Code)
		}
		return &service.Error{
			Kind:    kindForStatus(apiErr.Code),
			Status:  apiErr.Code,
			Message: msg,
			Err:     err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &service.Error{Kind: service.KindTransient, Message: "request timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &service.Error{Kind: service.KindTransient, Message: "request cancelled", Err: err}
	}
	return &service.Error{Kind: service.KindTransient, Message: err.Error(), Err: err}
}

func kindForStatus(code int) service.Kind {
	switch {
	case code == http.StatusUnauthorized:
		return service.KindAuthExpired
	case code == http.StatusNotFound || code == http.StatusGone:
		return service.KindNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return service.KindTransient
	case code >= 400:
		return service.KindValidation
	default:
		return service.KindTransient
	}
}
