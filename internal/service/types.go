// Package service defines the backend-agnostic types and contracts for task operations.
package service

import "time"

// Status is the remote completion state of a task.
type Status string

const (
	StatusNeedsAction Status = "needsAction"
	StatusCompleted   Status = "completed"
)

const (
	// HighestPriority is the most urgent priority.
	HighestPriority = 1

	// DefaultPriority means "no priority" and is never written to the remote.
	DefaultPriority = 4
)

// ValidPriority reports whether p is within 1..4.
func ValidPriority(p int) bool {
	return p >= HighestPriority && p <= DefaultPriority
}

// Task is the local representation of a remote task.
// Priority is always decoded; it never travels as a remote field.
type Task struct {
	ID        string
	ListID    string
	AccountID string
	Title     string
	Notes     string
	Due       *time.Time
	Status    Status
	Priority  int

	// Read-only bookkeeping from the remote.
	Completed *time.Time
	Updated   time.Time
	Position  string

	// Pending marks a record inserted before the server confirmed it.
	Pending bool
}

// Done reports whether the task is completed.
func (t Task) Done() bool {
	return t.Status == StatusCompleted
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	if t.Due != nil {
		d := *t.Due
		c.Due = &d
	}
	if t.Completed != nil {
		d := *t.Completed
		c.Completed = &d
	}
	return c
}

// TaskList represents a task list annotated with the account it came from.
type TaskList struct {
	ID        string
	Title     string
	AccountID string
	IsDefault bool
}

// Account is a linked identity with the remote service.
// Email is the deduplication key.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	Image        string    `json:"image,omitempty"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// TaskDraft holds the fields of a task about to be created.
type TaskDraft struct {
	Title    string
	Notes    string
	Due      *time.Time
	Priority int
}

// TaskPatch holds the fields a caller wants to change.
// A nil field is left untouched.
type TaskPatch struct {
	Title    *string
	Notes    *string
	Due      *time.Time
	ClearDue bool
	Status   *Status
	Priority *int
}

// Apply returns t with the supplied fields of p merged in.
func (p TaskPatch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if p.ClearDue {
		out.Due = nil
	} else if p.Due != nil {
		d := *p.Due
		out.Due = &d
	}
	if p.Status != nil {
		out.Status = *p.Status
		if out.Status == StatusNeedsAction {
			out.Completed = nil
		}
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	return out
}
