package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/exitcode"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

// report prints err the way every command does and returns its exit code.
// Local validation and lookup failures are user errors; anything that came
// back from the remote is a backend error.
func report(errOut io.Writer, err error) int {
	if errors.Is(err, service.ErrSessionExpired) {
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	}

	var se *service.Error
	if errors.As(err, &se) && se.Status == 0 && (se.Kind == service.KindValidation || se.Kind == service.KindNotFound) {
		fmt.Fprintf(errOut, "error: %s\n", se.Message)
		return exitcode.UserError
	}

	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}

// loadAccount resolves an account by email (the default when empty) and
// loads its lists and tasks.
func loadAccount(ctx context.Context, sess *session.Session, email string) (service.Account, error) {
	a, err := sess.ResolveAccount(email)
	if err != nil {
		return service.Account{}, err
	}
	if err := sess.Sync.Load(ctx, a.ID); err != nil {
		return service.Account{}, err
	}
	return a, nil
}

// resolveList finds one list of an account by title.
func resolveList(sess *session.Session, accountID, name string) (service.TaskList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return service.TaskList{}, service.Validation("list name required")
	}
	matches, _ := sess.Tasks.FindList(accountID, name)
	switch len(matches) {
	case 0:
		return service.TaskList{}, service.NotFound("list not found: %s", name)
	case 1:
		return matches[0], nil
	default:
		return service.TaskList{}, service.Validation("ambiguous list name: %s", name)
	}
}

// isOpen matches the tasks shown by default.
func isOpen(t service.Task) bool { return !t.Done() && !t.Pending }

// isCompleted matches the tasks shown with --completed.
func isCompleted(t service.Task) bool { return t.Done() && !t.Pending }
