package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/session"
)

func init() {
	Register(&DoneCmd{})
	Register(&UndoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct {
	listName string
	account  string
}

// SetListName sets the list name (for testing).
func (c *DoneCmd) SetListName(name string) {
	c.listName = name
}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return nil }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string {
	return "tasksync done [--list <list-name>] [--account <email>] <ref>"
}
func (c *DoneCmd) NeedsSession() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.StringVar(&c.account, "account", "", "")
	fs.StringVar(&c.account, "a", "", "")
}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	return runSetCompleted(ctx, cfg, sess, c.account, c.listName, args, true, out, errOut)
}

// UndoneCmd reopens a completed task. Refs count the --completed listing.
type UndoneCmd struct {
	listName string
	account  string
}

func (c *UndoneCmd) Name() string      { return "undone" }
func (c *UndoneCmd) Aliases() []string { return []string{"reopen"} }
func (c *UndoneCmd) Synopsis() string  { return "Reopen a completed task" }
func (c *UndoneCmd) Usage() string {
	return "tasksync undone [--list <list-name>] [--account <email>] <ref>"
}
func (c *UndoneCmd) NeedsSession() bool { return true }

func (c *UndoneCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.StringVar(&c.account, "account", "", "")
	fs.StringVar(&c.account, "a", "", "")
}

func (c *UndoneCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	return runSetCompleted(ctx, cfg, sess, c.account, c.listName, args, false, out, errOut)
}

// runSetCompleted is the shared implementation for done and undone.
func runSetCompleted(ctx context.Context, cfg *config.Config, sess *session.Session, account, listName string, args []string, done bool, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: task reference required")
		return exitcode.UserError
	}

	acct, err := loadAccount(ctx, sess, account)
	if err != nil {
		return report(errOut, err)
	}

	keep := isOpen
	if !done {
		keep = isCompleted
	}
	task, err := taskFromArgs(sess, acct.ID, listName, args, keep)
	if err != nil {
		return report(errOut, err)
	}

	if err := sess.Sync.SetCompleted(ctx, task.ID, done); err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
