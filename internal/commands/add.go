package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/intake"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command. The text is parsed for a due date,
// an #account tag and a !priority marker.
type AddCmd struct {
	listName string
	account  string
}

// SetListName sets the list name (for testing).
func (c *AddCmd) SetListName(name string) {
	c.listName = name
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task from quick-add text" }
func (c *AddCmd) Usage() string {
	return "tasksync add [--list <list-name>] [--account <email>] <text...>"
}
func (c *AddCmd) NeedsSession() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.StringVar(&c.account, "account", "", "")
	fs.StringVar(&c.account, "a", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	fallback, err := sess.ResolveAccount(c.account)
	if err != nil {
		return report(errOut, err)
	}

	res := intake.Parse(text, sess.Accounts.Refs(), sess.Now())
	if res.Title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}
	accountID := fallback.ID
	if res.AccountID != "" {
		accountID = res.AccountID
	}
	if err := sess.Sync.Load(ctx, accountID); err != nil {
		return report(errOut, err)
	}

	listID := ""
	if c.listName != "" {
		list, err := resolveList(sess, accountID, c.listName)
		if err != nil {
			return report(errOut, err)
		}
		listID = list.ID
	}

	task, err := sess.Sync.CreateTask(ctx, accountID, listID, service.TaskDraft{
		Title:    res.Title,
		Due:      res.Due,
		Priority: res.Priority,
	})
	if err != nil {
		return report(errOut, err)
	}

	sess.Log.Debug().Str("task", task.ID).Str("account", accountID).Msg("task added")
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
