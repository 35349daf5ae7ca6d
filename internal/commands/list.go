package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/output"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `tasksync` (no args) and `tasksync list <list-name>`.
type ListCmd struct {
	today     bool
	week      bool
	completed bool
	account   string
}

// SetView selects the today or week view (for testing).
func (c *ListCmd) SetView(today, week bool) {
	c.today = today
	c.week = week
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "tasksync list [--today|--week] [--completed] [--account <email>] [<list-name>]"
}
func (c *ListCmd) NeedsSession() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.today, "today", false, "")
	fs.BoolVar(&c.week, "week", false, "")
	fs.BoolVar(&c.completed, "completed", false, "")
	fs.StringVar(&c.account, "account", "", "")
	fs.StringVar(&c.account, "a", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	if c.today && c.week {
		fmt.Fprintln(errOut, "error: cannot use both --today and --week")
		return exitcode.UserError
	}
	if c.today || c.week {
		if len(args) > 0 {
			fmt.Fprintln(errOut, "error: cannot combine a view with a list name")
			return exitcode.UserError
		}
		return c.agenda(ctx, cfg, sess, out, errOut)
	}

	keep := isOpen
	if c.completed {
		keep = isCompleted
	}

	acct, err := loadAccount(ctx, sess, c.account)
	if err != nil {
		return report(errOut, err)
	}

	if len(args) == 0 {
		return c.listAll(cfg, sess, acct, keep, out, errOut)
	}
	return c.listOne(sess, acct, strings.Join(args, " "), keep, out, errOut)
}

// listAll prints the default list without a header, then every other list
// with matching tasks under a lettered header.
func (c *ListCmd) listAll(cfg *config.Config, sess *session.Session, acct service.Account, keep func(service.Task) bool, out, errOut io.Writer) int {
	secs, err := sections(sess.Tasks, acct.ID, keep)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	hasAnyTasks := false
	for _, s := range secs {
		if s.Letter == 0 {
			for i, task := range s.Tasks {
				output.FormatTask(out, i+1, task)
				hasAnyTasks = true
			}
			continue
		}
		output.FormatListHeader(out, s.List.Title, false)
		for i, task := range s.Tasks {
			output.FormatTaskWithLetter(out, s.Letter, i+1, task)
		}
		hasAnyTasks = true
	}

	if !hasAnyTasks && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}

// listOne prints one list (even if empty).
func (c *ListCmd) listOne(sess *session.Session, acct service.Account, name string, keep func(service.Task) bool, out, errOut io.Writer) int {
	list, err := resolveList(sess, acct.ID, name)
	if err != nil {
		return report(errOut, err)
	}

	output.FormatListHeader(out, list.Title, list.IsDefault)
	for i, task := range filterTasks(sess.Tasks.ByList(list.ID), keep) {
		output.FormatTaskIndented(out, i+1, task)
	}
	return exitcode.Success
}

// agenda prints the today or week view. Without --account every linked
// account is loaded and each line names its account.
func (c *ListCmd) agenda(ctx context.Context, cfg *config.Config, sess *session.Session, out, errOut io.Writer) int {
	var loadErr error
	accountID := ""
	if c.account != "" {
		acct, err := loadAccount(ctx, sess, c.account)
		if err != nil {
			return report(errOut, err)
		}
		accountID = acct.ID
	} else {
		// Print what loaded, then report the accounts that failed.
		loadErr = sess.Sync.LoadAll(ctx)
	}

	var tasks []service.Task
	if c.today {
		tasks = sess.Tasks.Today(sess.Now())
	} else {
		tasks = sess.Tasks.Next7Days(sess.Now())
	}

	showAccount := accountID == "" && len(sess.Accounts.All()) > 1
	n := 0
	for _, task := range tasks {
		if accountID != "" && task.AccountID != accountID {
			continue
		}
		email := ""
		if showAccount {
			a, _ := sess.Accounts.Get(task.AccountID)
			email = a.Email
		}
		n++
		output.FormatAgendaTask(out, n, task, email)
	}

	if loadErr != nil {
		return report(errOut, loadErr)
	}
	if n == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
