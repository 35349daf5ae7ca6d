package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

func init() {
	Register(&PriorityCmd{})
}

// PriorityCmd implements the priority command. Priority 4 clears it.
type PriorityCmd struct {
	listName string
	account  string
}

func (c *PriorityCmd) Name() string      { return "priority" }
func (c *PriorityCmd) Aliases() []string { return []string{"prio"} }
func (c *PriorityCmd) Synopsis() string  { return "Set the priority of a task (1 highest, 4 none)" }
func (c *PriorityCmd) Usage() string {
	return "tasksync priority [--list <list-name>] [--account <email>] <ref> <1-4>"
}
func (c *PriorityCmd) NeedsSession() bool { return true }

func (c *PriorityCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.StringVar(&c.account, "account", "", "")
	fs.StringVar(&c.account, "a", "", "")
}

func (c *PriorityCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: task reference and priority required")
		return exitcode.UserError
	}
	last := args[len(args)-1]
	priority, err := strconv.Atoi(last)
	if err != nil || !service.ValidPriority(priority) {
		fmt.Fprintf(errOut, "error: invalid priority: %s\n", last)
		return exitcode.UserError
	}

	acct, err := loadAccount(ctx, sess, c.account)
	if err != nil {
		return report(errOut, err)
	}
	task, err := taskFromArgs(sess, acct.ID, c.listName, args[:len(args)-1], isOpen)
	if err != nil {
		return report(errOut, err)
	}

	if err := sess.Sync.SetPriority(ctx, task.ID, priority); err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
