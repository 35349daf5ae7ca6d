package commands

import (
	"context"
	"flag"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/output"
	"tasksync/internal/session"
)

func init() {
	Register(&ListsCmd{})
}

// ListsCmd implements the lists command.
type ListsCmd struct {
	account string
}

func (c *ListsCmd) Name() string       { return "lists" }
func (c *ListsCmd) Aliases() []string  { return nil }
func (c *ListsCmd) Synopsis() string   { return "Print all lists" }
func (c *ListsCmd) Usage() string      { return "tasksync lists [--account <email>]" }
func (c *ListsCmd) NeedsSession() bool { return true }

func (c *ListsCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.account, "account", "", "")
	fs.StringVar(&c.account, "a", "", "")
}

func (c *ListsCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	acct, err := loadAccount(ctx, sess, c.account)
	if err != nil {
		return report(errOut, err)
	}

	for _, list := range sess.Tasks.ListsByAccount(acct.ID) {
		output.FormatListName(out, list)
	}
	return exitcode.Success
}
