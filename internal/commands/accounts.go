package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/output"
	"tasksync/internal/session"
)

func init() {
	Register(&AccountsCmd{})
}

// AccountsCmd prints the linked accounts.
type AccountsCmd struct{}

func (c *AccountsCmd) Name() string       { return "accounts" }
func (c *AccountsCmd) Aliases() []string  { return nil }
func (c *AccountsCmd) Synopsis() string   { return "Print linked accounts" }
func (c *AccountsCmd) Usage() string      { return "tasksync accounts" }
func (c *AccountsCmd) NeedsSession() bool { return true }

func (c *AccountsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AccountsCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	accounts := sess.Accounts.All()
	if len(accounts) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no linked accounts")
		}
		return exitcode.Success
	}

	def, _ := sess.DefaultAccount()
	for _, a := range accounts {
		output.FormatAccount(out, a, a.ID == def.ID)
	}
	return exitcode.Success
}
