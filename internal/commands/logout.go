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
	Register(&LogoutCmd{})
}

// LogoutCmd unlinks an account and forgets its tokens.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string       { return "logout" }
func (c *LogoutCmd) Aliases() []string  { return nil }
func (c *LogoutCmd) Synopsis() string   { return "Unlink an account" }
func (c *LogoutCmd) Usage() string      { return "tasksync logout [<email>]" }
func (c *LogoutCmd) NeedsSession() bool { return true }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	accounts := sess.Accounts.All()
	if len(accounts) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if len(args) == 0 && len(accounts) > 1 {
		fmt.Fprintln(errOut, "error: account email required (more than one account linked)")
		return exitcode.UserError
	}
	if len(args) > 1 {
		fmt.Fprintln(errOut, "error: too many arguments")
		return exitcode.UserError
	}

	email := accounts[0].Email
	if len(args) == 1 {
		email = args[0]
	}
	acct, ok := sess.Accounts.ByEmail(email)
	if !ok {
		fmt.Fprintf(errOut, "error: account not found: %s\n", email)
		return exitcode.UserError
	}

	if err := sess.Sync.RemoveAccount(acct.ID); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove account: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
