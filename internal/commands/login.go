package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"golang.org/x/oauth2"

	"tasksync/internal/auth"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command. Each login links one account;
// logging in again with the same email refreshes that account.
type LoginCmd struct {
	// Authorize obtains a token interactively. Replaced in tests.
	Authorize func(ctx context.Context, conf *oauth2.Config, prompt io.Writer) (*oauth2.Token, error)

	// Link resolves the account behind a token. Replaced in tests.
	Link func(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (service.Account, error)
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Link a Google account" }
func (c *LoginCmd) Usage() string      { return "tasksync login [common flags]" }
func (c *LoginCmd) NeedsSession() bool { return true }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	if !cfg.HasOAuthClient() {
		printOAuthClientHelp(cfg, errOut)
		return exitcode.AuthError
	}

	conf, err := auth.LoadOAuthConfig(cfg.OAuthClientPath())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	authorize := c.Authorize
	if authorize == nil {
		authorize = auth.Authorize
	}
	link := c.Link
	if link == nil {
		link = func(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (service.Account, error) {
			return auth.Link(ctx, conf, tok)
		}
	}

	tok, err := authorize(ctx, conf, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	acct, err := link(ctx, conf, tok)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	stored, err := sess.Accounts.Upsert(acct)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to save account: %v\n", err)
		return exitcode.AuthError
	}
	sess.Log.Debug().Str("account", stored.ID).Str("email", stored.Email).Msg("account linked")

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok: %s\n", stored.Email)
	}
	return exitcode.Success
}

func printOAuthClientHelp(cfg *config.Config, errOut io.Writer) {
	fmt.Fprintf(errOut, "error: %s not found in %s\n\n", config.OAuthClientFile, cfg.Dir)
	fmt.Fprintln(errOut, "To authenticate with Google Tasks, you need OAuth credentials:")
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
	fmt.Fprintln(errOut, "2. Create a project (or select an existing one)")
	fmt.Fprintln(errOut, "3. Enable the Google Tasks API:")
	fmt.Fprintln(errOut, "   https://console.cloud.google.com/apis/library/tasks.googleapis.com")
	fmt.Fprintln(errOut, "4. Create an OAuth client ID of type 'Desktop app' and download the JSON file")
	fmt.Fprintln(errOut, "5. Save it as:")
	fmt.Fprintf(errOut, "   %s\n", cfg.OAuthClientPath())
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "Then run 'tasksync login' again.")
}
