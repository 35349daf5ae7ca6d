package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/session"
	"tasksync/internal/web"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd runs the local JSON API until interrupted.
type ServeCmd struct {
	addr string
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return nil }
func (c *ServeCmd) Synopsis() string   { return "Serve the local JSON API" }
func (c *ServeCmd) Usage() string      { return "tasksync serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsSession() bool { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	addr := c.addr
	if addr == "" {
		addr = cfg.Settings.ListenAddr
	}

	// Accounts that fail to load are reported and served empty.
	if err := sess.Sync.LoadAll(ctx); err != nil {
		sess.Log.Warn().Err(err).Msg("initial load incomplete")
		fmt.Fprintf(errOut, "warning: %v\n", err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "listening on http://%s\n", addr)
	}
	if err := web.Serve(ctx, sess, addr); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
