// Package session wires the stores, the gateway and the orchestrator into
// one running client.
package session

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"tasksync/internal/auth"
	"tasksync/internal/backend/googletasks"
	"tasksync/internal/config"
	"tasksync/internal/logging"
	"tasksync/internal/orchestrator"
	"tasksync/internal/service"
	"tasksync/internal/storage"
	"tasksync/internal/store"
)

// Session is a loaded client: accounts, tasks and the orchestrator that
// mutates them.
type Session struct {
	Accounts *store.Accounts
	Tasks    *store.Tasks
	Sync     *orchestrator.Orchestrator
	Log      zerolog.Logger

	// Now is the clock used for relative dates.
	Now func() time.Time

	defaultEmail string
	closer       io.Closer
}

// Deps are the parts a Session is assembled from.
type Deps struct {
	Persister    store.Persister
	Gateway      service.Gateway
	Tokens       func(*store.Accounts) orchestrator.TokenProvider
	Log          zerolog.Logger
	Now          func() time.Time
	DefaultEmail string
}

// New assembles a Session and rehydrates the accounts.
func New(deps Deps) (*Session, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	accounts := store.NewAccounts(deps.Persister)
	if err := accounts.Load(); err != nil {
		return nil, err
	}
	tasks := store.NewTasks()

	s := &Session{
		Accounts:     accounts,
		Tasks:        tasks,
		Log:          deps.Log,
		Now:          deps.Now,
		defaultEmail: deps.DefaultEmail,
	}
	s.Sync = orchestrator.New(tasks, accounts, deps.Gateway, deps.Tokens(accounts),
		orchestrator.WithLogger(deps.Log),
		orchestrator.WithClock(deps.Now),
		orchestrator.WithCompleted(true),
	)
	return s, nil
}

// Open builds a Session from the configuration directory: accounts from
// SQLite, tasks from Google Tasks.
func Open(cfg *config.Config, logOut io.Writer) (*Session, error) {
	log := logging.New(logOut, cfg.Debug)

	loc, err := cfg.Settings.Location()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Settings.Timeout()
	if err != nil {
		return nil, err
	}

	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	db, err := storage.Open(cfg.AccountsDBPath())
	if err != nil {
		return nil, err
	}

	// Without a client file tokens cannot be refreshed; stored tokens still work.
	var conf *oauth2.Config
	if cfg.HasOAuthClient() {
		conf, err = auth.LoadOAuthConfig(cfg.OAuthClientPath())
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	tokens := func(a *store.Accounts) orchestrator.TokenProvider {
		return auth.NewTokens(a, conf)
	}

	s, err := New(Deps{
		Persister:    db,
		Gateway:      googletasks.New(googletasks.WithLocation(loc), googletasks.WithTimeout(timeout)),
		Tokens:       tokens,
		Log:          log,
		Now:          func() time.Time { return time.Now().In(loc) },
		DefaultEmail: cfg.Settings.DefaultAccount,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	s.closer = db
	log.Debug().Str("dir", cfg.Dir).Int("accounts", len(s.Accounts.All())).Msg("session opened")
	return s, nil
}

// Close releases the durable storage.
func (s *Session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// DefaultAccount returns the configured default account, or the first
// linked one.
func (s *Session) DefaultAccount() (service.Account, bool) {
	if s.defaultEmail != "" {
		if a, ok := s.Accounts.ByEmail(s.defaultEmail); ok {
			return a, true
		}
	}
	all := s.Accounts.All()
	if len(all) == 0 {
		return service.Account{}, false
	}
	return all[0], true
}

// ResolveAccount finds an account by email, or returns the default account
// when email is empty.
func (s *Session) ResolveAccount(email string) (service.Account, error) {
	if strings.TrimSpace(email) == "" {
		a, ok := s.DefaultAccount()
		if !ok {
			return service.Account{}, service.Validation("no linked accounts (run: tasksync login)")
		}
		return a, nil
	}
	a, ok := s.Accounts.ByEmail(email)
	if !ok {
		return service.Account{}, service.NotFound("account not found: %s", email)
	}
	return a, nil
}
