package session

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"tasksync/internal/config"
	"tasksync/internal/orchestrator"
	"tasksync/internal/service"
	"tasksync/internal/storage"
	"tasksync/internal/store"
	"tasksync/internal/testutil"
)

func newSession(t *testing.T, p store.Persister, defaultEmail string) (*Session, *testutil.FakeTokens) {
	t.Helper()
	tokens := testutil.NewFakeTokens()
	s, err := New(Deps{
		Persister:    p,
		Gateway:      testutil.NewFakeGateway(),
		Tokens:       func(*store.Accounts) orchestrator.TokenProvider { return tokens },
		Log:          zerolog.Nop(),
		DefaultEmail: defaultEmail,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, tokens
}

func TestDefaultAccount(t *testing.T) {
	s, _ := newSession(t, storage.NewMemory(), "bob@work.com")

	if _, ok := s.DefaultAccount(); ok {
		t.Fatal("expected no default account before linking")
	}

	alice, _ := s.Accounts.Upsert(service.Account{Email: "alice@example.com"})
	if got, _ := s.DefaultAccount(); got.ID != alice.ID {
		t.Errorf("expected first account as fallback, got %s", got.Email)
	}

	bob, _ := s.Accounts.Upsert(service.Account{Email: "Bob@Work.com"})
	if got, _ := s.DefaultAccount(); got.ID != bob.ID {
		t.Errorf("expected configured default, got %s", got.Email)
	}
}

func TestResolveAccount(t *testing.T) {
	s, _ := newSession(t, nil, "")

	if _, err := s.ResolveAccount(""); !service.IsValidation(err) {
		t.Errorf("expected validation error without accounts, got %v", err)
	}

	alice, _ := s.Accounts.Upsert(service.Account{Email: "alice@example.com"})
	if got, err := s.ResolveAccount(""); err != nil || got.ID != alice.ID {
		t.Errorf("ResolveAccount(\"\") = %v, %v", got, err)
	}
	if got, err := s.ResolveAccount("ALICE@example.com"); err != nil || got.ID != alice.ID {
		t.Errorf("ResolveAccount(email) = %v, %v", got, err)
	}
	if _, err := s.ResolveAccount("nobody@example.com"); !service.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestNew_RehydratesAccounts(t *testing.T) {
	mem := storage.NewMemory()
	first, _ := newSession(t, mem, "")
	a, err := first.Accounts.Upsert(service.Account{Email: "alice@example.com", AccessToken: "tok-1"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second, tokens := newSession(t, mem, "")
	got, ok := second.Accounts.Get(a.ID)
	if !ok || got.AccessToken != "tok-1" {
		t.Fatalf("expected account rehydrated, got %+v", got)
	}

	tokens.Set(a.ID, "tok-1", "tok-2")
	if err := second.Sync.Load(context.Background(), a.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := second.Tasks.DefaultList(a.ID); !ok {
		t.Error("expected default list after load")
	}
}

func TestOpen(t *testing.T) {
	cfg, _ := config.New(t.TempDir())
	if err := cfg.LoadSettings(); err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	cfg.Debug = true

	var logBuf bytes.Buffer
	s, err := Open(cfg, &logBuf)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Accounts.Upsert(service.Account{Email: "alice@example.com"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(cfg.AccountsDBPath()); err != nil {
		t.Errorf("expected accounts.db created: %v", err)
	}
	if !bytes.Contains(logBuf.Bytes(), []byte("session opened")) {
		t.Errorf("expected debug log, got %q", logBuf.String())
	}

	reopened, err := Open(cfg, &logBuf)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()
	if _, ok := reopened.Accounts.ByEmail("alice@example.com"); !ok {
		t.Error("expected account persisted across sessions")
	}
}

func TestOpen_BadTimezone(t *testing.T) {
	cfg, _ := config.New(t.TempDir())
	cfg.Settings.Timezone = "Nowhere/Special"
	if _, err := Open(cfg, nil); err == nil {
		t.Error("expected timezone error")
	}
}
