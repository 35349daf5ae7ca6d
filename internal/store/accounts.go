package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"tasksync/internal/intake"
	"tasksync/internal/service"
)

// AccountsNamespace is the key the account list is persisted under.
const AccountsNamespace = "tasksync.accounts"

// ErrNoData is returned by a Persister when nothing is stored under a key.
var ErrNoData = errors.New("no data")

// Persister is durable key-value storage.
type Persister interface {
	Get(namespace string) ([]byte, error)
	Put(namespace string, value []byte) error
}

// Accounts holds linked accounts. Unlike tasks, accounts (tokens included)
// are persisted on every change.
type Accounts struct {
	mu       sync.RWMutex
	accounts []service.Account
	persist  Persister

	subs subscribers
}

// NewAccounts creates an account store backed by p. p may be nil.
func NewAccounts(p Persister) *Accounts {
	return &Accounts{persist: p}
}

// Load rehydrates the store from its persister.
func (s *Accounts) Load() error {
	if s.persist == nil {
		return nil
	}
	data, err := s.persist.Get(AccountsNamespace)
	if errors.Is(err, ErrNoData) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	var accounts []service.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return fmt.Errorf("invalid stored accounts: %w", err)
	}

	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()
	s.subs.notify()
	return nil
}

// Subscribe registers fn to run after every change. It returns a cancel func.
func (s *Accounts) Subscribe(fn func()) func() {
	return s.subs.add(fn)
}

// Upsert adds an account, or updates the one with the same email in place.
// The stored record keeps its original ID. The stored record is returned.
func (s *Accounts) Upsert(a service.Account) (service.Account, error) {
	s.mu.Lock()
	idx := s.indexByEmailLocked(a.Email)
	if idx >= 0 {
		a.ID = s.accounts[idx].ID
		if a.RefreshToken == "" {
			a.RefreshToken = s.accounts[idx].RefreshToken
		}
		s.accounts[idx] = a
	} else {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		s.accounts = append(s.accounts, a)
	}
	err := s.saveLocked()
	s.mu.Unlock()

	s.subs.notify()
	return a, err
}

// Remove deletes an account. Removing an unknown ID is a no-op.
func (s *Accounts) Remove(id string) error {
	s.mu.Lock()
	removed := false
	for i, a := range s.accounts {
		if a.ID == id {
			s.accounts = append(s.accounts[:i:i], s.accounts[i+1:]...)
			removed = true
			break
		}
	}
	var err error
	if removed {
		err = s.saveLocked()
	}
	s.mu.Unlock()

	if removed {
		s.subs.notify()
	}
	return err
}

// Get returns the account with the given ID.
func (s *Accounts) Get(id string) (service.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return service.Account{}, false
}

// ByEmail returns the account with the given email (case-insensitive).
func (s *Accounts) ByEmail(email string) (service.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexByEmailLocked(email); i >= 0 {
		return s.accounts[i], true
	}
	return service.Account{}, false
}

// All returns every account in link order.
func (s *Accounts) All() []service.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]service.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Refs returns the account descriptors the intake parser matches against.
func (s *Accounts) Refs() []intake.AccountRef {
	accounts := s.All()
	refs := make([]intake.AccountRef, len(accounts))
	for i, a := range accounts {
		refs[i] = intake.AccountRef{ID: a.ID, Email: a.Email, Name: a.Name}
	}
	return refs
}

func (s *Accounts) indexByEmailLocked(email string) int {
	email = strings.ToLower(strings.TrimSpace(email))
	for i, a := range s.accounts {
		if strings.ToLower(a.Email) == email {
			return i
		}
	}
	return -1
}

func (s *Accounts) saveLocked() error {
	if s.persist == nil {
		return nil
	}
	data, err := json.Marshal(s.accounts)
	if err != nil {
		return err
	}
	if err := s.persist.Put(AccountsNamespace, data); err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	return nil
}
