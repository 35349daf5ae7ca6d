// Package store holds the in-memory state the UI renders.
//
// Stores are owned containers: state changes only through their typed
// mutators, every write replaces whole records, and every read returns
// copies. Subscribers are notified after each change.
package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"tasksync/internal/service"
)

// subscribers is the notification list shared by the stores.
type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

func (s *subscribers) add(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func())
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Tasks holds tasks and task lists of every linked account.
type Tasks struct {
	mu    sync.RWMutex
	tasks map[string]service.Task     // task ID -> task
	lists map[string]service.TaskList // list ID -> list
	order []string                    // list IDs in load order

	subs subscribers
}

// NewTasks creates an empty task store.
func NewTasks() *Tasks {
	return &Tasks{
		tasks: make(map[string]service.Task),
		lists: make(map[string]service.TaskList),
	}
}

// Subscribe registers fn to run after every change. It returns a cancel func.
func (s *Tasks) Subscribe(fn func()) func() {
	return s.subs.add(fn)
}

// ReplaceAccount swaps in the freshly loaded lists and tasks of one account.
// Records of other accounts are untouched.
func (s *Tasks) ReplaceAccount(accountID string, lists []service.TaskList, tasks []service.Task) {
	s.mu.Lock()
	s.removeAccountLocked(accountID)
	for _, l := range lists {
		l.AccountID = accountID
		s.putListLocked(l)
	}
	for _, t := range tasks {
		t = t.Clone()
		t.AccountID = accountID
		s.tasks[t.ID] = t
	}
	s.mu.Unlock()
	s.subs.notify()
}

// Put inserts or replaces a task.
func (s *Tasks) Put(t service.Task) {
	s.mu.Lock()
	s.tasks[t.ID] = t.Clone()
	s.mu.Unlock()
	s.subs.notify()
}

// Remove deletes a task. Removing an unknown ID is a no-op.
func (s *Tasks) Remove(id string) {
	s.mu.Lock()
	_, ok := s.tasks[id]
	delete(s.tasks, id)
	s.mu.Unlock()
	if ok {
		s.subs.notify()
	}
}

// Swap replaces the record stored under oldID with t, keyed by t.ID.
func (s *Tasks) Swap(oldID string, t service.Task) {
	s.mu.Lock()
	delete(s.tasks, oldID)
	s.tasks[t.ID] = t.Clone()
	s.mu.Unlock()
	s.subs.notify()
}

// PutList inserts or replaces a task list.
func (s *Tasks) PutList(l service.TaskList) {
	s.mu.Lock()
	s.putListLocked(l)
	s.mu.Unlock()
	s.subs.notify()
}

func (s *Tasks) putListLocked(l service.TaskList) {
	if _, ok := s.lists[l.ID]; !ok {
		s.order = append(s.order, l.ID)
	}
	s.lists[l.ID] = l
}

// RemoveList deletes a list and every task in it.
func (s *Tasks) RemoveList(id string) {
	s.mu.Lock()
	s.removeListLocked(id)
	s.mu.Unlock()
	s.subs.notify()
}

func (s *Tasks) removeListLocked(id string) {
	delete(s.lists, id)
	for i, lid := range s.order {
		if lid == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	for tid, t := range s.tasks {
		if t.ListID == id {
			delete(s.tasks, tid)
		}
	}
}

// RemoveAccount deletes every list and task attributed to accountID.
func (s *Tasks) RemoveAccount(accountID string) {
	s.mu.Lock()
	s.removeAccountLocked(accountID)
	s.mu.Unlock()
	s.subs.notify()
}

func (s *Tasks) removeAccountLocked(accountID string) {
	for id, l := range s.lists {
		if l.AccountID == accountID {
			s.removeListLocked(id)
		}
	}
	for id, t := range s.tasks {
		if t.AccountID == accountID {
			delete(s.tasks, id)
		}
	}
}

// Get returns the task with the given ID.
func (s *Tasks) Get(id string) (service.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return service.Task{}, false
	}
	return t.Clone(), true
}

// All returns every task, sorted.
func (s *Tasks) All() []service.Task {
	return s.filter(func(service.Task) bool { return true })
}

// ByList returns the tasks of one list, sorted.
func (s *Tasks) ByList(listID string) []service.Task {
	return s.filter(func(t service.Task) bool { return t.ListID == listID })
}

// ByAccount returns the tasks of one account, sorted.
func (s *Tasks) ByAccount(accountID string) []service.Task {
	return s.filter(func(t service.Task) bool { return t.AccountID == accountID })
}

// Today returns open tasks due today or earlier.
func (s *Tasks) Today(now time.Time) []service.Task {
	end := startOfDay(now).AddDate(0, 0, 1)
	return s.filter(func(t service.Task) bool {
		return !t.Done() && t.Due != nil && t.Due.Before(end)
	})
}

// Next7Days returns open tasks due from today through the sixth day after.
func (s *Tasks) Next7Days(now time.Time) []service.Task {
	start := startOfDay(now)
	end := start.AddDate(0, 0, 7)
	return s.filter(func(t service.Task) bool {
		return !t.Done() && t.Due != nil && !t.Due.Before(start) && t.Due.Before(end)
	})
}

// List returns the list with the given ID.
func (s *Tasks) List(id string) (service.TaskList, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lists[id]
	return l, ok
}

// Lists returns every list in load order.
func (s *Tasks) Lists() []service.TaskList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]service.TaskList, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.lists[id])
	}
	return out
}

// ListsByAccount returns the lists of one account in load order.
func (s *Tasks) ListsByAccount(accountID string) []service.TaskList {
	var out []service.TaskList
	for _, l := range s.Lists() {
		if l.AccountID == accountID {
			out = append(out, l)
		}
	}
	return out
}

// DefaultList returns the default list of an account.
func (s *Tasks) DefaultList(accountID string) (service.TaskList, bool) {
	for _, l := range s.ListsByAccount(accountID) {
		if l.IsDefault {
			return l, true
		}
	}
	return service.TaskList{}, false
}

// FindList resolves a list by title (case-insensitive, trimmed) within an
// account, or across all accounts when accountID is empty.
func (s *Tasks) FindList(accountID, title string) ([]service.TaskList, bool) {
	want := strings.ToLower(strings.TrimSpace(title))
	var matches []service.TaskList
	for _, l := range s.Lists() {
		if accountID != "" && l.AccountID != accountID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(l.Title)) == want {
			matches = append(matches, l)
		}
	}
	return matches, len(matches) > 0
}

func (s *Tasks) filter(keep func(service.Task) bool) []service.Task {
	s.mu.RLock()
	out := make([]service.Task, 0)
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	s.mu.RUnlock()
	Sort(out)
	return out
}

// Sort orders tasks by priority, then due date (undated last), then title.
func Sort(tasks []service.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		switch {
		case a.Due != nil && b.Due != nil && !a.Due.Equal(*b.Due):
			return a.Due.Before(*b.Due)
		case a.Due != nil && b.Due == nil:
			return true
		case a.Due == nil && b.Due != nil:
			return false
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
