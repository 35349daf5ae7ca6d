package store

import (
	"testing"
	"time"

	"tasksync/internal/service"
)

var now = time.Date(2026, time.October, 21, 15, 0, 0, 0, time.UTC)

func dayOffset(n int) *time.Time {
	d := time.Date(2026, time.October, 21+n, 0, 0, 0, 0, time.UTC)
	return &d
}

func seed(s *Tasks) {
	s.ReplaceAccount("acc-a", []service.TaskList{
		{ID: "a-default", Title: "My Tasks", IsDefault: true},
		{ID: "a-work", Title: "Work"},
	}, []service.Task{
		{ID: "t1", ListID: "a-default", Title: "overdue", Due: dayOffset(-2), Priority: 4, Status: service.StatusNeedsAction},
		{ID: "t2", ListID: "a-default", Title: "today", Due: dayOffset(0), Priority: 2, Status: service.StatusNeedsAction},
		{ID: "t3", ListID: "a-work", Title: "in six days", Due: dayOffset(6), Priority: 4, Status: service.StatusNeedsAction},
		{ID: "t4", ListID: "a-work", Title: "in seven days", Due: dayOffset(7), Priority: 1, Status: service.StatusNeedsAction},
		{ID: "t5", ListID: "a-work", Title: "done today", Due: dayOffset(0), Priority: 4, Status: service.StatusCompleted},
	})
	s.ReplaceAccount("acc-b", []service.TaskList{
		{ID: "b-default", Title: "Inbox", IsDefault: true},
	}, []service.Task{
		{ID: "t6", ListID: "b-default", Title: "undated", Priority: 4, Status: service.StatusNeedsAction},
	})
}

func ids(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTasks_ReplaceAccountAnnotates(t *testing.T) {
	s := NewTasks()
	seed(s)

	task, ok := s.Get("t6")
	if !ok {
		t.Fatal("expected t6")
	}
	if task.AccountID != "acc-b" {
		t.Errorf("expected account acc-b, got %q", task.AccountID)
	}
	l, ok := s.List("a-work")
	if !ok || l.AccountID != "acc-a" {
		t.Errorf("expected list annotated with acc-a, got %+v", l)
	}
	if got := len(s.ByAccount("acc-a")); got != 5 {
		t.Errorf("expected 5 tasks for acc-a, got %d", got)
	}
}

func TestTasks_ReplaceAccountDropsStaleRecords(t *testing.T) {
	s := NewTasks()
	seed(s)

	s.ReplaceAccount("acc-a", []service.TaskList{
		{ID: "a-default", Title: "My Tasks", IsDefault: true},
	}, []service.Task{
		{ID: "t9", ListID: "a-default", Title: "fresh", Priority: 4, Status: service.StatusNeedsAction},
	})

	if _, ok := s.Get("t1"); ok {
		t.Error("expected stale task removed")
	}
	if _, ok := s.List("a-work"); ok {
		t.Error("expected stale list removed")
	}
	if _, ok := s.Get("t6"); !ok {
		t.Error("expected other account untouched")
	}
}

func TestTasks_Views(t *testing.T) {
	s := NewTasks()
	seed(s)

	if got, want := ids(s.Today(now)), []string{"t2", "t1"}; !equalIDs(got, want) {
		t.Errorf("Today: expected %v, got %v", want, got)
	}
	if got, want := ids(s.Next7Days(now)), []string{"t2", "t3"}; !equalIDs(got, want) {
		t.Errorf("Next7Days: expected %v, got %v", want, got)
	}
	if got, want := ids(s.ByList("a-work")), []string{"t4", "t5", "t3"}; !equalIDs(got, want) {
		t.Errorf("ByList: expected %v, got %v", want, got)
	}
}

func TestTasks_SwapLeavesOneRecord(t *testing.T) {
	s := NewTasks()
	s.Put(service.Task{ID: "tmp-1", ListID: "l", Title: "new", Pending: true})

	s.Swap("tmp-1", service.Task{ID: "srv-1", ListID: "l", Title: "new"})

	all := s.All()
	if len(all) != 1 || all[0].ID != "srv-1" || all[0].Pending {
		t.Errorf("expected only confirmed srv-1, got %+v", all)
	}
}

func TestTasks_RemoveListCascades(t *testing.T) {
	s := NewTasks()
	seed(s)

	s.RemoveList("a-work")

	if len(s.ByList("a-work")) != 0 {
		t.Error("expected list tasks removed")
	}
	if len(s.ListsByAccount("acc-a")) != 1 {
		t.Errorf("expected one list left, got %v", s.ListsByAccount("acc-a"))
	}
}

func TestTasks_RemoveAccountCascades(t *testing.T) {
	s := NewTasks()
	seed(s)

	s.RemoveAccount("acc-a")

	if len(s.ByAccount("acc-a")) != 0 {
		t.Error("expected account tasks removed")
	}
	if len(s.ListsByAccount("acc-a")) != 0 {
		t.Error("expected account lists removed")
	}
	if len(s.All()) != 1 {
		t.Errorf("expected only acc-b task left, got %v", ids(s.All()))
	}
}

func TestTasks_ReadsAreCopies(t *testing.T) {
	s := NewTasks()
	due := *dayOffset(1)
	s.Put(service.Task{ID: "t1", Title: "orig", Due: &due})

	got, _ := s.Get("t1")
	got.Title = "changed"
	*got.Due = due.AddDate(1, 0, 0)

	again, _ := s.Get("t1")
	if again.Title != "orig" || !again.Due.Equal(due) {
		t.Errorf("store mutated through a read: %+v", again)
	}
}

func TestTasks_DefaultListAndFind(t *testing.T) {
	s := NewTasks()
	seed(s)

	l, ok := s.DefaultList("acc-b")
	if !ok || l.ID != "b-default" {
		t.Errorf("expected b-default, got %+v", l)
	}

	matches, ok := s.FindList("", "  work ")
	if !ok || len(matches) != 1 || matches[0].ID != "a-work" {
		t.Errorf("expected a-work, got %+v", matches)
	}
	if _, ok := s.FindList("acc-b", "Work"); ok {
		t.Error("expected no Work list for acc-b")
	}
}

func TestTasks_Subscribe(t *testing.T) {
	s := NewTasks()
	calls := 0
	cancel := s.Subscribe(func() { calls++ })

	s.Put(service.Task{ID: "t1"})
	s.Remove("t1")
	s.Remove("t1")

	if calls != 2 {
		t.Errorf("expected 2 notifications, got %d", calls)
	}

	cancel()
	s.Put(service.Task{ID: "t2"})
	if calls != 2 {
		t.Errorf("expected no notification after cancel, got %d", calls)
	}
}
