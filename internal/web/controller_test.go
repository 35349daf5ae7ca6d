package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tasksync/internal/orchestrator"
	"tasksync/internal/service"
	"tasksync/internal/session"
	"tasksync/internal/store"
	"tasksync/internal/testutil"
)

var fixedNow = time.Date(2026, 10, 21, 9, 0, 0, 0, time.UTC)

type apiFixture struct {
	srv     *httptest.Server
	gw      *testutil.FakeGateway
	tokens  *testutil.FakeTokens
	sess    *session.Session
	account service.Account
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{gw: testutil.NewFakeGateway(), tokens: testutil.NewFakeTokens()}

	today := time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)
	nextWeek := today.AddDate(0, 0, 5)
	f.gw.AddTask(testutil.DefaultListID, service.Task{ID: "t1", Title: "Pay rent", Due: &today, Priority: 1})
	f.gw.AddTask(testutil.DefaultListID, service.Task{ID: "t2", Title: "Dentist", Due: &nextWeek})
	f.gw.AddTask(testutil.DefaultListID, service.Task{ID: "t3", Title: "Someday"})

	s, err := session.New(session.Deps{
		Gateway: f.gw,
		Tokens:  func(*store.Accounts) orchestrator.TokenProvider { return f.tokens },
		Log:     zerolog.Nop(),
		Now:     func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	f.sess = s
	f.account, _ = s.Accounts.Upsert(service.Account{Email: "alice@example.com", Name: "Alice", AccessToken: "secret"})
	f.tokens.Set(f.account.ID, "tok-1", "tok-2")
	if err := s.Sync.Load(context.Background(), f.account.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}

	f.srv = httptest.NewServer(NewHandler(s))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestGetAccounts_HidesTokens(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/api/accounts", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	raw := decode[[]map[string]any](t, resp)
	if len(raw) != 1 {
		t.Fatalf("expected 1 account, got %d", len(raw))
	}
	if _, ok := raw[0]["accessToken"]; ok {
		t.Error("access token leaked")
	}
	if raw[0]["email"] != "alice@example.com" || raw[0]["default"] != true {
		t.Errorf("unexpected account: %v", raw[0])
	}
}

func TestGetLists(t *testing.T) {
	f := newAPIFixture(t)

	lists := decode[[]ListView](t, f.do(t, http.MethodGet, "/api/lists?account="+f.account.ID, ""))
	if len(lists) != 1 || !lists[0].Default || lists[0].AccountID != f.account.ID {
		t.Errorf("unexpected lists: %+v", lists)
	}
}

func TestGetTasks_Views(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"t1", "t2", "t3"}},
		{"?view=today", []string{"t1"}},
		{"?view=week", []string{"t1", "t2"}},
		{"?list=other", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			tasks := decode[[]TaskView](t, f.do(t, http.MethodGet, "/api/tasks"+tt.query, ""))
			var got []string
			for _, task := range tasks {
				got = append(got, task.ID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if resp := f.do(t, http.MethodGet, "/api/tasks?view=month", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown view, got %d", resp.StatusCode)
	}
}

func TestCreateTask_QuickAdd(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/tasks", `{"text":"buy milk tomorrow !2"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	task := decode[TaskView](t, resp)
	if task.Title != "buy milk" || task.Due != "2026-10-22" || task.Priority != 2 {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.AccountID != f.account.ID || task.Pending {
		t.Errorf("expected confirmed task on default account: %+v", task)
	}
}

func TestCreateTask_Errors(t *testing.T) {
	f := newAPIFixture(t)

	if resp := f.do(t, http.MethodPost, "/api/tasks", `{"text":"   "}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty title, got %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodPost, "/api/tasks", `not json`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad payload, got %d", resp.StatusCode)
	}

	f.gw.CreateTaskErr = testutil.Transient()
	if resp := f.do(t, http.MethodPost, "/api/tasks", `{"text":"x"}`); resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502 for backend failure, got %d", resp.StatusCode)
	}
	if n := len(f.sess.Tasks.All()); n != 3 {
		t.Errorf("expected rollback to 3 tasks, got %d", n)
	}
}

func TestUpdateTask(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPatch, "/api/tasks/t3", `{"title":"Some day soon","due":"2026-10-25","priority":3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	task := decode[TaskView](t, resp)
	if task.Title != "Some day soon" || task.Due != "2026-10-25" || task.Priority != 3 {
		t.Errorf("unexpected task: %+v", task)
	}

	resp = f.do(t, http.MethodPatch, "/api/tasks/t3", `{"due":""}`)
	if task := decode[TaskView](t, resp); task.Due != "" {
		t.Errorf("expected due cleared, got %q", task.Due)
	}

	if resp := f.do(t, http.MethodPatch, "/api/tasks/t3", `{"due":"next tuesday"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodPatch, "/api/tasks/t3", `{"priority":9}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad priority, got %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodPatch, "/api/tasks/missing", `{"title":"x"}`); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestToggleTask(t *testing.T) {
	f := newAPIFixture(t)

	task := decode[TaskView](t, f.do(t, http.MethodPost, "/api/tasks/t1/toggle", ""))
	if !task.Completed {
		t.Error("expected completed after toggle")
	}
	task = decode[TaskView](t, f.do(t, http.MethodPost, "/api/tasks/t1/toggle", ""))
	if task.Completed {
		t.Error("expected reopened after second toggle")
	}
}

func TestDeleteTask(t *testing.T) {
	f := newAPIFixture(t)

	if resp := f.do(t, http.MethodDelete, "/api/tasks/t2", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if _, ok := f.sess.Tasks.Get("t2"); ok {
		t.Error("expected task removed")
	}
}

func TestSessionExpired(t *testing.T) {
	f := newAPIFixture(t)
	f.gw.ExpiredTokens["tok-1"] = true
	f.gw.ExpiredTokens["tok-2"] = true

	if resp := f.do(t, http.MethodDelete, "/api/tasks/t2", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
	if _, ok := f.sess.Tasks.Get("t2"); !ok {
		t.Error("expected task restored after rollback")
	}
}

func TestRefresh(t *testing.T) {
	f := newAPIFixture(t)
	f.gw.AddTask(testutil.DefaultListID, service.Task{ID: "t4", Title: "New elsewhere"})

	if resp := f.do(t, http.MethodPost, "/api/refresh", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if _, ok := f.sess.Tasks.Get("t4"); !ok {
		t.Error("expected remote task after refresh")
	}
}
