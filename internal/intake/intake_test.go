package intake

import (
	"testing"
	"time"
)

var zone = time.FixedZone("UTC-7", -7*60*60)

// wednesday is 2026-10-21, mid-afternoon.
var wednesday = time.Date(2026, time.October, 21, 15, 4, 0, 0, zone)

func day(d int) time.Time {
	return time.Date(2026, time.October, d, 0, 0, 0, 0, zone)
}

var accounts = []AccountRef{
	{ID: "acc-alice", Email: "alice@x.com"},
	{ID: "acc-bob", Email: "bob@y.com"},
	{ID: "acc-work", Email: "j.doe@corp.example", Name: "Work"},
}

func TestParse_Dates(t *testing.T) {
	tests := []struct {
		input string
		now   time.Time
		title string
		due   time.Time // zero means no due date
	}{
		{"buy milk today", wednesday, "buy milk", day(21)},
		{"call mom TMR", wednesday, "call mom", day(22)},
		{"Tomorrow call mom", wednesday, "call mom", day(22)},
		{"plan next week", wednesday, "plan", day(26)},
		{"report this week", wednesday, "report", day(19)},
		{"review week", wednesday, "review", day(19)},
		{"hike this weekend", wednesday, "hike", day(24)},
		{"pay rent fri", wednesday, "pay rent", day(23)},
		{"Monday sync", wednesday, "sync", day(26)},
		{"standup wednesday", wednesday, "standup", day(28)},
		{"today tomorrow", wednesday, "tomorrow", day(21)},
		{"tomorrow then today", wednesday, "tomorrow then", day(21)},
		{"weekly report", wednesday, "weekly report", time.Time{}},
		{"nothing here", wednesday, "nothing here", time.Time{}},
		{"  spaced   out   today  ", wednesday, "spaced out", day(21)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Parse(tt.input, nil, tt.now)
			if got.Title != tt.title {
				t.Errorf("title: expected %q, got %q", tt.title, got.Title)
			}
			if tt.due.IsZero() {
				if got.Due != nil {
					t.Errorf("expected no due date, got %v", got.Due)
				}
				return
			}
			if got.Due == nil {
				t.Fatalf("expected due %v, got none", tt.due)
			}
			if !got.Due.Equal(tt.due) {
				t.Errorf("due: expected %v, got %v", tt.due, got.Due)
			}
			if got.Due.Location() != zone {
				t.Errorf("expected due in %v, got %v", zone, got.Due.Location())
			}
		})
	}
}

func TestParse_WeekdayNamingTodayMeansNextWeek(t *testing.T) {
	friday := time.Date(2026, time.October, 23, 9, 0, 0, 0, zone)
	got := Parse("friday", nil, friday)
	if got.Due == nil || !got.Due.Equal(day(30)) {
		t.Errorf("expected %v, got %v", day(30), got.Due)
	}
}

func TestParse_WeekendOnSunday(t *testing.T) {
	sunday := time.Date(2026, time.October, 25, 18, 0, 0, 0, zone)
	got := Parse("call bob this weekend", nil, sunday)
	if got.Due == nil || !got.Due.Equal(day(25)) {
		t.Errorf("expected %v, got %v", day(25), got.Due)
	}
	if got.Title != "call bob" {
		t.Errorf("expected title %q, got %q", "call bob", got.Title)
	}
}

func TestParse_WeekendOnSaturday(t *testing.T) {
	saturday := time.Date(2026, time.October, 24, 8, 0, 0, 0, zone)
	got := Parse("weekend", nil, saturday)
	if got.Due == nil || !got.Due.Equal(day(24)) {
		t.Errorf("expected %v, got %v", day(24), got.Due)
	}
}

func TestParse_NextWeekOnSunday(t *testing.T) {
	sunday := time.Date(2026, time.October, 25, 18, 0, 0, 0, zone)
	got := Parse("next week", nil, sunday)
	if got.Due == nil || !got.Due.Equal(day(26)) {
		t.Errorf("expected %v, got %v", day(26), got.Due)
	}
}

func TestParse_AccountTag(t *testing.T) {
	got := Parse("buy milk #alice tomorrow", accounts, wednesday)

	if got.Title != "buy milk" {
		t.Errorf("expected title %q, got %q", "buy milk", got.Title)
	}
	if got.AccountID != "acc-alice" {
		t.Errorf("expected account acc-alice, got %q", got.AccountID)
	}
	if got.Due == nil || !got.Due.Equal(day(22)) {
		t.Errorf("expected due %v, got %v", day(22), got.Due)
	}
}

func TestParse_AccountTagVariants(t *testing.T) {
	tests := []struct {
		input   string
		account string
		title   string
	}{
		{"#carol buy milk", "", "#carol buy milk"},
		{"#zz #bob fix sink", "acc-bob", "#zz fix sink"},
		{"#WORK deck", "acc-work", "deck"},
		{"ship it #alice2", "acc-alice", "ship it"},
		{"#ali reply", "acc-alice", "reply"},
		{"email#bob stays", "", "email#bob stays"},
		{"no tags at all", "", "no tags at all"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Parse(tt.input, accounts, wednesday)
			if got.AccountID != tt.account {
				t.Errorf("account: expected %q, got %q", tt.account, got.AccountID)
			}
			if got.Title != tt.title {
				t.Errorf("title: expected %q, got %q", tt.title, got.Title)
			}
		})
	}
}

func TestParse_HashtagIsNotADate(t *testing.T) {
	got := Parse("party #today", accounts, wednesday)
	if got.Due != nil {
		t.Errorf("expected no due date, got %v", got.Due)
	}
	if got.Title != "party #today" {
		t.Errorf("expected title unchanged, got %q", got.Title)
	}
}

func TestParse_Priority(t *testing.T) {
	got := Parse("fix bug !1 tomorrow", nil, wednesday)
	if got.Priority != 1 {
		t.Errorf("expected priority 1, got %d", got.Priority)
	}
	if got.Title != "fix bug" {
		t.Errorf("expected title %q, got %q", "fix bug", got.Title)
	}

	got = Parse("wow!2 stays", nil, wednesday)
	if got.Priority != 4 {
		t.Errorf("expected default priority, got %d", got.Priority)
	}
	if got.Title != "wow!2 stays" {
		t.Errorf("expected title unchanged, got %q", got.Title)
	}
}

func TestParse_EmptyTitleIsNotReplaced(t *testing.T) {
	got := Parse("tomorrow #alice", accounts, wednesday)
	if got.Title != "" {
		t.Errorf("expected empty title, got %q", got.Title)
	}
	if got.AccountID != "acc-alice" {
		t.Errorf("expected account acc-alice, got %q", got.AccountID)
	}
}
