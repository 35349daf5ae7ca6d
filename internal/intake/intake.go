// Package intake turns one line of quick-add text into a task draft.
//
// It recognizes a due-date phrase ("today", "tmr", "next week", "fri", ...),
// an account hashtag ("#alice") and a priority marker ("!1".."!4"), removes
// them from the text and returns what is left as the title.
package intake

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"tasksync/internal/service"
)

// AccountRef is the part of an account the parser needs.
type AccountRef struct {
	ID    string
	Email string
	Name  string
}

// Result is the structured intent extracted from the text.
// Title may be empty; rejecting that is up to the caller.
type Result struct {
	Title     string
	Due       *time.Time
	AccountID string // empty when no tag matched
	Priority  int
}

type dateRule struct {
	pattern *regexp.Regexp
	resolve func(match string, today time.Time) time.Time
}

// dateRules are tried in order; the first rule with a match wins.
var dateRules = []dateRule{
	{regexp.MustCompile(`(?i)\btoday\b`), func(_ string, today time.Time) time.Time {
		return today
	}},
	{regexp.MustCompile(`(?i)\b(?:tomorrow|tmr)\b`), func(_ string, today time.Time) time.Time {
		return today.AddDate(0, 0, 1)
	}},
	{regexp.MustCompile(`(?i)\bnext\s+week\b`), func(_ string, today time.Time) time.Time {
		return mondayOf(today).AddDate(0, 0, 7)
	}},
	{regexp.MustCompile(`(?i)\b(?:this\s+)?week\b`), func(_ string, today time.Time) time.Time {
		return mondayOf(today)
	}},
	{regexp.MustCompile(`(?i)\b(?:this\s+)?weekend\b`), func(_ string, today time.Time) time.Time {
		switch today.Weekday() {
		case time.Saturday, time.Sunday:
			return today
		}
		return today.AddDate(0, 0, int(time.Saturday-today.Weekday()))
	}},
	{regexp.MustCompile(`(?i)\b(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tue|wed|thu|fri|sat|sun)\b`), func(match string, today time.Time) time.Time {
		target := weekdays[strings.ToLower(match)[:3]]
		days := (int(target) - int(today.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return today.AddDate(0, 0, days)
	}},
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

var (
	hashtagPattern  = regexp.MustCompile(`(?:^|\s)(#(\w+))`)
	priorityPattern = regexp.MustCompile(`(?:^|\s)(!([1-4]))\b`)
)

type span struct{ start, end int }

// Parse extracts a due date, an account and a priority from text.
// Relative dates resolve against now and are local midnight in now's location.
func Parse(text string, accounts []AccountRef, now time.Time) Result {
	res := Result{Priority: service.DefaultPriority}
	var cut []span

	if s, accountID, ok := matchAccount(text, accounts); ok {
		res.AccountID = accountID
		cut = append(cut, s)
	}

	if s, due, ok := matchDate(text, now); ok {
		res.Due = &due
		cut = append(cut, s)
	}

	if m := priorityPattern.FindStringSubmatchIndex(text); m != nil {
		res.Priority = int(text[m[4]] - '0')
		cut = append(cut, span{m[2], m[3]})
	}

	res.Title = strings.Join(strings.Fields(remove(text, cut)), " ")
	return res
}

// matchDate finds the first date rule with a match that is not part of a hashtag.
func matchDate(text string, now time.Time) (span, time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, rule := range dateRules {
		for _, m := range rule.pattern.FindAllStringIndex(text, -1) {
			if m[0] > 0 && text[m[0]-1] == '#' {
				continue
			}
			return span{m[0], m[1]}, rule.resolve(text[m[0]:m[1]], today), true
		}
	}
	return span{}, time.Time{}, false
}

// matchAccount returns the first hashtag that names a known account.
func matchAccount(text string, accounts []AccountRef) (span, string, bool) {
	for _, m := range hashtagPattern.FindAllStringSubmatchIndex(text, -1) {
		tag := strings.ToLower(text[m[4]:m[5]])
		for _, a := range accounts {
			if matchesAccount(tag, a) {
				return span{m[2], m[3]}, a.ID, true
			}
		}
	}
	return span{}, "", false
}

func matchesAccount(tag string, a AccountRef) bool {
	local := strings.ToLower(a.Email)
	if i := strings.Index(local, "@"); i >= 0 {
		local = local[:i]
	}
	return overlaps(tag, local) || overlaps(tag, strings.ToLower(strings.TrimSpace(a.Name)))
}

// overlaps reports whether either string contains the other.
func overlaps(tag, candidate string) bool {
	if candidate == "" {
		return false
	}
	return strings.Contains(candidate, tag) || strings.Contains(tag, candidate)
}

// remove cuts the given spans out of s. Spans must not overlap.
func remove(s string, spans []span) string {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })
	for _, sp := range spans {
		s = s[:sp.start] + " " + s[sp.end:]
	}
	return s
}

// mondayOf returns the Monday of the week containing day.
func mondayOf(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
