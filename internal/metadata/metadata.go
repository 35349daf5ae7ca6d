// Package metadata folds local-only task fields into the remote notes text.
//
// The remote service only stores free-text notes, so structured fields such
// as priority travel inside a sentinel-delimited tag at the start of the
// notes:
//
//	<tasksync:meta>{"priority":2}</tasksync:meta>
//	user notes...
//
// No other package builds or parses the tag.
package metadata

import (
	"encoding/json"
	"regexp"
	"strings"

	"tasksync/internal/service"
)

const (
	// Prefix opens the metadata tag.
	Prefix = "<tasksync:meta>"

	// Suffix closes the metadata tag.
	Suffix = "</tasksync:meta>"
)

// tagPattern matches one tag and the newline that separates it from the notes.
var tagPattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(Prefix) + `(.*?)` + regexp.QuoteMeta(Suffix) + `\n?`)

// payload is the record stored between the sentinels.
// Unknown keys are ignored so newer writers do not break older readers.
type payload struct {
	Priority int `json:"priority,omitempty"`
}

// Decoded is the result of Decode.
type Decoded struct {
	Priority int
	Notes    string
}

// Encode returns the remote notes for the given user notes and priority.
// Any tag already present in notes is stripped first. The default priority
// is never written: it is the absence of a tag.
func Encode(notes string, priority int) string {
	clean := Strip(notes)
	if !service.ValidPriority(priority) || priority == service.DefaultPriority {
		return clean
	}

	data, err := json.Marshal(payload{Priority: priority})
	if err != nil {
		return clean
	}

	tag := Prefix + string(data) + Suffix
	if clean == "" {
		return tag
	}
	return tag + "\n" + clean
}

// Decode splits remote notes into the priority and the user-visible notes.
// Malformed metadata degrades to the default priority; it never fails.
func Decode(notes string) Decoded {
	m := tagPattern.FindStringSubmatch(notes)
	if m == nil {
		return Decoded{Priority: service.DefaultPriority, Notes: notes}
	}

	out := Decoded{Priority: service.DefaultPriority, Notes: Strip(notes)}

	var p payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &p); err != nil {
		return out
	}
	if service.ValidPriority(p.Priority) {
		out.Priority = p.Priority
	}
	return out
}

// Strip removes every metadata tag from notes.
func Strip(notes string) string {
	if !strings.Contains(notes, Prefix) {
		return notes
	}
	return tagPattern.ReplaceAllString(notes, "")
}

// HasTag reports whether notes carries a metadata tag.
func HasTag(notes string) bool {
	return tagPattern.MatchString(notes)
}
