package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_Debug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)
	log.Debug().Str("task", "t1").Msg("mutation pending")

	out := buf.String()
	if !strings.Contains(out, "mutation pending") || !strings.Contains(out, "task=t1") {
		t.Errorf("unexpected log output: %q", out)
	}
}

func TestNew_Disabled(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Warn().Msg("should not appear")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
