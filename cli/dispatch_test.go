package cli

import (
	"bytes"
	"strings"
	"testing"

	"speedruntimer/run"
	"speedruntimer/timer"
)

func newSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	tm, err := timer.New(run.New())
	if err != nil {
		t.Fatalf("timer.New: %v", err)
	}
	var buf bytes.Buffer
	return &session{tm: tm, out: &buf}, &buf
}

func TestReplStartReset(t *testing.T) {
	s, buf := newSession(t)
	s.repl(strings.NewReader("start\nreset\nquit\n"))
	out := buf.String()
	if !strings.Contains(out, "ok: Started") {
		t.Errorf("expected Started in output, got %q", out)
	}
	if !strings.Contains(out, "ok: Reset") {
		t.Errorf("expected Reset in output, got %q", out)
	}
}

func TestReplUnknownCommand(t *testing.T) {
	s, buf := newSession(t)
	s.repl(strings.NewReader("bogus\n"))
	if !strings.Contains(buf.String(), "unknown command") {
		t.Errorf("expected unknown command message, got %q", buf.String())
	}
}

func TestReplStatusDoesNotPanicBeforeStart(t *testing.T) {
	s, buf := newSession(t)
	s.repl(strings.NewReader("status\n"))
	if !strings.Contains(buf.String(), "phase:") {
		t.Errorf("expected status output, got %q", buf.String())
	}
}

func TestReplSplitBeforeStartErrors(t *testing.T) {
	s, buf := newSession(t)
	s.repl(strings.NewReader("split\n"))
	if !strings.Contains(buf.String(), "error:") {
		t.Errorf("expected an error for split before start, got %q", buf.String())
	}
}
