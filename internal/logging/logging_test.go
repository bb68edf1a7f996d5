package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"ERROR":   LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn, "engine")

	l.Debugf("hidden")
	l.Infof("hidden too")
	l.Warnf("visible %d", 1)
	l.Errorf("visible %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("suppressed levels leaked: %q", out)
	}
	if !strings.Contains(out, "WARN engine: visible 1") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "ERROR engine: visible 2") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	l.Infof("no panic") // must not panic
}

func TestLogger_WithTag(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo, "daemon")
	l.WithTag("resolver").Infof("scanned")

	if !strings.Contains(buf.String(), "resolver: scanned") {
		t.Errorf("tag not applied: %q", buf.String())
	}
}
