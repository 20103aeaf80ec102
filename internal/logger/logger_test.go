package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func lastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}

func TestLogger_IncludesStackAndServiceOnError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "orbit-test", "debug")
	log.Error().Stack().Err(errors.New("boom")).Msg("something failed")

	line := lastNonEmptyLine(buf.String())
	if line == "" {
		t.Fatalf("no output captured")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("invalid json log: %v\n%s", err, line)
	}
	if svc, ok := payload["service"].(string); !ok || svc != "orbit-test" {
		t.Fatalf("expected service=\"orbit-test\", got %v", payload["service"])
	}
	if lvl, ok := payload["level"].(string); !ok || lvl != "error" {
		t.Fatalf("expected level=\"error\", got %v", payload["level"])
	}
	if _, ok := payload["stack"]; !ok {
		t.Fatalf("expected stack field in error log: %s", line)
	}
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "orbit-test", "warn")
	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %s", buf.String())
	}

	buf.Reset()
	log = NewWithWriter(&buf, "orbit-test", "nonsense")
	log.Info().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unknown level should fall back to info")
	}
}
