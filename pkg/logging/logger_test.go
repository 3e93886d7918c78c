package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// setup installs a buffered global logger and restores the global level
// afterwards.
func setup(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	cfg.Output = buf
	Setup(cfg)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })
	return buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var line map[string]any
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			t.Fatalf("invalid log line %q: %v", sc.Text(), err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		" DEBUG ": LevelDebug,
		"info":    LevelInfo,
		"warning": LevelWarn,
		"Warn":    LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}

	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  []string
	}{
		{LevelDebug, []string{"debug", "info", "warn", "error"}},
		{LevelInfo, []string{"info", "warn", "error"}},
		{LevelWarn, []string{"warn", "error"}},
		{LevelError, []string{"error"}},
		{"WARNING", []string{"warn", "error"}},
		{"bogus", []string{"info", "warn", "error"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			buf := setup(t, Config{Level: tt.level})

			logger := NewLogger("cli")
			logger.Debug().Msg("debug")
			logger.Info().Msg("info")
			logger.Warn().Msg("warn")
			logger.Error().Msg("error")

			var got []string
			for _, line := range decodeLines(t, buf) {
				got = append(got, line["message"].(string))
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("logged %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetup_Pretty(t *testing.T) {
	buf := setup(t, Config{Level: LevelInfo, Pretty: true})

	logger := NewLogger("dispatch")
	logger.Info().Msg("Dispatch loop started")

	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Errorf("expected console output, got JSON %q", out)
	}
	if !strings.Contains(out, "Dispatch loop started") {
		t.Errorf("message missing from %q", out)
	}
}

func TestControllerFetchFields(t *testing.T) {
	buf := setup(t, Config{Level: LevelDebug})

	logger := ForController(NewLogger("feed"), "restaurants")
	Fetch(logger.Debug(), "load_more", 7).Int("page", 2).Msg("Fetching page")

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}

	want := map[string]any{
		FieldComponent:  "feed",
		FieldController: "restaurants",
		FieldOperation:  "load_more",
		FieldGeneration: float64(7),
		"page":          float64(2),
		"level":         "debug",
		"message":       "Fetching page",
	}
	for k, v := range want {
		if lines[0][k] != v {
			t.Errorf("%s = %v, want %v", k, lines[0][k], v)
		}
	}
}

func TestFetch_DisabledEvent(t *testing.T) {
	buf := setup(t, Config{Level: LevelWarn})

	logger := ForController(NewLogger("feed"), "details")
	Fetch(logger.Debug(), "details", 1).Msg("Fetching details")

	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}
}
