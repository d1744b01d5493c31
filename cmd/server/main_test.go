package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/riskcare/risk-server/internal/config"
	"github.com/riskcare/risk-server/internal/ensemble"
)

func TestParseFeatures(t *testing.T) {
	got, err := parseFeatures([]string{"glucose=180", " bmi = 38.5 ", "notes="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["glucose"] != "180" || got["bmi"] != "38.5" {
		t.Fatalf("unexpected features: %v", got)
	}
	if v, ok := got["notes"]; !ok || v != "" {
		t.Fatalf("expected blank value to be kept as missing, got %v", got)
	}
}

func TestParseFeaturesRejectsBadPairs(t *testing.T) {
	for _, in := range []string{"glucose", "=5"} {
		if _, err := parseFeatures([]string{in}); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestNewLoggerLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"WARN":  zerolog.WarnLevel,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	}
	for in, want := range cases {
		logger := newLogger(&config.Config{LogLevel: in, LogFormat: "json"})
		if got := logger.GetLevel(); got != want {
			t.Fatalf("level %q: expected %s, got %s", in, want, got)
		}
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"serve", "migrate", "score"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected %s subcommand, got %v (%v)", name, cmd, err)
		}
	}
	if cmd, _, err := root.Find([]string{"migrate", "status"}); err != nil || cmd.Name() != "status" {
		t.Fatalf("expected migrate status subcommand, got %v", err)
	}
}

func TestScoreCommand(t *testing.T) {
	t.Setenv("ENABLE_DB", "false")
	t.Setenv("ENSEMBLE_TRAINING_SAMPLES", "400")

	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"score", "--disease", "Heart", "-f", "age=63", "-f", "cholesterol=290", "-f", "max_hr=120"})
	if err := root.Execute(); err != nil {
		t.Fatalf("score failed: %v\n%s", err, out.String())
	}

	var res ensemble.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("expected JSON result, got %q: %v", out.String(), err)
	}
	if res.Disease != ensemble.Heart || res.Confidence < 0 || res.Confidence > 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Parameters["cholesterol"] != 290 {
		t.Fatalf("expected coerced feature, got %v", res.Parameters)
	}
}

func TestScoreCommandUnknownDisease(t *testing.T) {
	t.Setenv("ENABLE_DB", "false")

	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"score", "--disease", "gout"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown disease") {
		t.Fatalf("expected unknown disease error, got %v", err)
	}
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("ENABLE_DB", "false")
	t.Setenv("DATABASE_URL", "")

	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"migrate", "up"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}
