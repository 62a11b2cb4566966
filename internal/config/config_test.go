// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
platform: linkedin
url: https://example.com/search
mining:
  max_scrolls: 50
  target_count: 20
  max_stall_attempts: 5
  snapshot_every: 5
audience:
  id: aud-1
  match: all
  rules:
    - field: headline
      op: contains
      value: engineer
snapshot_path: ./data/sessions.db
outputs:
  json_path: ./out/leads.json
  csv_path: ./out/leads.csv
monitoring:
  enabled: true
log_level: debug
`

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if cfg.Platform != "linkedin" {
		t.Errorf("unexpected platform %q", cfg.Platform)
	}
	if cfg.Mining.MaxScrolls != 50 || cfg.Mining.TargetCount != 20 {
		t.Errorf("mining policy not parsed: %+v", cfg.Mining)
	}
	if cfg.Audience == nil || len(cfg.Audience.Rules) != 1 {
		t.Fatalf("audience not parsed: %+v", cfg.Audience)
	}
	if cfg.SessionID == "" {
		t.Errorf("expected generated session ID")
	}
	if cfg.Monitoring.Address != ":9090" {
		t.Errorf("expected default monitoring address, got %q", cfg.Monitoring.Address)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Platform != "linkedin" {
		t.Errorf("unexpected platform %q", cfg.Platform)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestEnvironmentSubstitution(t *testing.T) {
	t.Setenv("LM_TEST_TOKEN", "tok-123")

	yaml := `
platform: linkedin
dashboard:
  base_url: https://dash.example.com
  token: ${LM_TEST_TOKEN}
`
	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	if cfg.Dashboard.Token != "tok-123" {
		t.Errorf("expected env substitution, got %q", cfg.Dashboard.Token)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing platform", `url: https://example.com`},
		{"unknown platform", `platform: myspace`},
		{"bad log level", "platform: linkedin\nlog_level: loud"},
		{"audience and audience_id", `
platform: linkedin
audience:
  rules:
    - op: has_company
audience_id: aud-1
dashboard:
  base_url: https://dash.example.com
`},
		{"audience_id without dashboard", "platform: linkedin\naudience_id: aud-1"},
		{"bad mining policy", `
platform: linkedin
mining:
  target_count: -5
`},
		{"bad audience rule", `
platform: linkedin
audience:
  rules:
    - field: name
      op: regex
      value: ".*"
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromBytes([]byte(tt.yaml)); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestSelectorSetResolution(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("platform: linkedin"))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	sel, err := cfg.SelectorSet()
	if err != nil {
		t.Fatalf("SelectorSet failed: %v", err)
	}
	if sel.ProfileLink == "" {
		t.Errorf("expected built-in linkedin selectors")
	}

	override := `
platform: linkedin
selectors:
  profile_link: 'a.profile'
  parent_climb: 2
`
	cfg, err = LoadFromBytes([]byte(override))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	sel, err = cfg.SelectorSet()
	if err != nil {
		t.Fatalf("SelectorSet failed: %v", err)
	}
	if sel.ProfileLink != "a.profile" {
		t.Errorf("expected override selector, got %q", sel.ProfileLink)
	}
	if sel.Platform != "linkedin" {
		t.Errorf("expected platform inherited, got %q", sel.Platform)
	}
}

func TestSinksBuiltFromOutputs(t *testing.T) {
	dir := t.TempDir()
	yaml := strings.Join([]string{
		"platform: linkedin",
		"outputs:",
		"  json_path: " + filepath.Join(dir, "leads.json"),
		"  csv_path: " + filepath.Join(dir, "leads.csv"),
		"  excel_path: " + filepath.Join(dir, "leads.xlsx"),
	}, "\n")

	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	sinks, err := cfg.Sinks()
	if err != nil {
		t.Fatalf("Sinks failed: %v", err)
	}
	if len(sinks) != 3 {
		t.Fatalf("expected 3 sinks, got %d", len(sinks))
	}
	for _, sink := range sinks {
		sink.Close()
	}
}

func TestMiningDefaultsApplied(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("platform: linkedin"))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	// Zero-valued mining policy is valid; defaults land when the engine
	// is constructed.
	if err := cfg.Mining.Validate(); err != nil {
		t.Errorf("empty mining policy must validate: %v", err)
	}
	if cfg.Mining.SnapshotTTL != 0 {
		t.Errorf("load must not mutate the mining policy, got %v", cfg.Mining.SnapshotTTL)
	}
}
