package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klabast/ts-subscribe/internal/models"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yml")} {
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig(%q): %v", path, err)
		}
		if cfg.Listen != ":8080" || cfg.Timezone != "UTC" || cfg.CacheTTLSeconds != 300 || cfg.LogLevel != "info" {
			t.Errorf("LoadConfig(%q) did not yield defaults: %+v", path, cfg)
		}
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
listen: ":9000"
team_name: "Tigers"
timezone: "Asia/Hong_Kong"
cache_ttl_seconds: 60
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Listen != ":9000" || cfg.TeamName != "Tigers" || cfg.Timezone != "Asia/Hong_Kong" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.CacheTTLSeconds != 60 || cfg.LogLevel != "debug" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
}

func TestLoadConfigPartialFileNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(`team_name: "Tigers"`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TeamName != "Tigers" {
		t.Errorf("TeamName = %q", cfg.TeamName)
	}
	if cfg.Listen != ":8080" || cfg.CacheTTLSeconds != 300 {
		t.Errorf("Missing fields not normalized: %+v", cfg)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Invalid YAML should be an error")
	}
}

func TestServerUnknownTimezoneFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus_Mons"
	srv := newTestServer(t, cfg, &fakeUpstream{})

	if srv.zoneID != "UTC" || srv.zone != time.UTC {
		t.Errorf("Unknown zone should fall back to UTC, got %q", srv.zoneID)
	}
}

func TestSortEventsByStart(t *testing.T) {
	t1 := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)

	events := []models.Event{
		{ID: "4"},
		{ID: "3", Start: &t2},
		{ID: "2", Start: &t1},
		{ID: "1", Start: &t1},
	}
	SortEventsByStart(events)

	wantOrder := []string{"1", "2", "3", "4"}
	for i, want := range wantOrder {
		if events[i].ID != want {
			t.Fatalf("Order = %v, want ids %v", ids(events), wantOrder)
		}
	}
}

func ids(events []models.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}
