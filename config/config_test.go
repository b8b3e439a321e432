package config

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(filepath.Join(dir, "missing.json"), filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	if s != Defaults() {
		t.Fatalf("settings = %+v, want defaults", s)
	}
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	settings := write(t, dir, "settings.json", `{"listen": ":8080", "seed_prefix": "gala", "session_key": "from-json"}`)
	dotenv := write(t, dir, ".env", "AURORA_SESSION_KEY=from-dotenv\nAURORA_REDUCED_MOTION=true\n")
	t.Setenv("AURORA_LISTEN", ":9090")
	defer os.Unsetenv("AURORA_SESSION_KEY")
	defer os.Unsetenv("AURORA_REDUCED_MOTION")

	s, err := Load(settings, dotenv)
	if err != nil {
		t.Fatal(err)
	}

	if s.Listen != ":9090" {
		t.Errorf("Listen = %q, environment should win", s.Listen)
	}
	if s.SeedPrefix != "gala" {
		t.Errorf("SeedPrefix = %q, want settings.json value", s.SeedPrefix)
	}
	if s.SessionKey != "from-dotenv" || !s.ReducedMotion {
		t.Errorf(".env not applied: %+v", s)
	}
	if s.CatalogPath != Defaults().CatalogPath {
		t.Errorf("CatalogPath = %q, want default", s.CatalogPath)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{"listen":`},
		{"unknown driver", `{"database_driver": "mongo"}`},
		{"postgres without url", `{"database_driver": "postgres"}`},
		{"empty prefix", `{"seed_prefix": ""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := write(t, dir, "settings.json", tt.body)
			if _, err := Load(p, filepath.Join(dir, "none.env")); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
