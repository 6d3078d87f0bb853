package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.AIModel != "gpt-4o-mini" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SessionTTL != 7*24*time.Hour || cfg.ExportTimeout != 20*time.Second {
		t.Fatalf("unexpected durations %+v", cfg)
	}
	if cfg.RedisAddr != "" || cfg.OTELEndpoint != "" {
		t.Fatal("optional services are off by default")
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	env := "PORT=9090\nJWT_SECRET=from-file\nREDIS_DB=2\nEXPORT_TIMEOUT=5s\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.RedisDB != 2 || cfg.ExportTimeout != 5*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.JWTSecret != "from-env" {
		t.Fatalf("environment must win over the file, got %q", cfg.JWTSecret)
	}
}
