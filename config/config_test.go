package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Address != ":8000" {
		t.Errorf("got address %q", cfg.Server.Address)
	}
	if cfg.Chunking.Size != 1000 || cfg.Chunking.Overlap != 100 {
		t.Errorf("got chunking %+v", cfg.Chunking)
	}
	if cfg.Session.Timeout != 30*time.Minute {
		t.Errorf("got session timeout %v", cfg.Session.Timeout)
	}
	if cfg.Provider.Kind != "local" || cfg.Provider.BaseURL != "http://localhost:8081" {
		t.Errorf("got provider %+v", cfg.Provider)
	}
	if cfg.RateLimit.Ask != 60 || cfg.RateLimit.Window != 15*time.Minute {
		t.Errorf("got rate limit %+v", cfg.RateLimit)
	}
}

func TestLoadConfig_BareEnvOverrides(t *testing.T) {
	t.Setenv("PDF_CHUNK_SIZE", "500")
	t.Setenv("PDF_CHUNK_OVERLAP", "50")
	t.Setenv("GENERATION_MODEL", "google/flan-t5-large")
	t.Setenv("SESSION_TIMEOUT", "10m")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Chunking.Size != 500 || cfg.Chunking.Overlap != 50 {
		t.Errorf("got chunking %+v", cfg.Chunking)
	}
	if cfg.Provider.Model != "google/flan-t5-large" {
		t.Errorf("got model %q", cfg.Provider.Model)
	}
	if cfg.Session.Timeout != 10*time.Minute {
		t.Errorf("got session timeout %v", cfg.Session.Timeout)
	}
}

func TestLoadConfig_PrefixedEnvOverrides(t *testing.T) {
	t.Setenv("DOCSAGE_SERVER_ADDRESS", ":9000")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Address != ":9000" {
		t.Errorf("got address %q", cfg.Server.Address)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"server": {"address": ":7070"},
		"chunking": {"size": 800, "overlap": 80},
		"provider": {"kind": "openai", "api_key": "sk-test", "model": "gpt-4o-mini"}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Errorf("got address %q", cfg.Server.Address)
	}
	if cfg.Chunking.Size != 800 {
		t.Errorf("got chunk size %d", cfg.Chunking.Size)
	}
	if cfg.Provider.Kind != "openai" || cfg.Provider.Model != "gpt-4o-mini" {
		t.Errorf("got provider %+v", cfg.Provider)
	}
	if cfg.Upload.Dir != "uploads" {
		t.Errorf("defaults must survive a partial file, got %q", cfg.Upload.Dir)
	}
}

func TestLoadConfig_InvalidChunking(t *testing.T) {
	t.Setenv("PDF_CHUNK_SIZE", "100")
	t.Setenv("PDF_CHUNK_OVERLAP", "100")

	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected an error for overlap >= size")
	}
}

func TestLoadConfig_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"provider": {"kind": "openai"}}`), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for openai provider without api key")
	}
}

func TestProviderConfigValidate(t *testing.T) {
	if err := (ProviderConfig{Kind: "ollama"}).Validate(); err == nil {
		t.Error("unknown provider kind must be rejected")
	}
	if err := (ProviderConfig{Kind: "local", BaseURL: "http://localhost:8081"}).Validate(); err != nil {
		t.Errorf("valid local provider rejected: %v", err)
	}
}
