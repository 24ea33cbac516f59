package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COLDREACH_CONFIG", "")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Store.Path != "vectorstore/portfolio.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
}

func TestLoadConfig_MissingExplicitFileFails(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := loadConfig("nope.yaml"); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadConfig_EnvPathBeatsDefault(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile("config.yaml", []byte("store:\n  collection: from-default\n"), 0644); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, "env.yaml")
	if err := os.WriteFile(envPath, []byte("store:\n  collection: from-env\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COLDREACH_CONFIG", envPath)

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Store.Collection != "from-env" {
		t.Errorf("Collection = %q, want from-env", cfg.Store.Collection)
	}

	flagPath := filepath.Join(dir, "flag.yaml")
	if err := os.WriteFile(flagPath, []byte("store:\n  collection: from-flag\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(flagPath)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Store.Collection != "from-flag" {
		t.Errorf("Collection = %q, want from-flag", cfg.Store.Collection)
	}
}

func TestLoadConfig_ReadsDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COLDREACH_CONFIG", "")
	t.Setenv("GROQ_API_KEY", "")
	os.Unsetenv("GROQ_API_KEY")

	if err := os.WriteFile(".env", []byte("GROQ_API_KEY=gsk-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LLM.APIKey != "gsk-dotenv" {
		t.Errorf("APIKey = %q, want value from .env", cfg.LLM.APIKey)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Python, Django", 40); got != "Python, Django" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate long = %q", got)
	}
}
