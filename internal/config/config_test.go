package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load("")
	if cfg.Model() != "tiny" {
		t.Fatalf("expected default model tiny, got %q", cfg.Model())
	}
	if cfg.SampleRate() != 16000 || cfg.Channels() != 1 {
		t.Fatalf("unexpected audio defaults %d/%d", cfg.SampleRate(), cfg.Channels())
	}
	if cfg.ChunkDuration() != 3*time.Second {
		t.Fatalf("expected 3s chunks, got %v", cfg.ChunkDuration())
	}
	if !cfg.NotificationsEnabled() || cfg.DialogsEnabled() {
		t.Fatal("unexpected notification defaults")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data, _ := json.Marshal(map[string]any{
		"model":           "small",
		"target_language": "ja",
		"chunk_seconds":   2.5,
		"notifications":   false,
	})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvModel, "medium")
	t.Setenv(EnvMaxSeconds, "5")
	t.Setenv(EnvDialogs, "true")

	cfg := Load(path)
	if cfg.Model() != "medium" {
		t.Fatalf("expected env override, got %q", cfg.Model())
	}
	if cfg.TargetLanguage() != "ja" {
		t.Fatalf("expected file value ja, got %q", cfg.TargetLanguage())
	}
	if cfg.ChunkDuration() != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s chunks, got %v", cfg.ChunkDuration())
	}
	if cfg.MaxDuration() != 5*time.Second {
		t.Fatalf("expected 5s max, got %v", cfg.MaxDuration())
	}
	if cfg.NotificationsEnabled() {
		t.Fatal("expected notifications disabled from file")
	}
	if !cfg.DialogsEnabled() {
		t.Fatal("expected dialogs enabled from env")
	}
	// Неуказанные в файле поля сохраняют значения по умолчанию
	if cfg.SampleRate() != 16000 {
		t.Fatalf("expected default sample rate, got %d", cfg.SampleRate())
	}
}

func TestInvalidEnvIgnored(t *testing.T) {
	t.Setenv(EnvChunkSeconds, "soon")
	t.Setenv(EnvChannels, "-2")

	cfg := Load("")
	if cfg.ChunkDuration() != 3*time.Second {
		t.Fatalf("expected default chunk, got %v", cfg.ChunkDuration())
	}
	if cfg.Channels() != 1 {
		t.Fatalf("expected default channels, got %d", cfg.Channels())
	}
}

func TestSetterPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Load(path)
	cfg.SetTargetLanguage("vi")
	cfg.ToggleNotifications()

	reloaded := Load(path)
	if reloaded.TargetLanguage() != "vi" {
		t.Fatalf("expected persisted target language, got %q", reloaded.TargetLanguage())
	}
	if reloaded.NotificationsEnabled() {
		t.Fatal("expected persisted notifications toggle")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("WHISPER_MODEL=base\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvModel, "")
	os.Unsetenv(EnvModel)

	LoadEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	if got := os.Getenv(EnvModel); got != "base" {
		t.Fatalf("expected WHISPER_MODEL from .env, got %q", got)
	}
	if Load("").Model() != "base" {
		t.Fatal("expected config to pick up .env value")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "model: base\nengine: vosk\nchunk_seconds: 1.5\ndialogs: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)
	if cfg.Model() != "base" || cfg.Engine() != "vosk" {
		t.Fatalf("unexpected model/engine %q/%q", cfg.Model(), cfg.Engine())
	}
	if cfg.ChunkDuration() != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s chunks, got %v", cfg.ChunkDuration())
	}

	cfg.SetModel("small")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "model: small") {
		t.Fatalf("expected YAML on save, got:\n%s", data)
	}
}

func TestNewUsesConfigEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	if err := os.WriteFile(path, []byte(`{"target_language": "vi"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfig, path)

	if got := New().TargetLanguage(); got != "vi" {
		t.Fatalf("expected target language from %s, got %q", EnvConfig, got)
	}
}

func TestSetterKeepsEnvOutOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"model": "small"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvModel, "large")
	t.Setenv(EnvDialogs, "true")

	cfg := Load(path)
	if cfg.Model() != "large" {
		t.Fatalf("expected env model, got %q", cfg.Model())
	}
	cfg.SetTargetLanguage("ja")
	cfg.SetUILanguage("en")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var saved configData
	if err := json.Unmarshal(raw, &saved); err != nil {
		t.Fatal(err)
	}
	if saved.Model != "small" {
		t.Fatalf("env model leaked into file: %q", saved.Model)
	}
	if saved.Dialogs {
		t.Fatal("env dialogs leaked into file")
	}
	if saved.TargetLanguage != "ja" || saved.UILanguage != "en" {
		t.Fatalf("expected changed keys saved, got %q/%q", saved.TargetLanguage, saved.UILanguage)
	}
	// Переопределение окружения продолжает действовать
	if cfg.Model() != "large" || cfg.UILanguage() != "en" {
		t.Fatalf("unexpected effective values %q/%q", cfg.Model(), cfg.UILanguage())
	}
}
