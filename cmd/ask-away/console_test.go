package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zmanhcong/ask-away/internal/config"
	"github.com/zmanhcong/ask-away/internal/i18n"
	"github.com/zmanhcong/ask-away/internal/models"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line, cmd, arg string
	}{
		{"", cmdToggle, ""},
		{"   ", cmdToggle, ""},
		{"ask", cmdAsk, ""},
		{"ASK  What is the capital of France? ", cmdAsk, "What is the capital of France?"},
		{"lang ja", cmdLang, "ja"},
		{"model rm tiny", cmdModel, "rm tiny"},
		{"exit", cmdQuit, ""},
		{"?", cmdHelp, ""},
		{"dance now", "dance", "now"},
	}
	for _, tc := range cases {
		cmd, arg := parseCommand(tc.line)
		if cmd != tc.cmd || arg != tc.arg {
			t.Fatalf("parseCommand(%q) = %q, %q; want %q, %q", tc.line, cmd, arg, tc.cmd, tc.arg)
		}
	}
}

func newTestConsole(t *testing.T) (*console, *bytes.Buffer, string) {
	t.Helper()
	for _, key := range []string{config.EnvModel, config.EnvEngine, config.EnvUILanguage} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	dir := t.TempDir()
	manager, err := models.NewManager(filepath.Join(dir, "models"))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	cfgPath := filepath.Join(dir, "config.json")
	out := &bytes.Buffer{}
	return &console{cfg: config.Load(cfgPath), manager: manager, out: out}, out, cfgPath
}

func TestModelCommand(t *testing.T) {
	c, out, cfgPath := newTestConsole(t)

	c.handle(parseCommand("model"))
	if !strings.Contains(out.String(), "whisper-tiny") || strings.Contains(out.String(), "vosk-") {
		t.Fatalf("expected whisper models only, got:\n%s", out)
	}

	c.handle(parseCommand("model base"))
	if c.cfg.Model() != "whisper-base" {
		t.Fatalf("expected whisper-base selected, got %q", c.cfg.Model())
	}
	if config.Load(cfgPath).Model() != "whisper-base" {
		t.Fatal("expected model choice persisted")
	}

	c.handle(parseCommand("model gigantic"))
	if c.cfg.Model() != "whisper-base" {
		t.Fatalf("unknown model must not change config, got %q", c.cfg.Model())
	}

	info, _ := models.Lookup("tiny")
	path := c.manager.GetModelPath(info)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("ggml"), 0o644); err != nil {
		t.Fatal(err)
	}
	c.handle(parseCommand("model rm tiny"))
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected model file removed, got %v", err)
	}
}

func TestUICommand(t *testing.T) {
	defer i18n.SetLanguage(i18n.GetLanguage())
	c, out, _ := newTestConsole(t)

	c.handle(parseCommand("ui"))
	if !strings.Contains(out.String(), "English") {
		t.Fatalf("expected language list, got:\n%s", out)
	}

	c.handle(parseCommand("ui en"))
	if i18n.GetLanguage() != i18n.EN || c.cfg.UILanguage() != "en" {
		t.Fatalf("expected EN interface, got %s/%s", i18n.GetLanguage(), c.cfg.UILanguage())
	}

	c.handle(parseCommand("ui xx"))
	if i18n.GetLanguage() != i18n.EN {
		t.Fatal("unknown language must be ignored")
	}
}
