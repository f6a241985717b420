package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/zmanhcong/ask-away/internal/models"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}
	path := filepath.Join(t.TempDir(), "stt.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseExecOutput(t *testing.T) {
	cases := map[string]string{
		`{"text": "  xin chào  "}`: "xin chào",
		"plain words\n":            "plain words",
		"{not json":                "{not json",
		"":                         "",
	}
	for in, want := range cases {
		if got := parseExecOutput([]byte(in)); got != want {
			t.Fatalf("parseExecOutput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExecRecognizer(t *testing.T) {
	// $1=--audio $2=<wav> $3=--language $4=<lang>
	script := writeScript(t, `test -s "$2" || exit 3
echo "{\"text\": \"lang=$4\"}"`)

	rec, err := NewExec(script, "")
	if err != nil {
		t.Fatalf("new exec: %v", err)
	}
	defer rec.Close()

	text, err := rec.Transcribe(make([]float32, 1600), "vi")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "lang=vi" {
		t.Fatalf("expected lang=vi, got %q", text)
	}
}

func TestExecRecognizerFailure(t *testing.T) {
	script := writeScript(t, `echo "model exploded" >&2
exit 1`)

	rec, err := NewExec(script, "")
	if err != nil {
		t.Fatalf("new exec: %v", err)
	}
	if _, err := rec.Transcribe(make([]float32, 160), ""); err == nil {
		t.Fatal("expected command failure")
	}
}

func TestNewExecRejectsEmptyCommand(t *testing.T) {
	if _, err := NewExec("   ", ""); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestFactoryUnknownModel(t *testing.T) {
	f := NewFactory(nil, Config{Model: "gigantic", ModelPath: filepath.Join(t.TempDir(), "missing.bin")})
	rec, err := f.Open(context.Background())
	if !errors.Is(err, models.ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil recognizer")
	}
}

func TestFactoryExecEngine(t *testing.T) {
	script := writeScript(t, `echo ok`)

	f := NewFactory(nil, Config{Engine: EngineExec, Command: script})
	rec, err := f.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if rec.Name() != "exec" {
		t.Fatalf("expected exec recognizer, got %s", rec.Name())
	}

	f = NewFactory(nil, Config{Engine: EngineExec})
	if rec, err := f.Open(context.Background()); err == nil || rec != nil {
		t.Fatal("expected error for exec engine without command")
	}
}
