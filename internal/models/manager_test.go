package models

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestLookup(t *testing.T) {
	cases := map[string]string{
		"":              "whisper-tiny",
		"tiny":          "whisper-tiny",
		"Medium":        "whisper-medium",
		"whisper-large": "whisper-large",
		"vosk-vn-small": "vosk-vn-small",
	}
	for name, want := range cases {
		m, err := Lookup(name)
		if err != nil {
			t.Fatalf("lookup %q: %v", name, err)
		}
		if m.ID != want {
			t.Fatalf("lookup %q: expected %s, got %s", name, want, m.ID)
		}
	}

	if _, err := Lookup("gigantic"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestEnsureDownloadsFile(t *testing.T) {
	payload := bytes.Repeat([]byte("ggml"), 4096)
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write(payload)
	}))
	defer srv.Close()

	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	info := ModelInfo{ID: "whisper-test", Engine: EngineWhisper, Filename: "ggml-test.bin", URL: srv.URL}
	path, err := m.Ensure(context.Background(), info)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read model: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatal("downloaded model differs from payload")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temporary file should be removed")
	}

	// Повторный вызов не скачивает заново
	if _, err := m.Ensure(context.Background(), info); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if n := requests.Load(); n != 1 {
		t.Fatalf("expected 1 request, got %d", n)
	}
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	info := ModelInfo{ID: "whisper-missing", Engine: EngineWhisper, Filename: "missing.bin", URL: srv.URL}
	if err := m.Download(context.Background(), info, nil); err == nil {
		t.Fatal("expected error for 404")
	}
	if m.IsDownloaded(info) {
		t.Fatal("model must not be marked as downloaded")
	}
}

func TestDownloadUnzipsVoskModel(t *testing.T) {
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	for _, name := range []string{"vosk-model-test/am/final.mdl", "vosk-model-test/conf/model.conf"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte("data"))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive.Bytes())
	}))
	defer srv.Close()

	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	info := ModelInfo{ID: "vosk-test", Engine: EngineVosk, Filename: "vosk-model-test", URL: srv.URL, IsZip: true}
	progress := make(chan Progress, 64)
	if err := m.Download(context.Background(), info, progress); err != nil {
		t.Fatalf("download: %v", err)
	}
	if !m.IsDownloaded(info) {
		t.Fatal("expected unpacked model directory")
	}
	if _, err := os.Stat(filepath.Join(m.GetModelPath(info), "conf", "model.conf")); err != nil {
		t.Fatalf("expected extracted file: %v", err)
	}

	close(progress)
	var last Progress
	for p := range progress {
		last = p
	}
	if !last.Done {
		t.Fatal("expected final progress update")
	}
}

func TestUnzipRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.zip")

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	w, err := zw.Create("../escape.txt")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("x"))
	zw.Close()
	if err := os.WriteFile(src, archive.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := unzip(src, filepath.Join(dir, "out")); err == nil {
		t.Fatal("expected traversal error")
	}
}

func TestGetModelsByEngine(t *testing.T) {
	vosk := GetModelsByEngine(EngineVosk)
	if len(vosk) == 0 {
		t.Fatal("expected vosk models")
	}
	for _, m := range vosk {
		if m.Engine != EngineVosk || !m.IsZip {
			t.Fatalf("unexpected model %+v", m)
		}
	}
	if got := GetModelsByEngine("exec"); len(got) != 0 {
		t.Fatalf("expected no models for exec, got %d", len(got))
	}
}

func TestDeleteModel(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	info, _ := GetModel("vosk-en-small")
	dir := m.GetModelPath(info)
	if err := os.MkdirAll(filepath.Join(dir, "am"), 0o755); err != nil {
		t.Fatal(err)
	}
	if !m.IsDownloaded(info) {
		t.Fatal("expected model to be present")
	}

	if err := m.Delete(info); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if m.IsDownloaded(info) {
		t.Fatal("expected model removed")
	}
}
