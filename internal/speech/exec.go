package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/zmanhcong/ask-away/internal/audio"
)

const execTimeout = 2 * time.Minute

// ExecRecognizer запускает внешнюю команду для каждого фрагмента.
// Команда получает --audio <wav> [--model <path>] [--language <lang>] и
// печатает {"text": "..."} или просто текст в stdout.
type ExecRecognizer struct {
	mu        sync.Mutex
	cmd       []string
	modelPath string
}

type execResult struct {
	Text string `json:"text"`
}

// NewExec создаёт ExecRecognizer из командной строки.
func NewExec(command, modelPath string) (*ExecRecognizer, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = true
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse stt command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("stt command is empty")
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("stt command %q: %w", args[0], err)
	}
	return &ExecRecognizer{cmd: args, modelPath: modelPath}, nil
}

// Name возвращает название движка.
func (r *ExecRecognizer) Name() string {
	return "exec"
}

// Transcribe сохраняет сэмплы во временный WAV и запускает команду.
func (r *ExecRecognizer) Transcribe(samples []float32, lang string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.CreateTemp("", "askaway_stt_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	path := file.Name()
	file.Close()
	defer os.Remove(path)

	if err := audio.WriteWAV(path, samples, audio.DefaultFormat()); err != nil {
		return "", err
	}

	args := append([]string{}, r.cmd[1:]...)
	args = append(args, "--audio", path)
	if r.modelPath != "" {
		args = append(args, "--model", r.modelPath)
	}
	if lang != "" {
		args = append(args, "--language", lang)
	}

	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	defer cancel()

	command := exec.CommandContext(ctx, r.cmd[0], args...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("stt command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseExecOutput(stdout.Bytes()), nil
}

// parseExecOutput принимает JSON объект с полем text или обычный текст.
func parseExecOutput(out []byte) string {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var resp execResult
		if err := json.Unmarshal(trimmed, &resp); err == nil {
			return strings.TrimSpace(resp.Text)
		}
	}
	return string(trimmed)
}

// Close ничего не делает: процесс запускается на каждый вызов.
func (r *ExecRecognizer) Close() {}
