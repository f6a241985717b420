package app

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var errNothingToCopy = errors.New("нет ответа для копирования")

// CopyAnswer копирует последний ответ на целевом языке в буфер обмена.
func (a *App) CopyAnswer() error {
	text := a.LastAnswer().Target
	if text == "" {
		return errNothingToCopy
	}
	return copyToClipboard(text)
}

// copyToClipboard copies text to system clipboard.
func copyToClipboard(text string) error {
	var cmd *exec.Cmd
	switch {
	case runtime.GOOS == "darwin":
		cmd = exec.Command("pbcopy")
	case os.Getenv("WAYLAND_DISPLAY") != "":
		// Wayland: use wl-copy
		cmd = exec.Command("wl-copy")
	default:
		// X11: use xclip
		cmd = exec.Command("xclip", "-selection", "clipboard")
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
