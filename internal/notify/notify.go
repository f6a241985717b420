// Package notify предоставляет системные уведомления.
package notify

import (
	"sync/atomic"

	"github.com/gen2brain/beeep"

	"github.com/zmanhcong/ask-away/internal/i18n"
)

const appName = "Ask Away"

const maxMessageRunes = 100

// sendFunc отправляет уведомление, подменяется в тестах.
type sendFunc func(title, message string) error

// Notifier отправляет системные уведомления.
type Notifier struct {
	enabled atomic.Bool
	send    sendFunc
}

// New создаёт новый Notifier.
func New(enabled bool) *Notifier {
	n := &Notifier{send: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
	n.enabled.Store(enabled)
	return n
}

// SetEnabled включает/выключает уведомления.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// Recording показывает уведомление о начале записи.
func (n *Notifier) Recording() {
	n.notify(i18n.T("notify_recording"), i18n.T("notify_recording_hint"))
}

// Ready показывает уведомление о загрузке модели.
func (n *Notifier) Ready() {
	n.notify("", i18n.T("notify_ready"))
}

// Question показывает распознанный вопрос.
func (n *Notifier) Question(text string) {
	n.notify(i18n.T("notify_question"), truncate(text))
}

// Answer показывает ответ на целевом языке.
func (n *Notifier) Answer(text string) {
	n.notify(i18n.T("notify_answer"), truncate(text))
}

// Error показывает уведомление об ошибке.
func (n *Notifier) Error(msg string) {
	n.notify(i18n.T("notify_error"), msg)
}

// truncate обрезает текст по рунам, чтобы не резать UTF-8 посередине символа.
func truncate(text string) string {
	r := []rune(text)
	if len(r) > maxMessageRunes {
		return string(r[:maxMessageRunes]) + "..."
	}
	return text
}

func (n *Notifier) notify(title, message string) {
	if !n.enabled.Load() {
		return
	}
	// Игнорируем ошибки уведомлений - они не критичны
	if title != "" {
		_ = n.send(appName+": "+title, message)
	} else {
		_ = n.send(appName, message)
	}
}
