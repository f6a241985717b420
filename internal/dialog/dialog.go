// Package dialog предоставляет GUI диалоги.
package dialog

import (
	"log"

	"github.com/ncruces/zenity"
)

// Enabled включает показ диалогов. В терминальном режиме по умолчанию выключены.
type Enabled bool

// ShowInfo показывает информационное сообщение.
func (e Enabled) ShowInfo(title, message string) {
	if !e {
		return
	}
	if err := zenity.Info(message, zenity.Title(title)); err != nil {
		log.Printf("Диалог недоступен: %v", err)
	}
}

// ShowError показывает сообщение об ошибке.
func (e Enabled) ShowError(title, message string) {
	if !e {
		return
	}
	if err := zenity.Error(message, zenity.Title(title)); err != nil {
		log.Printf("Диалог недоступен: %v", err)
	}
}

// ShowWarning показывает предупреждение.
func (e Enabled) ShowWarning(title, message string) {
	if !e {
		return
	}
	if err := zenity.Warning(message, zenity.Title(title)); err != nil {
		log.Printf("Диалог недоступен: %v", err)
	}
}
