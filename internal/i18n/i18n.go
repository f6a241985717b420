// Package i18n provides internationalization support.
package i18n

import (
	"fmt"
	"sync"
)

// Language represents a UI language.
type Language string

const (
	VI Language = "vi"
	EN Language = "en"
)

var (
	mu      sync.RWMutex
	current = VI // Default language
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	VI: {
		// App
		"app_name":  "Ask Away",
		"app_usage": "Enter: bắt đầu/dừng ghi âm · ask: trả lời · lang <en|ja|vi>: ngôn ngữ đích · model [tên|rm tên]: mô hình · ui [vi|en]: giao diện · q: thoát",

		// Status
		"status_loading":          "Đang tải mô hình nhận dạng...",
		"status_ready":            "Sẵn sàng. Nhấn Enter để bắt đầu ghi âm.",
		"status_recording":        "Đang ghi âm... Hãy nói.",
		"status_transcribing":     "Đang nhận dạng...",
		"status_finished":         "Ghi âm xong. Câu hỏi hiển thị bên dưới.",
		"status_processing":       "Đang xử lý câu hỏi bằng %s...",
		"status_answered":         "Đã có câu trả lời.",
		"status_target":           "Ngôn ngữ đích: %s",
		"status_empty_transcript": "Không nhận dạng được lời nói.",
		"status_model":            "Mô hình hiện tại: %s",
		"status_model_saved":      "Đã chọn mô hình %s, khởi động lại để áp dụng.",
		"status_model_deleted":    "Đã xoá mô hình %s",
		"status_ui_language":      "Ngôn ngữ giao diện: %s",

		// Labels
		"label_question":   "Câu hỏi",
		"label_partial":    "Đang nghe",
		"label_vietnamese": "Tiếng Việt",

		// Notifications
		"notify_recording":      "Đang ghi âm...",
		"notify_recording_hint": "Hãy nói vào micro",
		"notify_ready":          "Ask Away đã sẵn sàng",
		"notify_question":       "Câu hỏi",
		"notify_answer":         "Câu trả lời",
		"notify_error":          "Lỗi",

		// Errors
		"error_model_loading":    "Mô hình vẫn đang tải...",
		"error_model_not_loaded": "Mô hình chưa được tải",
		"error_model_load":       "Không tải được mô hình",
		"error_recording":        "Lỗi ghi âm",
		"error_recognition":      "Lỗi nhận dạng",
		"error_empty_question":   "Hãy nhập câu hỏi để xử lý.",
		"error_unknown_language": "Ngôn ngữ không được hỗ trợ: %s",
		"error_unknown_command":  "Lệnh không hợp lệ: %s",
		"error_unknown_model":    "Mô hình không xác định: %s",
		"error_model_delete":     "Không xoá được mô hình",
	},

	EN: {
		// App
		"app_name":  "Ask Away",
		"app_usage": "Enter: start/stop recording · ask: answer · lang <en|ja|vi>: target language · model [name|rm name]: model · ui [vi|en]: interface · q: quit",

		// Status
		"status_loading":          "Loading recognition model...",
		"status_ready":            "Ready. Press Enter to start recording.",
		"status_recording":        "Recording... Speak now.",
		"status_transcribing":     "Transcribing...",
		"status_finished":         "Recording finished. Question text appears below.",
		"status_processing":       "Processing question in %s...",
		"status_answered":         "Answer ready.",
		"status_target":           "Target language: %s",
		"status_empty_transcript": "No speech recognized.",
		"status_model":            "Current model: %s",
		"status_model_saved":      "Model %s selected, restart to apply.",
		"status_model_deleted":    "Model %s deleted",
		"status_ui_language":      "Interface language: %s",

		// Labels
		"label_question":   "Question",
		"label_partial":    "Hearing",
		"label_vietnamese": "Vietnamese",

		// Notifications
		"notify_recording":      "Recording...",
		"notify_recording_hint": "Speak into the microphone",
		"notify_ready":          "Ask Away is ready",
		"notify_question":       "Question",
		"notify_answer":         "Answer",
		"notify_error":          "Error",

		// Errors
		"error_model_loading":    "Model is still loading...",
		"error_model_not_loaded": "Model is not loaded",
		"error_model_load":       "Failed to load model",
		"error_recording":        "Recording error",
		"error_recognition":      "Recognition error",
		"error_empty_question":   "Please provide a question to process.",
		"error_unknown_language": "Unsupported language: %s",
		"error_unknown_command":  "Unknown command: %s",
		"error_unknown_model":    "Unknown model: %s",
		"error_model_delete":     "Failed to delete model",
	},
}

// T returns the translation for the given key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if strings, ok := translations[current]; ok {
		if s, ok := strings[key]; ok {
			return s
		}
	}
	// Fallback to key itself
	return key
}

// Tf formats the translation for the given key.
func Tf(key string, args ...any) string {
	return fmt.Sprintf(T(key), args...)
}

// SetLanguage sets the current UI language. Unknown languages are ignored.
func SetLanguage(lang Language) {
	if !Supported(lang) {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	current = lang
}

// GetLanguage returns the current UI language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// AvailableLanguages returns list of supported languages.
func AvailableLanguages() []Language {
	return []Language{VI, EN}
}

// Supported reports whether lang has translations.
func Supported(lang Language) bool {
	_, ok := translations[lang]
	return ok
}

// LanguageName returns display name for a language.
func LanguageName(lang Language) string {
	switch lang {
	case VI:
		return "Tiếng Việt"
	case EN:
		return "English"
	default:
		return string(lang)
	}
}
