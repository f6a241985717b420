// Package answer генерирует ответ на вопрос на вьетнамском и целевом языке.
//
// Реального ответа нет: Simulator возвращает фиксированные тексты после задержки.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultDelay - задержка имитации обработки вопроса.
const DefaultDelay = 2 * time.Second

var (
	ErrEmptyQuestion   = errors.New("пустой вопрос")
	ErrUnknownLanguage = errors.New("неподдерживаемый язык")
)

// Поддерживаемые целевые языки.
const (
	English    = "en"
	Japanese   = "ja"
	Vietnamese = "vi"
)

const (
	simulatedVI = "[Giả lập] Thủ đô của Pháp là Paris. Đây là một thành phố lịch sử và văn hóa."
	simulatedEN = "[Simulated] The capital of France is Paris. It is a historical and cultural city."
	simulatedJA = "[シミュレーション] フランスの首都はパリです。それは歴史的で文化的な都市です。"
)

// Answer - ответ на двух языках.
type Answer struct {
	Question   string
	Vietnamese string
	Target     string
	Language   string
}

// Languages возвращает коды поддерживаемых целевых языков.
func Languages() []string {
	return []string{English, Japanese, Vietnamese}
}

// LanguageName возвращает отображаемое имя языка.
func LanguageName(code string) string {
	switch code {
	case English:
		return "English"
	case Japanese:
		return "Japanese"
	case Vietnamese:
		return "Vietnamese"
	default:
		return "Unknown"
	}
}

// Supported возвращает true для поддерживаемого кода языка.
func Supported(code string) bool {
	switch code {
	case English, Japanese, Vietnamese:
		return true
	}
	return false
}

// Simulator имитирует генерацию ответа.
type Simulator struct {
	Delay time.Duration
}

// NewSimulator создаёт Simulator с задержкой по умолчанию.
func NewSimulator() *Simulator {
	return &Simulator{Delay: DefaultDelay}
}

// Answer возвращает ответ на вопрос. Блокируется на время задержки.
func (s *Simulator) Answer(ctx context.Context, question, target string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}
	if !Supported(target) {
		return Answer{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, target)
	}

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Answer{}, ctx.Err()
		}
	}

	a := Answer{
		Question:   question,
		Vietnamese: simulatedVI,
		Language:   target,
	}
	switch target {
	case English:
		a.Target = simulatedEN
	case Japanese:
		a.Target = simulatedJA
	default:
		a.Target = simulatedVI
	}
	return a, nil
}
