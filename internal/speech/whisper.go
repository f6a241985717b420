package speech

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperRecognizer реализует Recognizer через whisper.cpp.
//
// transcribe.Engine запускает горутину на каждое задание, поэтому чанки и
// файл сессии приходят в Transcribe одновременно. Вызовы выполняются по
// одному под mu, каждый со своим контекстом whisper. После Close
// Transcribe возвращает ошибку, а не обращается к освобождённой модели.
type WhisperRecognizer struct {
	mu    sync.Mutex
	model whisper.Model
}

// NewWhisperFromFile загружает ggml модель. Вызывается из фоновой загрузки Engine.
func NewWhisperFromFile(modelPath string) (*WhisperRecognizer, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("загрузка модели whisper %q: %w", modelPath, err)
	}

	return &WhisperRecognizer{
		model: model,
	}, nil
}

// Name возвращает название движка.
func (w *WhisperRecognizer) Name() string {
	return "whisper"
}

// Transcribe распознаёт моно 16 кГц сэмплы. Пустой lang и "auto" включают автодетект.
func (w *WhisperRecognizer) Transcribe(samples []float32, lang string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model == nil {
		return "", errors.New("модель whisper закрыта")
	}

	ctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("создание контекста: %w", err)
	}

	ctx.SetTranslate(false)
	if lang != "" {
		if err := ctx.SetLanguage(lang); err != nil {
			return "", fmt.Errorf("язык %q: %w", lang, err)
		}
	}

	if err := ctx.Process(samples, nil, nil); err != nil {
		return "", fmt.Errorf("обработка аудио: %w", err)
	}

	return joinSegments(ctx)
}

// joinSegments склеивает сегменты контекста в одну строку.
func joinSegments(ctx whisper.Context) (string, error) {
	var text strings.Builder
	for {
		segment, err := ctx.NextSegment()
		if errors.Is(err, io.EOF) {
			return strings.TrimSpace(text.String()), nil
		}
		if err != nil {
			return "", fmt.Errorf("чтение сегмента: %w", err)
		}
		text.WriteString(segment.Text)
	}
}

// Close ждёт текущий вызов Transcribe и освобождает модель. Повторный вызов безопасен.
func (w *WhisperRecognizer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
}
