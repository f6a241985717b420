// Package models управляет моделями распознавания речи.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel - модели с таким именем нет в реестре.
var ErrUnknownModel = errors.New("неизвестная модель")

// Engine тип движка распознавания.
type Engine string

const (
	EngineWhisper Engine = "whisper"
	EngineVosk    Engine = "vosk"
)

const (
	whisperBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"
	voskBaseURL    = "https://alphacephei.com/vosk/models/"
)

// ModelInfo информация о модели.
type ModelInfo struct {
	ID       string // Уникальный идентификатор: "whisper-tiny"
	Engine   Engine // Движок: whisper или vosk
	Name     string // Отображаемое имя: "Tiny"
	Filename string // Имя файла/директории: "ggml-tiny.bin"
	URL      string // URL для скачивания
	Size     int64  // Размер в байтах (для прогресса)
	IsZip    bool   // Нужно ли распаковывать
}

// Registry все доступные модели.
var Registry = []ModelInfo{
	whisperModel("tiny", "Tiny", "ggml-tiny.bin", 75),
	whisperModel("base", "Base", "ggml-base.bin", 142),
	whisperModel("small", "Small", "ggml-small.bin", 466),
	whisperModel("medium", "Medium", "ggml-medium.bin", 1500),
	whisperModel("large", "Large v3", "ggml-large-v3.bin", 3100),
	whisperModel("turbo", "Large v3 Turbo", "ggml-large-v3-turbo-q5_0.bin", 574),
	// Квантизированные модели (рекомендуется для CPU)
	whisperModel("tiny-q5", "Tiny Q5", "ggml-tiny-q5_1.bin", 32),
	whisperModel("base-q5", "Base Q5", "ggml-base-q5_1.bin", 60),
	whisperModel("small-q5", "Small Q5", "ggml-small-q5_1.bin", 190),
	whisperModel("medium-q5", "Medium Q5", "ggml-medium-q5_0.bin", 539),
	// Vosk
	voskModel("en-small", "English Small", "vosk-model-small-en-us-0.15", 40),
	voskModel("vn-small", "Vietnamese Small", "vosk-model-small-vn-0.4", 32),
	voskModel("ja-small", "Japanese Small", "vosk-model-small-ja-0.22", 48),
}

func whisperModel(name, display, filename string, sizeMB int64) ModelInfo {
	return ModelInfo{
		ID:       "whisper-" + name,
		Engine:   EngineWhisper,
		Name:     display,
		Filename: filename,
		URL:      whisperBaseURL + filename,
		Size:     sizeMB * 1024 * 1024,
	}
}

func voskModel(name, display, dirname string, sizeMB int64) ModelInfo {
	return ModelInfo{
		ID:       "vosk-" + name,
		Engine:   EngineVosk,
		Name:     display,
		Filename: dirname,
		URL:      voskBaseURL + dirname + ".zip",
		Size:     sizeMB * 1024 * 1024,
		IsZip:    true,
	}
}

// DefaultModelID модель по умолчанию.
func DefaultModelID() string {
	return "whisper-tiny"
}

// GetModel возвращает модель по ID.
func GetModel(id string) (ModelInfo, bool) {
	for _, m := range Registry {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// Lookup ищет модель по ID или короткому имени размера ("tiny", "medium").
// Короткое имя без префикса движка относится к Whisper.
func Lookup(name string) (ModelInfo, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultModelID()
	}

	if m, ok := GetModel(name); ok {
		return m, nil
	}
	if m, ok := GetModel("whisper-" + name); ok {
		return m, nil
	}
	return ModelInfo{}, fmt.Errorf("%w: %s", ErrUnknownModel, name)
}

// GetModelsByEngine возвращает модели для указанного движка.
func GetModelsByEngine(engine Engine) []ModelInfo {
	var result []ModelInfo
	for _, m := range Registry {
		if m.Engine == engine {
			result = append(result, m)
		}
	}
	return result
}
