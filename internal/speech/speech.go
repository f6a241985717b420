// Package speech предоставляет абстракцию для движков распознавания речи.
package speech

// Engine тип движка распознавания.
type Engine string

const (
	// EngineWhisper - whisper.cpp движок.
	EngineWhisper Engine = "whisper"
	// EngineVosk - Vosk движок.
	EngineVosk Engine = "vosk"
	// EngineExec - внешняя команда, печатающая JSON с текстом.
	EngineExec Engine = "exec"
)

// Recognizer - интерфейс для движков распознавания речи.
//
// Реализации сериализуют вызовы Transcribe внутренним мьютексом, поэтому
// один экземпляр можно использовать из нескольких горутин.
type Recognizer interface {
	// Transcribe распознаёт речь из аудио сэмплов.
	// samples - аудио данные в формате float32, 16kHz, mono.
	// lang - язык распознавания ("vi", "en", "auto" для автоопределения).
	// Возвращает распознанный текст или ошибку.
	Transcribe(samples []float32, lang string) (string, error)

	// Close освобождает ресурсы движка.
	Close()

	// Name возвращает название движка (для логирования).
	Name() string
}

// Config содержит общие настройки для создания распознавателя.
type Config struct {
	// Engine - тип движка (whisper, vosk, exec).
	Engine Engine

	// Model - имя модели из реестра ("tiny", "medium", "vosk-vn-small").
	Model string

	// ModelPath - путь к локальной модели; если существует, важнее Model.
	ModelPath string

	// Command - команда для EngineExec.
	Command string
}
