package speech

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
)

// voskSampleRate - частота, с которой создаётся распознаватель Vosk.
const voskSampleRate = 16000.0

// VoskRecognizer реализует Recognizer через Vosk.
//
// Один распознаватель Vosk накапливает поток между AcceptWaveform, поэтому
// параллельные задания Engine выполняются по очереди под mu, а после
// каждого задания состояние сбрасывается. Частота распознавателя
// фиксирована (voskSampleRate), Engine приводит запись к ней заранее.
type VoskRecognizer struct {
	mu         sync.Mutex
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
}

// voskResult - ответ FinalResult.
type voskResult struct {
	Text string `json:"text"`
}

// NewVosk загружает модель из распакованной директории.
func NewVosk(modelPath string) (*VoskRecognizer, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("модель Vosk не найдена: %s", modelPath)
	}

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки модели Vosk: %w", err)
	}

	rec, err := vosk.NewRecognizer(model, voskSampleRate)
	if err != nil {
		model.Free()
		return nil, fmt.Errorf("создание распознавателя Vosk: %w", err)
	}

	return &VoskRecognizer{
		model:      model,
		recognizer: rec,
	}, nil
}

// Name возвращает название движка.
func (v *VoskRecognizer) Name() string {
	return "vosk"
}

// Transcribe распознаёт задание целиком. Язык задаётся моделью, lang не используется.
func (v *VoskRecognizer) Transcribe(samples []float32, _ string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer == nil {
		return "", errors.New("распознаватель Vosk закрыт")
	}

	defer v.recognizer.Reset()

	v.recognizer.AcceptWaveform(floatToPCM16(samples))
	var result voskResult
	if err := json.Unmarshal([]byte(v.recognizer.FinalResult()), &result); err != nil {
		return "", fmt.Errorf("разбор результата vosk: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// Close ждёт текущее задание и освобождает распознаватель и модель.
func (v *VoskRecognizer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}

	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
}

// floatToPCM16 конвертирует float32 [-1, 1] в little-endian int16.
func floatToPCM16(samples []float32) []byte {
	pcm16 := make([]byte, len(samples)*2)
	for i, sample := range samples {
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}
		val := int16(math.Round(float64(sample) * math.MaxInt16))
		binary.LittleEndian.PutUint16(pcm16[i*2:], uint16(val))
	}
	return pcm16
}
