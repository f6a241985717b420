package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV - файл не является корректным WAV.
var ErrInvalidWAV = errors.New("некорректный WAV файл")

// WriteWAV сохраняет interleaved сэмплы в 16-bit PCM WAV.
func WriteWAV(path string, samples []float32, format Format) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = toPCM16(s)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	enc := wav.NewEncoder(file, format.SampleRate, 16, format.Channels, 1)
	if err := enc.Write(buf); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("запись wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("закрытие wav encoder: %w", err)
	}

	return file.Close()
}

// ReadWAV читает PCM WAV и возвращает нормализованные сэмплы.
func ReadWAV(path string) ([]float32, Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Format{}, err
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, Format{}, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, Format{}, fmt.Errorf("декодирование wav: %w", err)
	}

	format := Format{SampleRate: int(dec.SampleRate), Channels: int(dec.NumChans)}
	depth := int(dec.BitDepth)
	if depth <= 0 || depth > 32 {
		return nil, Format{}, fmt.Errorf("%w: разрядность %d", ErrInvalidWAV, depth)
	}

	scale := float32(int64(1) << (depth - 1))
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / scale
	}

	return samples, format, nil
}

// toPCM16 переводит [-1, 1] в int16 как round(s*32767) с обрезкой по границам формата.
func toPCM16(s float32) int {
	v := math.Round(float64(s) * math.MaxInt16)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int(v)
}
