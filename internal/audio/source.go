package audio

import "time"

// Format описывает параметры PCM потока.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat - 16kHz mono, то что ожидает Whisper.
func DefaultFormat() Format {
	return Format{SampleRate: SampleRate, Channels: Channels}
}

// Duration возвращает длительность n interleaved сэмплов.
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := n / f.Channels
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Source открывает входные аудио потоки.
type Source interface {
	Open(format Format, framesPerBuffer int) (Stream, error)
}

// Stream - открытый входной поток.
// Read блокируется до готовности следующего блока и возвращает его копию
// (interleaved float32 в диапазоне [-1, 1]).
type Stream interface {
	Start() error
	Read() ([]float32, error)
	Stop() error
	Close() error
}
