// Package audio предоставляет запись аудио с микрофона с нарезкой на чанки.
package audio

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	// SampleRate - частота дискретизации (требование Whisper).
	SampleRate = 16000
	// Channels - количество каналов (mono).
	Channels = 1
	// FramesPerBuffer - размер буфера.
	FramesPerBuffer = 1024
	// DefaultChunkDuration - длительность чанка для промежуточного распознавания.
	DefaultChunkDuration = 3 * time.Second
	// DefaultPollInterval - как часто цикл записи проверяет флаг остановки.
	DefaultPollInterval = 100 * time.Millisecond

	blockQueueSize = 512
)

var (
	ErrAlreadyRecording = errors.New("запись уже идёт")
	ErrNotRecording     = errors.New("запись не запущена")
	ErrNoInputDevice    = errors.New("устройство ввода не найдено")
)

// ChunkFunc получает путь к файлу чанка и его порядковый номер (с 1).
// Вызывается из горутины записи, а не из горутины вызвавшей Start.
type ChunkFunc func(path string, index int)

// Config настройки Recorder.
type Config struct {
	Format          Format
	FramesPerBuffer int
	ChunkDuration   time.Duration
	PollInterval    time.Duration
	// Dir - директория для файлов чанков и сессий.
	Dir string
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		Format:          DefaultFormat(),
		FramesPerBuffer: FramesPerBuffer,
		ChunkDuration:   DefaultChunkDuration,
		PollInterval:    DefaultPollInterval,
		Dir:             os.TempDir(),
	}
}

// Recorder записывает аудио с микрофона.
type Recorder struct {
	cfg    Config
	source Source

	mu       sync.Mutex
	current  *session
	lastPath string
}

// session - одна запись от Start до Stop.
type session struct {
	id          string
	stream      Stream
	maxDuration time.Duration
	onChunk     ChunkFunc

	stop       chan struct{} // закрывается Stop/Abort
	quit       chan struct{} // закрывается циклом записи для остановки чтения
	done       chan struct{} // закрывается по завершении цикла записи
	readerDone chan struct{}
	failed     chan error
	blocks     chan []float32

	// samples принадлежит циклу записи до закрытия done, затем Stop.
	samples []float32
	chunks  int
	aborted atomic.Bool
}

// New создаёт Recorder поверх источника звука.
func New(source Source, cfg Config) *Recorder {
	def := DefaultConfig()
	if cfg.Format.SampleRate <= 0 {
		cfg.Format.SampleRate = def.Format.SampleRate
	}
	if cfg.Format.Channels <= 0 {
		cfg.Format.Channels = def.Format.Channels
	}
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = def.FramesPerBuffer
	}
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = def.ChunkDuration
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.Dir == "" {
		cfg.Dir = def.Dir
	}

	return &Recorder{cfg: cfg, source: source}
}

// Format возвращает формат записываемого аудио.
func (r *Recorder) Format() Format {
	return r.cfg.Format
}

// Start начинает запись.
// maxDuration ограничивает длину сессии (0 - без ограничения), onChunk может быть nil.
func (r *Recorder) Start(maxDuration time.Duration, onChunk ChunkFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		return ErrAlreadyRecording
	}

	stream, err := r.source.Open(r.cfg.Format, r.cfg.FramesPerBuffer)
	if err != nil {
		return err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("ошибка запуска потока: %w", err)
	}

	s := &session{
		id:          uuid.NewString()[:8],
		stream:      stream,
		maxDuration: maxDuration,
		onChunk:     onChunk,
		stop:        make(chan struct{}),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		readerDone:  make(chan struct{}),
		failed:      make(chan error, 1),
		blocks:      make(chan []float32, blockQueueSize),
		samples:     make([]float32, 0, r.cfg.Format.SampleRate*r.cfg.Format.Channels*30), // Буфер на 30 сек
	}
	r.current = s

	go r.readLoop(s)
	go r.recordLoop(s)

	log.Printf("Запись начата (сессия %s)", s.id)
	return nil
}

// readLoop перекладывает блоки из потока в очередь сессии.
func (r *Recorder) readLoop(s *session) {
	defer close(s.readerDone)

	for {
		select {
		case <-s.quit:
			return
		default:
		}

		block, err := s.stream.Read()
		if err != nil {
			select {
			case <-s.quit:
				// Поток остановлен намеренно
			default:
				s.failed <- err
			}
			return
		}

		select {
		case s.blocks <- block:
		case <-s.quit:
			return
		}
	}
}

func (r *Recorder) recordLoop(s *session) {
	defer close(s.done)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	start := time.Now()
	chunkStart := start
	var chunk []float32

loop:
	for {
		select {
		case <-s.stop:
			break loop
		case err := <-s.failed:
			log.Printf("Ошибка записи аудио: %v", err)
			s.aborted.Store(true)
			break loop
		case <-ticker.C:
		}

		chunk = s.drain(chunk)

		if s.maxDuration > 0 && time.Since(start) >= s.maxDuration {
			break loop
		}

		if time.Since(chunkStart) >= r.cfg.ChunkDuration && len(chunk) > 0 {
			r.flushChunk(s, chunk)
			chunk = nil
			chunkStart = time.Now()
		}
	}

	close(s.quit)
	if err := s.stream.Stop(); err != nil {
		log.Printf("Ошибка остановки потока: %v", err)
	}
	<-s.readerDone
	if err := s.stream.Close(); err != nil {
		log.Printf("Ошибка закрытия потока: %v", err)
	}

	// Блоки, прочитанные до остановки, ещё относятся к последнему чанку
	chunk = s.drain(chunk)
	if !s.aborted.Load() && len(chunk) > 0 {
		r.flushChunk(s, chunk)
	}
}

// drain забирает все блоки из очереди в буфер сессии и текущий чанк.
func (s *session) drain(chunk []float32) []float32 {
	for {
		select {
		case block := <-s.blocks:
			s.samples = append(s.samples, block...)
			chunk = append(chunk, block...)
		default:
			return chunk
		}
	}
}

func (r *Recorder) flushChunk(s *session, chunk []float32) {
	s.chunks++
	name := fmt.Sprintf("recording_chunk_%s_%04d.wav", s.id, s.chunks)
	path := filepath.Join(r.cfg.Dir, name)

	if err := WriteWAV(path, chunk, r.cfg.Format); err != nil {
		log.Printf("Ошибка сохранения чанка %d: %v", s.chunks, err)
		return
	}

	if s.onChunk != nil {
		s.onChunk(path, s.chunks)
	}
}

// Stop останавливает запись и сохраняет всю сессию в один WAV файл.
// Возвращает пустой путь если не было записано ни одного сэмпла.
func (r *Recorder) Stop() (string, error) {
	s := r.detach()
	if s == nil {
		return "", ErrNotRecording
	}

	close(s.stop)
	<-s.done

	// Забираем блоки, оставшиеся в очереди
	s.drain(nil)

	if len(s.samples) == 0 {
		log.Printf("Запись остановлена (сессия %s): нет данных", s.id)
		return "", nil
	}

	path := filepath.Join(r.cfg.Dir, fmt.Sprintf("recording_%d.wav", time.Now().UnixMilli()))
	if err := WriteWAV(path, s.samples, r.cfg.Format); err != nil {
		return "", fmt.Errorf("ошибка сохранения записи: %w", err)
	}

	r.mu.Lock()
	r.lastPath = path
	r.mu.Unlock()

	log.Printf("Запись остановлена (сессия %s): %v, %s", s.id, r.cfg.Format.Duration(len(s.samples)), path)
	return path, nil
}

// Abort прерывает запись без сохранения последнего чанка и файла сессии.
func (r *Recorder) Abort() {
	s := r.detach()
	if s == nil {
		return
	}

	s.aborted.Store(true)
	close(s.stop)
	<-s.done
	log.Printf("Запись отменена (сессия %s)", s.id)
}

func (r *Recorder) detach() *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.current
	r.current = nil
	return s
}

// Done возвращает канал, который закрывается когда цикл записи завершился
// (истёк maxDuration, ошибка устройства или Stop). Сессия при этом остаётся
// активной до вызова Stop. Для неактивного Recorder возвращает nil.
func (r *Recorder) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return nil
	}
	return r.current.done
}

// IsRecording возвращает true если сессия записи активна.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

// LastRecordingPath возвращает путь к последнему сохранённому файлу сессии.
func (r *Recorder) LastRecordingPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPath
}

// Close прерывает активную запись.
func (r *Recorder) Close() {
	r.Abort()
}
