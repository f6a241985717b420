// Package transcribe запускает распознавание аудио файлов в фоне.
//
// Engine загружает модель один раз и выполняет каждое задание в отдельной
// горутине. Результаты приходят через callback из горутины задания, порядок
// завершения заданий не совпадает с порядком их отправки.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zmanhcong/ask-away/internal/audio"
	"github.com/zmanhcong/ask-away/internal/speech"
)

// MinFileBytes - файлы меньше этого размера считаются повреждёнными.
const MinFileBytes = 1024

var (
	ErrModelNotLoaded = errors.New("модель не загружена")
	ErrFileNotFound   = errors.New("аудио файл не найден")
	ErrJobExists      = errors.New("задание с таким ID уже выполняется")
	ErrAudioTooSmall  = errors.New("аудио файл слишком мал")
)

// Loader загружает модель. Вызывается один раз из фоновой горутины.
type Loader func(ctx context.Context) (speech.Recognizer, error)

// LoadFunc получает результат загрузки модели.
type LoadFunc func(ok bool)

// Callback получает результат задания.
// При ok=true text - распознанный текст ("" для тишины), иначе - текст ошибки.
type Callback func(text string, ok bool, jobID string)

// Options параметры задания.
type Options struct {
	// Chunk - файл является временным чанком записи и удаляется после задания.
	Chunk bool
	// ChunkID - ID задания для чанка; пустой ID заменяется сгенерированным.
	ChunkID string
}

// Config настройки Engine.
type Config struct {
	// Language - язык распознавания ("auto" для автоопределения).
	Language string
	// MinFileBytes - порог размера файла, 0 - значение по умолчанию.
	MinFileBytes int64
	// LoadTimeout ограничивает загрузку модели (0 - без ограничения).
	LoadTimeout time.Duration
}

type modelState int

const (
	stateUnloaded modelState = iota
	stateLoading
	stateLoaded
)

// Job - задание в процессе выполнения.
type Job struct {
	ID        string
	Path      string
	Chunk     bool
	Submitted time.Time

	callback Callback
}

// Engine управляет моделью и заданиями распознавания.
type Engine struct {
	load Loader
	cfg  Config

	mu         sync.Mutex
	state      modelState
	model      speech.Recognizer
	jobs       map[string]*Job
	lastResult string

	wg sync.WaitGroup
}

// New создаёт Engine. Модель не загружается до вызова LoadModel.
func New(load Loader, cfg Config) *Engine {
	if cfg.MinFileBytes <= 0 {
		cfg.MinFileBytes = MinFileBytes
	}
	return &Engine{
		load: load,
		cfg:  cfg,
		jobs: make(map[string]*Job),
	}
}

// LoadModel загружает модель в фоне. Повторный вызов во время загрузки или
// после успешной загрузки ничего не делает; после ошибки загрузку можно повторить.
func (e *Engine) LoadModel(callback LoadFunc) {
	e.mu.Lock()
	if e.state != stateUnloaded {
		e.mu.Unlock()
		return
	}
	e.state = stateLoading
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		start := time.Now()
		model, err := e.loadModel()

		e.mu.Lock()
		if err != nil {
			e.state = stateUnloaded
		} else {
			e.model = model
			e.state = stateLoaded
		}
		e.mu.Unlock()

		if err != nil {
			log.Printf("Ошибка загрузки модели: %v", err)
		} else {
			log.Printf("Модель %s загружена за %v", model.Name(), time.Since(start).Round(time.Millisecond))
		}

		if callback != nil {
			callback(err == nil)
		}
	}()
}

func (e *Engine) loadModel() (model speech.Recognizer, err error) {
	defer func() {
		if r := recover(); r != nil {
			model, err = nil, fmt.Errorf("паника при загрузке модели: %v", r)
		}
	}()

	ctx := context.Background()
	if e.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.LoadTimeout)
		defer cancel()
	}

	model, err = e.load(ctx)
	if err == nil && model == nil {
		err = errors.New("загрузчик вернул пустую модель")
	}
	return model, err
}

// IsLoaded возвращает true если модель загружена.
func (e *Engine) IsLoaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateLoaded
}

// Transcribe ставит файл в очередь на распознавание и сразу возвращает ID задания.
// Ошибка возвращается синхронно, если модель не загружена, файла нет или
// задание с таким ID уже выполняется; в этих случаях горутина не запускается.
func (e *Engine) Transcribe(path string, callback Callback, opts Options) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateLoaded {
		return "", ErrModelNotLoaded
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	id := opts.ChunkID
	if !opts.Chunk || id == "" {
		id = uuid.NewString()
	}

	// Дубликат отклоняется: перезапись потеряла бы callback первого задания
	if _, exists := e.jobs[id]; exists {
		return "", fmt.Errorf("%w: %s", ErrJobExists, id)
	}

	job := &Job{
		ID:        id,
		Path:      path,
		Chunk:     opts.Chunk,
		Submitted: time.Now(),
		callback:  callback,
	}
	e.jobs[id] = job

	e.wg.Add(1)
	go e.run(job, e.model)

	return id, nil
}

func (e *Engine) run(job *Job, model speech.Recognizer) {
	defer e.wg.Done()

	start := time.Now()
	text, err := e.process(job, model)
	e.finish(job)

	if err != nil {
		log.Printf("Ошибка распознавания %s: %v", job.ID, err)
		if job.callback != nil {
			job.callback(err.Error(), false, job.ID)
		}
		return
	}

	if text != "" {
		e.mu.Lock()
		e.lastResult = text
		e.mu.Unlock()
	}
	log.Printf("Задание %s распознано за %v (%d символов)", job.ID, time.Since(start).Round(time.Millisecond), len([]rune(text)))

	if job.callback != nil {
		job.callback(text, true, job.ID)
	}
}

// process выполняет задание. Паника движка превращается в ошибку.
func (e *Engine) process(job *Job, model speech.Recognizer) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("паника при распознавании: %v", r)
		}
	}()

	if model == nil || !e.IsLoaded() {
		return "", ErrModelNotLoaded
	}

	info, err := os.Stat(job.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, job.Path)
	}

	// Пустой файл - тишина, а не ошибка
	if info.Size() == 0 {
		return "", nil
	}
	if info.Size() < e.cfg.MinFileBytes {
		return "", fmt.Errorf("%w: %d байт", ErrAudioTooSmall, info.Size())
	}

	samples, err := loadSamples(job.Path)
	if err != nil {
		return "", err
	}
	if len(samples) == 0 {
		return "", nil
	}

	text, err = model.Transcribe(samples, e.cfg.Language)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// loadSamples читает WAV и приводит его к 16kHz mono.
func loadSamples(path string) ([]float32, error) {
	samples, format, err := audio.ReadWAV(path)
	if err != nil {
		return nil, err
	}

	samples = audio.Downmix(samples, format.Channels)
	return audio.Resample(samples, format.SampleRate, audio.SampleRate), nil
}

// finish удаляет задание из активных и временный файл чанка.
func (e *Engine) finish(job *Job) {
	e.mu.Lock()
	if e.jobs[job.ID] == job {
		delete(e.jobs, job.ID)
	}
	e.mu.Unlock()

	if job.Chunk {
		if err := os.Remove(job.Path); err != nil && !os.IsNotExist(err) {
			log.Printf("Не удалось удалить чанк %s: %v", job.Path, err)
		}
	}
}

// ActiveJobs возвращает количество выполняющихся заданий.
func (e *Engine) ActiveJobs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}

// LastResult возвращает последний непустой распознанный текст.
func (e *Engine) LastResult() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastResult
}

// Wait ждёт завершения загрузки модели и всех заданий.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close дожидается заданий и освобождает модель.
func (e *Engine) Close() {
	e.wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model != nil {
		e.model.Close()
		e.model = nil
	}
	e.state = stateUnloaded
}
