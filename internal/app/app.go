// Package app содержит основную логику приложения.
//
// App связывает запись, распознавание и генерацию ответа. Все результаты
// фоновых горутин превращаются в Event и попадают в очередь Events, которую
// читает горутина интерфейса.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zmanhcong/ask-away/internal/answer"
	"github.com/zmanhcong/ask-away/internal/audio"
	"github.com/zmanhcong/ask-away/internal/transcribe"
)

// DefaultEventBuffer - размер очереди событий.
const DefaultEventBuffer = 64

var (
	ErrClosed            = errors.New("приложение закрыто")
	ErrAnswerInProgress  = errors.New("ответ уже генерируется")
	ErrRecordingNotFound = errors.New("запись не активна")
)

// EventKind тип события.
type EventKind int

const (
	EventModelLoaded EventKind = iota
	EventModelFailed
	EventRecordingStopped
	EventPartial
	EventTranscript
	EventAnswer
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventModelLoaded:
		return "model_loaded"
	case EventModelFailed:
		return "model_failed"
	case EventRecordingStopped:
		return "recording_stopped"
	case EventPartial:
		return "partial"
	case EventTranscript:
		return "transcript"
	case EventAnswer:
		return "answer"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event - результат фоновой операции.
type Event struct {
	Kind EventKind
	// Text - частичная или итоговая расшифровка, путь записи для
	// EventRecordingStopped (пусто если звук не записан).
	Text string
	// Index - номер последнего распознанного чанка для EventPartial.
	Index int
	Answer answer.Answer
	Err    error
}

// Answerer генерирует ответ на вопрос.
type Answerer interface {
	Answer(ctx context.Context, question, target string) (answer.Answer, error)
}

// Options настройки App.
type Options struct {
	// MaxDuration ограничивает длину записи (0 - без ограничения).
	MaxDuration time.Duration
	// TargetLanguage - язык второго ответа (en, ja, vi).
	TargetLanguage string
	// EventBuffer - размер очереди событий.
	EventBuffer int
}

// App представляет главное приложение.
type App struct {
	recorder *audio.Recorder
	engine   *transcribe.Engine
	answerer Answerer
	opts     Options

	events    chan Event
	quit      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	session   string // ID последней сессии, к ней относятся частичные результаты
	recording string // ID активной сессии, пусто если запись не идёт
	partials  map[int]string
	question  string
	target    string
	answering bool
	last      answer.Answer
}

// New создаёт новое приложение.
func New(recorder *audio.Recorder, engine *transcribe.Engine, answerer Answerer, opts Options) *App {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	if !answer.Supported(opts.TargetLanguage) {
		opts.TargetLanguage = answer.English
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		recorder: recorder,
		engine:   engine,
		answerer: answerer,
		opts:     opts,
		events:   make(chan Event, opts.EventBuffer),
		quit:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		partials: make(map[int]string),
		target:   opts.TargetLanguage,
	}
}

// Events возвращает очередь событий. Канал закрывается после Close.
func (a *App) Events() <-chan Event {
	return a.events
}

func (a *App) emit(ev Event) {
	select {
	case a.events <- ev:
	case <-a.quit:
	}
}

// LoadModel загружает модель распознавания в фоне.
func (a *App) LoadModel() {
	a.engine.LoadModel(func(ok bool) {
		if ok {
			a.emit(Event{Kind: EventModelLoaded})
		} else {
			a.emit(Event{Kind: EventModelFailed, Err: transcribe.ErrModelNotLoaded})
		}
	})
}

// IsRecording возвращает true если идёт запись.
func (a *App) IsRecording() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recording != ""
}

// StartRecording начинает новую сессию записи. Каждый готовый чанк сразу
// отправляется на распознавание.
func (a *App) StartRecording() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if !a.engine.IsLoaded() {
		a.mu.Unlock()
		return transcribe.ErrModelNotLoaded
	}
	if a.recording != "" {
		a.mu.Unlock()
		return audio.ErrAlreadyRecording
	}
	id := uuid.NewString()[:8]
	a.session = id
	a.recording = id
	a.partials = make(map[int]string)
	a.question = ""
	a.wg.Add(1) // горутина слежения
	a.mu.Unlock()

	err := a.recorder.Start(a.opts.MaxDuration, func(path string, index int) {
		a.onChunk(id, path, index)
	})
	if err != nil {
		a.mu.Lock()
		if a.recording == id {
			a.recording = ""
		}
		a.mu.Unlock()
		a.wg.Done()
		return err
	}

	// Close мог пройти между проверкой и запуском Recorder
	a.mu.Lock()
	closed := a.closed
	if closed && a.recording == id {
		a.recording = ""
	}
	a.mu.Unlock()
	if closed {
		a.recorder.Abort()
		a.wg.Done()
		return ErrClosed
	}

	// Слежение за автоостановкой по maxDuration или ошибке устройства
	done := a.recorder.Done()
	if done == nil {
		a.wg.Done()
	} else {
		go a.watch(id, done)
	}
	return nil
}

func (a *App) watch(id string, done <-chan struct{}) {
	defer a.wg.Done()

	select {
	case <-done:
	case <-a.quit:
		return
	}

	if _, err := a.finish(id, true); err != nil && !errors.Is(err, ErrRecordingNotFound) {
		log.Printf("Ошибка автоостановки записи: %v", err)
	}
}

// StopRecording останавливает запись и отправляет файл сессии на
// итоговое распознавание. Возвращает путь к файлу сессии, пустой путь
// если звук не записан.
//
// Вызывается из горутины, читающей Events: синхронные результаты
// возвращаются, а не отправляются в очередь. Автоостановка приходит
// событием EventRecordingStopped.
func (a *App) StopRecording() (string, error) {
	a.mu.Lock()
	id := a.recording
	a.mu.Unlock()

	if id == "" {
		return "", audio.ErrNotRecording
	}
	path, err := a.finish(id, false)
	if errors.Is(err, ErrRecordingNotFound) {
		return "", audio.ErrNotRecording
	}
	return path, err
}

// finish завершает сессию id. Только первый вызов для сессии останавливает Recorder.
// События отправляются только при автоостановке.
func (a *App) finish(id string, auto bool) (string, error) {
	a.mu.Lock()
	if a.recording != id {
		a.mu.Unlock()
		return "", ErrRecordingNotFound
	}
	a.recording = ""
	a.wg.Add(1)
	a.mu.Unlock()
	defer a.wg.Done()

	path, err := a.recorder.Stop()
	if auto {
		if err != nil {
			a.emit(Event{Kind: EventError, Err: err})
		}
		// Остановка приходит раньше итоговой расшифровки
		a.emit(Event{Kind: EventRecordingStopped, Text: path})
	}
	if err != nil || path == "" {
		return path, err
	}

	_, err = a.engine.Transcribe(path, func(text string, ok bool, jobID string) {
		a.onFinal(id, text, ok)
	}, transcribe.Options{})
	if err != nil {
		log.Printf("Не удалось отправить запись %s на распознавание: %v", path, err)
		if auto {
			a.emit(Event{Kind: EventError, Err: err})
		}
	}
	return path, err
}

func (a *App) onChunk(id, path string, index int) {
	chunkID := fmt.Sprintf("chunk-%s-%04d", id, index)
	_, err := a.engine.Transcribe(path, func(text string, ok bool, jobID string) {
		a.onPartial(id, index, text, ok)
	}, transcribe.Options{Chunk: true, ChunkID: chunkID})
	if err != nil {
		log.Printf("Чанк %d не отправлен на распознавание: %v", index, err)
		// Engine не принял чанк и не удалит его сам
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("Не удалось удалить чанк %s: %v", path, rmErr)
		}
		a.emit(Event{Kind: EventError, Err: err})
	}
}

// current сообщает, относится ли результат к последней сессии.
func (a *App) current(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session == id
}

func (a *App) onPartial(id string, index int, text string, ok bool) {
	if !ok {
		if a.current(id) {
			a.emit(Event{Kind: EventError, Err: errors.New(text)})
		}
		return
	}
	if text == "" {
		return
	}

	a.mu.Lock()
	if a.session != id {
		// Результат от предыдущей сессии
		a.mu.Unlock()
		return
	}
	a.partials[index] = text
	transcript := a.transcriptLocked()
	a.mu.Unlock()

	a.emit(Event{Kind: EventPartial, Text: transcript, Index: index})
}

func (a *App) onFinal(id, text string, ok bool) {
	if !ok {
		if a.current(id) {
			a.emit(Event{Kind: EventError, Err: errors.New(text)})
		}
		return
	}

	a.mu.Lock()
	if a.session != id {
		a.mu.Unlock()
		return
	}
	// Полная запись точнее склейки чанков, склейка остаётся запасным вариантом
	if text == "" {
		text = a.transcriptLocked()
	}
	a.question = text
	a.mu.Unlock()

	a.emit(Event{Kind: EventTranscript, Text: text})
}

// Transcript возвращает склейку частичных результатов по порядку чанков.
func (a *App) Transcript() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transcriptLocked()
}

func (a *App) transcriptLocked() string {
	indexes := make([]int, 0, len(a.partials))
	for i := range a.partials {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	parts := make([]string, 0, len(indexes))
	for _, i := range indexes {
		parts = append(parts, a.partials[i])
	}
	return strings.Join(parts, " ")
}

// Question возвращает текст вопроса: итоговую расшифровку или склейку чанков.
func (a *App) Question() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.question != "" {
		return a.question
	}
	return a.transcriptLocked()
}

// TargetLanguage возвращает язык второго ответа.
func (a *App) TargetLanguage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target
}

// SetTargetLanguage меняет язык второго ответа.
func (a *App) SetTargetLanguage(code string) error {
	if !answer.Supported(code) {
		return fmt.Errorf("%w: %q", answer.ErrUnknownLanguage, code)
	}
	a.mu.Lock()
	a.target = code
	a.mu.Unlock()
	return nil
}

// LastAnswer возвращает последний полученный ответ.
func (a *App) LastAnswer() answer.Answer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Ask генерирует ответ в фоне. Пустой question заменяется текущим вопросом.
// Результат приходит событием EventAnswer или EventError.
func (a *App) Ask(question string) error {
	if strings.TrimSpace(question) == "" {
		question = a.Question()
	}
	if strings.TrimSpace(question) == "" {
		return answer.ErrEmptyQuestion
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.answering {
		a.mu.Unlock()
		return ErrAnswerInProgress
	}
	a.answering = true
	target := a.target
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()

		ans, err := a.answerer.Answer(a.ctx, question, target)

		a.mu.Lock()
		a.answering = false
		if err == nil {
			a.last = ans
		}
		a.mu.Unlock()

		if err != nil {
			if !errors.Is(err, context.Canceled) {
				a.emit(Event{Kind: EventError, Err: err})
			}
			return
		}
		a.emit(Event{Kind: EventAnswer, Answer: ans})
	}()
	return nil
}

// Close прерывает запись, дожидается фоновых заданий и закрывает очередь событий.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.recording = ""
		a.mu.Unlock()

		close(a.quit)
		a.cancel()

		if a.recorder != nil {
			a.recorder.Close()
		}

		a.wg.Wait()

		if a.engine != nil {
			a.engine.Close()
		}

		close(a.events)
	})
}
