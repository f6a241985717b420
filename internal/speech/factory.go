package speech

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/zmanhcong/ask-away/internal/models"
)

// Factory создаёт распознаватель по настройкам.
type Factory struct {
	manager *models.Manager
	cfg     Config
}

// NewFactory создаёт фабрику распознавателей.
func NewFactory(manager *models.Manager, cfg Config) *Factory {
	if cfg.Engine == "" {
		cfg.Engine = EngineWhisper
	}
	return &Factory{
		manager: manager,
		cfg:     cfg,
	}
}

// Open загружает модель и создаёт распознаватель.
// Локальный ModelPath, если он существует, важнее модели из реестра;
// модель из реестра при необходимости скачивается.
func (f *Factory) Open(ctx context.Context) (Recognizer, error) {
	if f.cfg.Engine == EngineExec {
		rec, err := NewExec(f.cfg.Command, f.cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}

	if f.cfg.ModelPath != "" {
		if _, err := os.Stat(f.cfg.ModelPath); err == nil {
			log.Printf("Загрузка модели из локального пути: %s", f.cfg.ModelPath)
			return open(f.cfg.Engine, f.cfg.ModelPath)
		}
		log.Printf("Локальная модель %s не найдена, используем %q", f.cfg.ModelPath, f.cfg.Model)
	}

	info, err := models.Lookup(f.cfg.Model)
	if err != nil {
		return nil, err
	}
	if f.manager == nil {
		return nil, fmt.Errorf("модель %s недоступна: нет менеджера моделей", info.ID)
	}

	path, err := f.manager.Ensure(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("модель не скачана: %s: %w", info.Name, err)
	}

	return open(Engine(info.Engine), path)
}

func open(engine Engine, path string) (Recognizer, error) {
	var rec Recognizer
	var err error

	switch engine {
	case EngineWhisper:
		rec, err = NewWhisperFromFile(path)
	case EngineVosk:
		rec, err = NewVosk(path)
	default:
		return nil, fmt.Errorf("неизвестный движок: %s", engine)
	}

	if err != nil {
		return nil, fmt.Errorf("ошибка создания распознавателя: %w", err)
	}
	return rec, nil
}
