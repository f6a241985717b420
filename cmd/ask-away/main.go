// Ask Away - голосовой вопрос с ответом на двух языках.
//
// Записывает вопрос с микрофона, распознаёт его по чанкам во время записи и
// целиком после остановки, затем генерирует ответ на вьетнамском и целевом языке.
// Поддерживает Whisper, Vosk и внешнюю команду для распознавания речи.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/zmanhcong/ask-away/internal/answer"
	"github.com/zmanhcong/ask-away/internal/app"
	"github.com/zmanhcong/ask-away/internal/audio"
	"github.com/zmanhcong/ask-away/internal/config"
	"github.com/zmanhcong/ask-away/internal/dialog"
	"github.com/zmanhcong/ask-away/internal/i18n"
	"github.com/zmanhcong/ask-away/internal/models"
	"github.com/zmanhcong/ask-away/internal/notify"
	"github.com/zmanhcong/ask-away/internal/speech"
	"github.com/zmanhcong/ask-away/internal/transcribe"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)

	listDevices := flag.Bool("devices", false, "показать устройства ввода и выйти")
	listModels := flag.Bool("models", false, "показать доступные модели и выйти")
	flag.Parse()

	log.Printf("Ask Away %s запускается...", Version)

	config.LoadEnv()
	cfg := config.New()

	// Инициализируем язык интерфейса из конфига
	if uiLang := cfg.UILanguage(); uiLang != "" {
		i18n.SetLanguage(i18n.Language(uiLang))
	}

	if *listModels {
		list := models.GetModelsByEngine(models.Engine(cfg.Engine()))
		if len(list) == 0 {
			// exec не использует реестр
			list = models.Registry
		}
		for _, m := range list {
			fmt.Printf("%-20s %-8s %6d MB  %s\n", m.ID, m.Engine, m.Size/(1024*1024), m.Name)
		}
		return
	}

	source, err := audio.NewPortAudioSource(cfg.InputDevice())
	if err != nil {
		log.Printf("Ошибка инициализации аудио: %v", err)
		os.Exit(1)
	}

	if *listDevices {
		names, err := source.InputDevices()
		source.Close()
		if err != nil {
			log.Printf("Ошибка получения устройств: %v", err)
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	if err := run(cfg, source); err != nil {
		log.Printf("Ошибка инициализации: %v", err)
		source.Close()
		os.Exit(1)
	}
	source.Close()
}

func run(cfg *config.Config, source *audio.PortAudioSource) error {
	manager, err := models.NewManager(cfg.ModelsDir())
	if err != nil {
		return err
	}

	factory := speech.NewFactory(manager, speech.Config{
		Engine:    speech.Engine(cfg.Engine()),
		Model:     cfg.Model(),
		ModelPath: cfg.ModelPath(),
		Command:   cfg.Command(),
	})

	recorder := audio.New(source, audio.Config{
		Format: audio.Format{
			SampleRate: cfg.SampleRate(),
			Channels:   cfg.Channels(),
		},
		ChunkDuration: cfg.ChunkDuration(),
	})

	engine := transcribe.New(factory.Open, transcribe.Config{
		Language: cfg.Language(),
	})

	application := app.New(recorder, engine, answer.NewSimulator(), app.Options{
		MaxDuration:    cfg.MaxDuration(),
		TargetLanguage: cfg.TargetLanguage(),
	})
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &console{
		app:      application,
		cfg:      cfg,
		manager:  manager,
		notifier: notify.New(cfg.NotificationsEnabled()),
		dialogs:  dialog.Enabled(cfg.DialogsEnabled()),
		in:       os.Stdin,
		out:      os.Stdout,
	}
	c.run(ctx)

	log.Println("Завершение работы...")
	return nil
}
