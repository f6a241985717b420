package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/zmanhcong/ask-away/internal/answer"
	"github.com/zmanhcong/ask-away/internal/app"
	"github.com/zmanhcong/ask-away/internal/config"
	"github.com/zmanhcong/ask-away/internal/dialog"
	"github.com/zmanhcong/ask-away/internal/i18n"
	"github.com/zmanhcong/ask-away/internal/models"
	"github.com/zmanhcong/ask-away/internal/notify"
	"github.com/zmanhcong/ask-away/internal/transcribe"
)

// console - терминальный интерфейс. Команды и события обрабатываются
// в одной горутине.
type console struct {
	app      *app.App
	cfg      *config.Config
	manager  *models.Manager
	notifier *notify.Notifier
	dialogs  dialog.Enabled
	in       io.Reader
	out      io.Writer
}

// Команды терминала.
const (
	cmdToggle = ""
	cmdAsk    = "ask"
	cmdLang   = "lang"
	cmdCopy   = "copy"
	cmdNotify = "notify"
	cmdModel  = "model"
	cmdUI     = "ui"
	cmdHelp   = "help"
	cmdQuit   = "q"
)

// parseCommand разбирает строку ввода на команду и аргумент.
func parseCommand(line string) (cmd, arg string) {
	line = strings.TrimSpace(line)
	cmd, arg, _ = strings.Cut(line, " ")
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "quit", "exit":
		cmd = cmdQuit
	case "?", "h":
		cmd = cmdHelp
	}
	return cmd, strings.TrimSpace(arg)
}

func (c *console) run(ctx context.Context) {
	commands := make(chan string)
	go func() {
		defer close(commands)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case commands <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.println(i18n.T("app_usage"))
	c.status(i18n.T("status_loading"))
	c.app.LoadModel()

	events := c.app.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-commands:
			if !ok {
				return
			}
			if !c.handle(parseCommand(line)) {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.onEvent(ev)
		}
	}
}

// handle выполняет команду. Возвращает false для выхода.
func (c *console) handle(cmd, arg string) bool {
	switch cmd {
	case cmdToggle:
		c.toggleRecording()
	case cmdAsk:
		c.ask(arg)
	case cmdLang:
		if err := c.app.SetTargetLanguage(arg); err != nil {
			c.status(i18n.Tf("error_unknown_language", arg))
			return true
		}
		c.cfg.SetTargetLanguage(arg)
		c.status(i18n.Tf("status_target", answer.LanguageName(arg)))
	case cmdCopy:
		if err := c.app.CopyAnswer(); err != nil {
			log.Printf("Ошибка копирования в буфер: %v", err)
		}
	case cmdNotify:
		c.notifier.SetEnabled(c.cfg.ToggleNotifications())
	case cmdModel:
		c.model(arg)
	case cmdUI:
		c.uiLanguage(arg)
	case cmdHelp:
		c.println(i18n.T("app_usage"))
	case cmdQuit:
		return false
	default:
		c.status(i18n.Tf("error_unknown_command", cmd))
	}
	return true
}

func (c *console) toggleRecording() {
	// Toggle режим: если идёт запись - останавливаем
	if c.app.IsRecording() {
		path, err := c.app.StopRecording()
		switch {
		case err != nil:
			c.fail(i18n.T("error_recording"), err)
		case path == "":
			c.status(i18n.T("status_empty_transcript"))
		default:
			c.status(i18n.T("status_transcribing"))
		}
		return
	}

	if err := c.app.StartRecording(); err != nil {
		if errors.Is(err, transcribe.ErrModelNotLoaded) {
			c.status(i18n.T("error_model_loading"))
			return
		}
		c.fail(i18n.T("error_recording"), err)
		return
	}
	c.status(i18n.T("status_recording"))
	c.notifier.Recording()
}

func (c *console) ask(question string) {
	err := c.app.Ask(question)
	switch {
	case errors.Is(err, answer.ErrEmptyQuestion):
		c.status(i18n.T("error_empty_question"))
		c.dialogs.ShowWarning(i18n.T("app_name"), i18n.T("error_empty_question"))
	case err != nil:
		c.status(err.Error())
	default:
		c.status(i18n.Tf("status_processing", answer.LanguageName(c.app.TargetLanguage())))
	}
}

// model показывает модели движка, выбирает модель или удаляет скачанную.
// Выбранная модель загружается при следующем запуске.
func (c *console) model(arg string) {
	if arg == "" {
		c.status(i18n.Tf("status_model", c.cfg.Model()))
		for _, m := range models.GetModelsByEngine(models.Engine(c.cfg.Engine())) {
			mark := " "
			if c.manager.IsDownloaded(m) {
				mark = "*"
			}
			c.println(fmt.Sprintf("%s %-20s %s", mark, m.ID, m.Name))
		}
		return
	}

	remove := false
	if rest, ok := strings.CutPrefix(arg, "rm "); ok {
		remove = true
		arg = strings.TrimSpace(rest)
	}

	info, err := models.Lookup(arg)
	if err != nil {
		c.status(i18n.Tf("error_unknown_model", arg))
		return
	}

	if remove {
		if err := c.manager.Delete(info); err != nil {
			c.fail(i18n.T("error_model_delete"), err)
			return
		}
		c.status(i18n.Tf("status_model_deleted", info.ID))
		return
	}

	c.cfg.SetModel(info.ID)
	c.status(i18n.Tf("status_model_saved", info.ID))
}

// uiLanguage показывает или меняет язык интерфейса.
func (c *console) uiLanguage(arg string) {
	if arg == "" {
		for _, lang := range i18n.AvailableLanguages() {
			c.println(fmt.Sprintf("  %s  %s", lang, i18n.LanguageName(lang)))
		}
		return
	}

	lang := i18n.Language(strings.ToLower(arg))
	if !i18n.Supported(lang) {
		c.status(i18n.Tf("error_unknown_language", arg))
		return
	}
	i18n.SetLanguage(lang)
	c.cfg.SetUILanguage(string(lang))
	c.status(i18n.Tf("status_ui_language", i18n.LanguageName(lang)))
}

func (c *console) onEvent(ev app.Event) {
	switch ev.Kind {
	case app.EventModelLoaded:
		c.status(i18n.T("status_ready"))
		c.notifier.Ready()
	case app.EventModelFailed:
		c.fail(i18n.T("error_model_load"), ev.Err)
	case app.EventRecordingStopped:
		if ev.Text == "" {
			c.status(i18n.T("status_empty_transcript"))
		} else {
			c.status(i18n.T("status_transcribing"))
		}
	case app.EventPartial:
		c.println(fmt.Sprintf("  %s: %s", i18n.T("label_partial"), ev.Text))
	case app.EventTranscript:
		// Пустая расшифровка - тишина, не ошибка
		if ev.Text == "" {
			c.status(i18n.T("status_empty_transcript"))
			return
		}
		c.println(fmt.Sprintf("%s: %s", i18n.T("label_question"), ev.Text))
		c.status(i18n.T("status_finished"))
		c.notifier.Question(ev.Text)
	case app.EventAnswer:
		c.println(fmt.Sprintf("%s: %s", i18n.T("label_vietnamese"), ev.Answer.Vietnamese))
		c.println(fmt.Sprintf("%s: %s", answer.LanguageName(ev.Answer.Language), ev.Answer.Target))
		c.status(i18n.T("status_answered"))
		c.notifier.Answer(ev.Answer.Target)
		c.dialogs.ShowInfo(i18n.T("app_name"), ev.Answer.Target)
	case app.EventError:
		c.fail(i18n.T("error_recognition"), ev.Err)
	}
}

// fail показывает ошибку в статусе, уведомлением и, если включено, диалогом.
func (c *console) fail(title string, err error) {
	msg := title
	if err != nil {
		msg = title + ": " + err.Error()
	}
	log.Print(msg)
	c.status(msg)
	c.notifier.Error(msg)
	c.dialogs.ShowError(i18n.T("app_name"), msg)
}

func (c *console) status(msg string) {
	c.println("[" + msg + "]")
}

func (c *console) println(line string) {
	fmt.Fprintln(c.out, line)
}
