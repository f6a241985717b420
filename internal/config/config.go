// Package config предоставляет конфигурацию приложения с сохранением в файл.
//
// Порядок применения: значения по умолчанию, файл конфигурации (config.yaml
// или config.json рядом с бинарником, либо путь из ASKAWAY_CONFIG),
// переменные окружения (включая загруженные из .env).
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Переменные окружения.
const (
	EnvModel          = "WHISPER_MODEL"
	EnvModelPath      = "WHISPER_MODEL_PATH"
	EnvEngine         = "ASKAWAY_ENGINE"
	EnvCommand        = "ASKAWAY_STT_COMMAND"
	EnvLanguage       = "ASKAWAY_LANGUAGE"
	EnvTargetLanguage = "ASKAWAY_TARGET_LANGUAGE"
	EnvUILanguage     = "ASKAWAY_UI_LANGUAGE"
	EnvSampleRate     = "ASKAWAY_SAMPLE_RATE"
	EnvChannels       = "ASKAWAY_CHANNELS"
	EnvChunkSeconds   = "ASKAWAY_CHUNK_SECONDS"
	EnvMaxSeconds     = "ASKAWAY_MAX_SECONDS"
	EnvInputDevice    = "ASKAWAY_INPUT_DEVICE"
	EnvModelsDir      = "ASKAWAY_MODELS_DIR"
	EnvNotifications  = "ASKAWAY_NOTIFICATIONS"
	EnvDialogs        = "ASKAWAY_DIALOGS"
	EnvConfig         = "ASKAWAY_CONFIG"
)

// configData структура для сериализации.
type configData struct {
	Model          string  `json:"model" yaml:"model"`
	ModelPath      string  `json:"model_path,omitempty" yaml:"model_path,omitempty"`
	Engine         string  `json:"engine" yaml:"engine"`
	Command        string  `json:"command,omitempty" yaml:"command,omitempty"`
	Language       string  `json:"language" yaml:"language"`
	TargetLanguage string  `json:"target_language" yaml:"target_language"`
	UILanguage     string  `json:"ui_language,omitempty" yaml:"ui_language,omitempty"`
	SampleRate     int     `json:"sample_rate" yaml:"sample_rate"`
	Channels       int     `json:"channels" yaml:"channels"`
	ChunkSeconds   float64 `json:"chunk_seconds" yaml:"chunk_seconds"`
	MaxSeconds     float64 `json:"max_seconds" yaml:"max_seconds"`
	InputDevice    string  `json:"input_device,omitempty" yaml:"input_device,omitempty"`
	ModelsDir      string  `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`
	Notifications  bool    `json:"notifications" yaml:"notifications"`
	Dialogs        bool    `json:"dialogs" yaml:"dialogs"`
}

// Config хранит настройки приложения.
// file - значения из файла, data - они же с переопределениями окружения.
// В файл сохраняется только file.
type Config struct {
	mu         sync.RWMutex
	file       configData
	data       configData
	configPath string
}

func defaults() configData {
	return configData{
		Model:          "tiny",
		Engine:         "whisper",
		Language:       "auto", // auto для смешанной вьетнамской/английской речи
		TargetLanguage: "en",
		UILanguage:     "vi",
		SampleRate:     16000,
		Channels:       1,
		ChunkSeconds:   3,
		MaxSeconds:     30,
		ModelsDir:      filepath.Join(os.TempDir(), "whisper_models"),
		Notifications:  true,
		Dialogs:        false,
	}
}

// New создаёт конфигурацию из файла рядом с бинарником и окружения.
func New() *Config {
	if path := strings.TrimSpace(os.Getenv(EnvConfig)); path != "" {
		return Load(path)
	}

	path := ""

	// Определяем путь к файлу конфигурации рядом с бинарником
	execPath, err := os.Executable()
	if err == nil {
		// Резолвим симлинки
		execPath, err = filepath.EvalSymlinks(execPath)
		if err == nil {
			dir := filepath.Dir(execPath)
			path = filepath.Join(dir, "config.json")
			if yamlPath := filepath.Join(dir, "config.yaml"); fileExists(yamlPath) {
				path = yamlPath
			}
		}
	}

	return Load(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// isYAML определяет формат файла по расширению.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load создаёт конфигурацию из указанного файла (может не существовать) и окружения.
func Load(path string) *Config {
	c := &Config{file: defaults(), configPath: path}
	c.load()
	c.data = c.file
	c.applyEnv()
	return c
}

// LoadEnv загружает переменные из .env файлов, не перезаписывая уже заданные.
// Отсутствующие файлы пропускаются.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("Ошибка чтения %s: %v", f, err)
		}
	}
}

// load загружает конфигурацию из файла.
func (c *Config) load() {
	if c.configPath == "" {
		return
	}

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		return // Файл не существует, используем defaults
	}

	cfg := c.file
	if isYAML(c.configPath) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		log.Printf("Ошибка разбора %s: %v", c.configPath, err)
		return
	}
	normalize(&cfg)
	c.file = cfg
}

func (c *Config) applyEnv() {
	d := &c.data

	setString(&d.Model, EnvModel)
	setString(&d.ModelPath, EnvModelPath)
	setString(&d.Engine, EnvEngine)
	setString(&d.Command, EnvCommand)
	setString(&d.Language, EnvLanguage)
	setString(&d.TargetLanguage, EnvTargetLanguage)
	setString(&d.UILanguage, EnvUILanguage)
	setString(&d.InputDevice, EnvInputDevice)
	setString(&d.ModelsDir, EnvModelsDir)
	setInt(&d.SampleRate, EnvSampleRate)
	setInt(&d.Channels, EnvChannels)
	setFloat(&d.ChunkSeconds, EnvChunkSeconds)
	setFloat(&d.MaxSeconds, EnvMaxSeconds)
	setBool(&d.Notifications, EnvNotifications)
	setBool(&d.Dialogs, EnvDialogs)

	normalize(d)
}

// normalize возвращает значения по умолчанию вместо некорректных.
func normalize(d *configData) {
	def := defaults()
	if d.Model == "" {
		d.Model = def.Model
	}
	if d.Engine == "" {
		d.Engine = def.Engine
	}
	if d.SampleRate <= 0 {
		d.SampleRate = def.SampleRate
	}
	if d.Channels <= 0 {
		d.Channels = def.Channels
	}
	if d.ChunkSeconds <= 0 {
		d.ChunkSeconds = def.ChunkSeconds
	}
	if d.MaxSeconds <= 0 {
		d.MaxSeconds = def.MaxSeconds
	}
	if d.TargetLanguage == "" {
		d.TargetLanguage = def.TargetLanguage
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		} else {
			log.Printf("Некорректное значение %s=%q", key, v)
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = n
		} else {
			log.Printf("Некорректное значение %s=%q", key, v)
		}
	}
}

func setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		} else {
			log.Printf("Некорректное значение %s=%q", key, v)
		}
	}
}

// save сохраняет конфигурацию в файл.
func (c *Config) save() {
	if c.configPath == "" {
		return
	}

	var data []byte
	var err error
	if isYAML(c.configPath) {
		data, err = yaml.Marshal(c.file)
	} else {
		data, err = json.MarshalIndent(c.file, "", "  ")
	}
	if err != nil {
		log.Printf("Ошибка сериализации конфигурации: %v", err)
		return
	}

	if err := os.WriteFile(c.configPath, data, 0644); err != nil {
		log.Printf("Ошибка сохранения конфигурации: %v", err)
	}
}

// Model возвращает имя модели распознавания.
func (c *Config) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Model
}

// SetModel устанавливает имя модели распознавания.
func (c *Config) SetModel(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.file.Model = name
	c.data.Model = name
	c.save()
}

// ModelPath возвращает путь к локальной модели.
func (c *Config) ModelPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.ModelPath
}

// Engine возвращает движок распознавания.
func (c *Config) Engine() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Engine
}

// Command возвращает внешнюю команду распознавания.
func (c *Config) Command() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Command
}

// Language возвращает язык распознавания.
func (c *Config) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Language
}

// TargetLanguage возвращает язык второго ответа.
func (c *Config) TargetLanguage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.TargetLanguage
}

// SetTargetLanguage устанавливает язык второго ответа.
func (c *Config) SetTargetLanguage(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.file.TargetLanguage = lang
	c.data.TargetLanguage = lang
	c.save()
}

// UILanguage возвращает язык интерфейса.
func (c *Config) UILanguage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.UILanguage
}

// SetUILanguage устанавливает язык интерфейса.
func (c *Config) SetUILanguage(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.file.UILanguage = lang
	c.data.UILanguage = lang
	c.save()
}

// SampleRate возвращает частоту записи.
func (c *Config) SampleRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.SampleRate
}

// Channels возвращает количество каналов записи.
func (c *Config) Channels() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Channels
}

// ChunkDuration возвращает длительность чанка.
func (c *Config) ChunkDuration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.data.ChunkSeconds * float64(time.Second))
}

// MaxDuration возвращает максимальную длительность записи.
func (c *Config) MaxDuration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.data.MaxSeconds * float64(time.Second))
}

// InputDevice возвращает имя предпочтительного устройства ввода.
func (c *Config) InputDevice() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.InputDevice
}

// ModelsDir возвращает директорию моделей.
func (c *Config) ModelsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.ModelsDir
}

// NotificationsEnabled возвращает true если уведомления включены.
func (c *Config) NotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Notifications
}

// ToggleNotifications переключает состояние уведомлений.
func (c *Config) ToggleNotifications() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Notifications = !c.data.Notifications
	c.file.Notifications = c.data.Notifications
	c.save()
	return c.data.Notifications
}

// DialogsEnabled возвращает true если ошибки показываются диалогом.
func (c *Config) DialogsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Dialogs
}
