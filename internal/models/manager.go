package models

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Progress информация о прогрессе загрузки.
type Progress struct {
	ModelID    string
	Downloaded int64
	Total      int64
	Done       bool
}

// Manager управляет моделями в локальной директории.
type Manager struct {
	modelsDir string
	client    *http.Client
	mu        sync.Mutex
}

// NewManager создаёт менеджер моделей с директориями для каждого движка.
func NewManager(modelsDir string) (*Manager, error) {
	if modelsDir == "" {
		modelsDir = filepath.Join(os.TempDir(), "whisper_models")
	}

	for _, engine := range []Engine{EngineWhisper, EngineVosk} {
		dir := filepath.Join(modelsDir, string(engine))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", engine, err)
		}
	}

	return &Manager{modelsDir: modelsDir, client: http.DefaultClient}, nil
}

// ModelsDir возвращает путь к директории моделей.
func (m *Manager) ModelsDir() string {
	return m.modelsDir
}

// GetModelPath возвращает полный путь к модели.
func (m *Manager) GetModelPath(info ModelInfo) string {
	return filepath.Join(m.modelsDir, string(info.Engine), info.Filename)
}

// IsDownloaded проверяет, скачана ли модель.
func (m *Manager) IsDownloaded(info ModelInfo) bool {
	stat, err := os.Stat(m.GetModelPath(info))
	if err != nil {
		return false
	}

	// Для Vosk проверяем что это директория
	if info.IsZip {
		return stat.IsDir()
	}

	// Для Whisper проверяем что файл не пустой
	return stat.Size() > 0
}

// Ensure скачивает модель при необходимости и возвращает путь к ней.
func (m *Manager) Ensure(ctx context.Context, info ModelInfo) (string, error) {
	if m.IsDownloaded(info) {
		return m.GetModelPath(info), nil
	}

	log.Printf("Скачивание модели %s (%s)...", info.Name, info.URL)
	progress := make(chan Progress, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		var lastPercent int64 = -10
		for p := range progress {
			if p.Total <= 0 {
				continue
			}
			percent := p.Downloaded * 100 / p.Total
			if percent-lastPercent >= 10 || p.Done {
				log.Printf("Модель %s: %d%%", p.ModelID, percent)
				lastPercent = percent
			}
		}
	}()

	err := m.Download(ctx, info, progress)
	close(progress)
	<-done
	if err != nil {
		return "", err
	}
	return m.GetModelPath(info), nil
}

// Download скачивает модель.
// progress канал получает обновления о прогрессе (можно nil).
func (m *Manager) Download(ctx context.Context, info ModelInfo, progress chan<- Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsDownloaded(info) {
		report(progress, Progress{ModelID: info.ID, Downloaded: info.Size, Total: info.Size, Done: true}, true)
		return nil
	}

	destPath := m.GetModelPath(info)
	tmpPath := destPath + ".tmp"
	if info.IsZip {
		tmpPath = destPath + ".zip.tmp"
	}
	defer os.Remove(tmpPath)

	total, err := m.fetch(ctx, info, tmpPath, progress)
	if err != nil {
		return err
	}

	if info.IsZip {
		if err := unzip(tmpPath, filepath.Dir(destPath)); err != nil {
			return fmt.Errorf("ошибка распаковки: %w", err)
		}
		if !m.IsDownloaded(info) {
			return fmt.Errorf("архив не содержит директорию %s", info.Filename)
		}
	} else if err := os.Rename(tmpPath, destPath); err != nil {
		return err
	}

	report(progress, Progress{ModelID: info.ID, Downloaded: total, Total: total, Done: true}, true)
	return nil
}

// fetch скачивает info.URL в dest и возвращает итоговый размер.
func (m *Manager) fetch(ctx context.Context, info ModelInfo, dest string, progress chan<- Progress) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ошибка скачивания: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP ошибка: %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}

	file, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var downloaded int64
	buf := make([]byte, 32*1024)

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return 0, werr
			}
			downloaded += int64(n)
			report(progress, Progress{ModelID: info.ID, Downloaded: downloaded, Total: total}, false)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}

	if err := file.Close(); err != nil {
		return 0, err
	}
	return downloaded, nil
}

// report отправляет прогресс; промежуточные обновления можно пропускать.
func report(progress chan<- Progress, p Progress, final bool) {
	if progress == nil {
		return
	}
	if final {
		progress <- p
		return
	}
	select {
	case progress <- p:
	default:
	}
}

func unzip(src, destDir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	root := filepath.Clean(destDir) + string(os.PathSeparator)
	for _, f := range r.File {
		fpath := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(fpath, root) {
			return fmt.Errorf("недопустимый путь в архиве: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return err
		}

		if err := extract(f, fpath); err != nil {
			return err
		}
	}

	return nil
}

func extract(f *zip.File, dest string) error {
	outFile, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer outFile.Close()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := io.Copy(outFile, rc); err != nil {
		return err
	}
	return outFile.Close()
}

// Delete удаляет модель.
func (m *Manager) Delete(info ModelInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return os.RemoveAll(m.GetModelPath(info))
}
