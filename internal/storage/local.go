package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalConfig — конфигурация локального архива выгрузок.
type LocalConfig struct {
	BasePath    string
	Permissions os.FileMode
}

// LocalStorage хранит файлы выгрузок в локальной директории.
// Используется в разработке и в одномашинных развёртываниях.
type LocalStorage struct {
	basePath    string
	permissions os.FileMode
}

// NewLocalStorage создаёт новое локальное хранилище.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("базовый путь не может быть пустым")
	}
	if cfg.Permissions == 0 {
		cfg.Permissions = 0o755
	}

	if err := os.MkdirAll(cfg.BasePath, cfg.Permissions); err != nil {
		return nil, fmt.Errorf("ошибка создания базовой директории: %w", err)
	}

	return &LocalStorage{
		basePath:    cfg.BasePath,
		permissions: cfg.Permissions,
	}, nil
}

// Save сохраняет файл выгрузки локально
func (l *LocalStorage) Save(ctx context.Context, key string, reader io.Reader) error {
	if err := l.checkKey(key); err != nil {
		return err
	}
	fullPath := l.fullPath(key)

	if err := os.MkdirAll(filepath.Dir(fullPath), l.permissions); err != nil {
		return fmt.Errorf("ошибка создания директории: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("ошибка создания файла: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("ошибка записи файла: %w", err)
	}
	return nil
}

// Get получает файл выгрузки
func (l *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := l.checkKey(key); err != nil {
		return nil, err
	}
	file, err := os.Open(l.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("файл не найден: %s", key)
		}
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	return file, nil
}

// Delete удаляет файл выгрузки
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := l.checkKey(key); err != nil {
		return err
	}
	err := os.Remove(l.fullPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла: %w", err)
	}
	return nil
}

// Exists проверяет существование файла
func (l *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := l.checkKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(l.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("ошибка проверки существования файла: %w", err)
	}
	return true, nil
}

// GetPresignedURL для локального хранилища возвращает файловый URL
func (l *LocalStorage) GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	if err := l.checkKey(key); err != nil {
		return "", err
	}
	return "file://" + l.fullPath(key), nil
}

// List возвращает список файлов архива по префиксу
func (l *LocalStorage) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.WalkDir(l.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(relPath, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		files = append(files, FileInfo{
			Key:          relPath,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return files, err
}

func (l *LocalStorage) fullPath(key string) string {
	return filepath.Join(l.basePath, key)
}

// checkKey отклоняет ключи, выходящие за пределы базовой директории.
func (l *LocalStorage) checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("ключ файла не может быть пустым")
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("ключ файла не может содержать '..'")
	}
	return nil
}
