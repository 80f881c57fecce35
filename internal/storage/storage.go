package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"tienda_srv/internal/config"

	"github.com/sirupsen/logrus"
)

const (
	// Типы хранилищ
	TypeLocal = "local"
	TypeS3    = "s3"

	// Настройки retry
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second

	// Срок действия presigned-ссылок на скачивание выгрузок
	defaultPresignExpiration = 1 * time.Hour
)

// Storage — операции над архивом файлов выгрузок. Интерфейс ограничен
// тем, что реально нужно архивированию: сохранить файл, отдать его на
// скачивание, удалить, проверить наличие и перечислить по префиксу.
type Storage interface {
	Save(ctx context.Context, key string, reader io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// FileInfo — информация об одном файле архива.
type FileInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// New создаёт хранилище по конфигурации и оборачивает его
// в middleware логирования и ретраев.
func New(cfg config.Config, logger *logrus.Logger) (Storage, error) {
	var (
		s   Storage
		err error
	)

	switch cfg.Storage.Type {
	case TypeS3:
		s, err = NewS3Storage(S3Config{
			Region:            cfg.Storage.S3.Region,
			Bucket:            cfg.Storage.S3.Bucket,
			Endpoint:          cfg.Storage.S3.Endpoint,
			AccessKey:         cfg.Storage.S3.AccessKey,
			SecretKey:         cfg.Storage.S3.SecretKey,
			ForcePathStyle:    true,
			PresignExpiration: defaultPresignExpiration,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания S3 хранилища: %w", err)
		}
	case TypeLocal:
		s, err = NewLocalStorage(LocalConfig{
			BasePath:    cfg.Storage.BasePath,
			Permissions: 0o755,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания локального хранилища: %w", err)
		}
	default:
		return nil, fmt.Errorf("неподдерживаемый тип хранилища: %s", cfg.Storage.Type)
	}

	if logger != nil {
		s = NewLoggingMiddleware(s, logger)
	}
	s = NewRetryMiddleware(s, defaultMaxRetries, defaultRetryDelay, logger)

	return s, nil
}
