package storage

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggingMiddleware добавляет логирование к операциям архива.
type LoggingMiddleware struct {
	storage Storage
	logger  *logrus.Logger
}

// NewLoggingMiddleware создает новый logging middleware
func NewLoggingMiddleware(storage Storage, logger *logrus.Logger) Storage {
	return &LoggingMiddleware{storage: storage, logger: logger}
}

// Save логирует операцию сохранения
func (m *LoggingMiddleware) Save(ctx context.Context, key string, reader io.Reader) error {
	start := time.Now()
	logger := m.logger.WithFields(logrus.Fields{
		"operation": "save",
		"key":       key,
	})

	err := m.storage.Save(ctx, key, reader)

	duration := time.Since(start)
	if err != nil {
		logger.WithError(err).WithField("duration", duration).Error("Ошибка сохранения файла выгрузки")
	} else {
		logger.WithField("duration", duration).Info("Файл выгрузки сохранен")
	}
	return err
}

// Get логирует операцию получения
func (m *LoggingMiddleware) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	logger := m.logger.WithFields(logrus.Fields{
		"operation": "get",
		"key":       key,
	})

	reader, err := m.storage.Get(ctx, key)

	duration := time.Since(start)
	if err != nil {
		logger.WithError(err).WithField("duration", duration).Error("Ошибка получения файла выгрузки")
	} else {
		logger.WithField("duration", duration).Debug("Файл выгрузки получен")
	}
	return reader, err
}

// Delete логирует операцию удаления
func (m *LoggingMiddleware) Delete(ctx context.Context, key string) error {
	err := m.storage.Delete(ctx, key)
	if err != nil {
		m.logger.WithError(err).WithField("key", key).Error("Ошибка удаления файла выгрузки")
	} else {
		m.logger.WithField("key", key).Info("Файл выгрузки удален")
	}
	return err
}

// Остальные методы просто делегируют вызовы
func (m *LoggingMiddleware) Exists(ctx context.Context, key string) (bool, error) {
	return m.storage.Exists(ctx, key)
}

func (m *LoggingMiddleware) GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return m.storage.GetPresignedURL(ctx, key, expiration)
}

func (m *LoggingMiddleware) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	return m.storage.List(ctx, prefix)
}

// RetryMiddleware добавляет retry логику к операциям архива.
type RetryMiddleware struct {
	storage    Storage
	maxRetries int
	retryDelay time.Duration
	logger     *logrus.Logger
}

// NewRetryMiddleware создает новый retry middleware
func NewRetryMiddleware(storage Storage, maxRetries int, retryDelay time.Duration, logger *logrus.Logger) Storage {
	return &RetryMiddleware{
		storage:    storage,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Save выполняет операцию сохранения с retry
func (m *RetryMiddleware) Save(ctx context.Context, key string, reader io.Reader) error {
	return m.retryOperation(ctx, "save", func() error {
		return m.storage.Save(ctx, key, reader)
	})
}

// Get выполняет операцию получения с retry
func (m *RetryMiddleware) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	var result io.ReadCloser
	err := m.retryOperation(ctx, "get", func() error {
		var err error
		result, err = m.storage.Get(ctx, key)
		return err
	})
	return result, err
}

// Delete выполняет операцию удаления с retry
func (m *RetryMiddleware) Delete(ctx context.Context, key string) error {
	return m.retryOperation(ctx, "delete", func() error {
		return m.storage.Delete(ctx, key)
	})
}

// retryOperation выполняет операцию с retry логикой
func (m *RetryMiddleware) retryOperation(ctx context.Context, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < m.maxRetries {
			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{
					"operation":   operation,
					"attempt":     attempt + 1,
					"max_retries": m.maxRetries,
				}).WithError(lastErr).Warn("Повтор операции после ошибки")
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.retryDelay):
				// Продолжаем
			}
		}
	}

	return lastErr
}

func (m *RetryMiddleware) Exists(ctx context.Context, key string) (bool, error) {
	return m.storage.Exists(ctx, key)
}

func (m *RetryMiddleware) GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return m.storage.GetPresignedURL(ctx, key, expiration)
}

func (m *RetryMiddleware) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	return m.storage.List(ctx, prefix)
}
