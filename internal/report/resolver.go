package report

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// NameResolver отображает идентификатор пользователя в отображаемое имя
// с кэшем на процесс. Кэш заполняется лениво и не вытесняется в рамках
// сессии: он ограничен числом различных пользователей в отчёте, что
// приемлемо для отчётных объёмов. Мьютекс нужен только на случай,
// когда один резолвер делят несколько сессий: потерянная вставка стоит
// лишь повторного запроса, но не некорректных данных.
type NameResolver struct {
	dir    UserDirectory
	logger *logrus.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewNameResolver создаёт резолвер поверх хранилища профилей.
func NewNameResolver(dir UserDirectory, logger *logrus.Logger) *NameResolver {
	return &NameResolver{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]string),
	}
}

// Resolve возвращает отображаемое имя пользователя. Никогда не падает:
// ошибка поиска или отсутствующий профиль деградируют до самого
// идентификатора. Повторные вызовы для того же идентификатора отдают
// кэшированное значение без дополнительных запросов.
func (r *NameResolver) Resolve(ctx context.Context, userID string) string {
	r.mu.Lock()
	if name, ok := r.cache[userID]; ok {
		r.mu.Unlock()
		return name
	}
	r.mu.Unlock()

	name, err := r.dir.DisplayName(ctx, userID)
	if err != nil || name == "" {
		if err != nil && err != ErrUserNotFound {
			r.logger.WithError(err).WithField("user_id", userID).
				Warn("No se pudo resolver el nombre del usuario")
		}
		name = userID
	}

	r.mu.Lock()
	r.cache[userID] = name
	r.mu.Unlock()
	return name
}

// CachedCount возвращает число закэшированных имён.
func (r *NameResolver) CachedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
