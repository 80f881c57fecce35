package report

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State — состояние сессии отчёта.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateLoadingMore
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "loading_more"
	}
}

// LoadResult — итог загрузки одной страницы.
type LoadResult struct {
	Added   int  `json:"added"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// Charts — обе производные проекции по текущему набору строк.
type Charts struct {
	Ventas Series `json:"ventas"`
	Top    Series `json:"top"`
}

// Session владеет накопленным набором строк отчёта и курсором
// пагинации на протяжении одной отчётной сессии. Выборки страниц
// последовательны: пока одна выборка в полёте, вторая не стартует.
// Каждая выборка помечается номером поколения; ответ из устаревшего
// поколения (сессия была сброшена новой первой страницей) отбрасывается
// и не попадает в набор строк.
type Session struct {
	pager    OrderPager
	names    *NameResolver
	pageSize int
	topN     int
	logger   *logrus.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	rows   []Row
	cursor PageCursor
}

// NewSession создаёт пустую сессию в состоянии idle.
func NewSession(pager OrderPager, names *NameResolver, pageSize, topN int, logger *logrus.Logger) *Session {
	if pageSize <= 0 {
		pageSize = 50
	}
	if topN <= 0 {
		topN = 3
	}
	return &Session{
		pager:    pager,
		names:    names,
		pageSize: pageSize,
		topN:     topN,
		logger:   logger,
	}
}

// LoadFirstPage сбрасывает накопленные строки и курсор, выбирает первую
// страницу и замещает набор строк. Запущенная ранее догрузка
// обесценивается: её ответ будет отброшен по номеру поколения.
func (s *Session) LoadFirstPage(ctx context.Context) (LoadResult, error) {
	s.mu.Lock()
	if s.state == StateLoading {
		s.mu.Unlock()
		return LoadResult{}, ErrLoadInProgress
	}
	prev := s.state
	if prev == StateLoadingMore {
		// Догрузка в полёте обесценивается; при откате возвращаемся
		// в loaded, а не в loading_more.
		prev = StateLoaded
	}
	s.gen++
	gen := s.gen
	s.state = StateLoading
	s.mu.Unlock()

	page, err := s.pager.FetchPage(ctx, "", s.pageSize)
	if err != nil {
		return s.fetchFailed(gen, prev, err)
	}

	rows := s.flattenPage(ctx, page)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return LoadResult{}, ErrSuperseded
	}
	s.rows = rows
	s.cursor = page.Next
	s.state = StateLoaded

	s.logger.WithFields(logrus.Fields{
		"orders":   len(page.Orders),
		"rows":     len(rows),
		"has_more": page.Next != "",
	}).Info("Primera página cargada")

	return LoadResult{Added: len(rows), Total: len(rows), HasMore: page.Next != ""}, nil
}

// LoadNextPage выбирает следующую страницу и дописывает её строки
// в конец набора. Без курсора это no-op (ErrNothingToLoad); пока идёт
// другая выборка — тоже no-op (ErrLoadInProgress). Неудачная выборка
// возвращает сессию в прежнее состояние, не трогая накопленные строки.
func (s *Session) LoadNextPage(ctx context.Context) (LoadResult, error) {
	s.mu.Lock()
	if s.state == StateLoading || s.state == StateLoadingMore {
		s.mu.Unlock()
		return LoadResult{}, ErrLoadInProgress
	}
	if s.cursor == "" {
		s.mu.Unlock()
		return LoadResult{}, ErrNothingToLoad
	}
	prev := s.state
	gen := s.gen
	cursor := s.cursor
	s.state = StateLoadingMore
	s.mu.Unlock()

	page, err := s.pager.FetchPage(ctx, cursor, s.pageSize)
	if err != nil {
		return s.fetchFailed(gen, prev, err)
	}

	rows := s.flattenPage(ctx, page)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// Сессию сбросили, пока страница была в полёте.
		s.logger.WithField("rows", len(rows)).Debug("Página obsoleta descartada")
		return LoadResult{}, ErrSuperseded
	}
	s.rows = append(s.rows, rows...)
	s.cursor = page.Next
	s.state = StateLoaded

	return LoadResult{Added: len(rows), Total: len(s.rows), HasMore: page.Next != ""}, nil
}

// Recompute заново выводит обе агрегированные проекции из текущего
// полного набора строк; хранилище не опрашивается.
func (s *Session) Recompute(p Period) Charts {
	rows := s.Rows()
	return Charts{
		Ventas: SalesByPeriod(rows, p, time.Now()),
		Top:    TopProducts(rows, s.topN),
	}
}

// Rows возвращает копию накопленного набора строк в порядке загрузки.
func (s *Session) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]Row, len(s.rows))
	copy(rows, s.rows)
	return rows
}

// HasMore сообщает, удерживает ли сессия курсор продолжения.
func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor != ""
}

// CurrentState возвращает текущее состояние сессии.
func (s *Session) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) flattenPage(ctx context.Context, page Page) []Row {
	var rows []Row
	for _, ord := range page.Orders {
		rows = append(rows, Flatten(ctx, ord, s.names)...)
	}
	return rows
}

// fetchFailed откатывает состояние после неудачной выборки, если
// поколение ещё актуально, и оборачивает ошибку как повторяемую.
func (s *Session) fetchFailed(gen uint64, prev State, err error) (LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.state = prev
	}
	s.logger.WithError(err).Error("Fallo al cargar la página de pedidos")
	return LoadResult{}, &FetchError{Err: err}
}
