package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"tienda_srv/internal/config"
	"tienda_srv/internal/report"
	"tienda_srv/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Identity headers set by the storefront gateway.
const (
	headerUserID   = "X-Usuario-Id"
	headerUserRole = "X-Usuario-Rol"

	roleAdmin = "admin"
)

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	exports service.ExportService
	logger  *logrus.Logger

	pager    report.OrderPager
	names    *report.NameResolver
	pageSize int
	topN     int

	// One report session per admin user.
	mu       sync.Mutex
	sessions map[string]*report.Session
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	pager report.OrderPager,
	names *report.NameResolver,
	exports service.ExportService,
	logger *logrus.Logger,
) *Server {
	e := echo.New()
	e.Debug = cfg.Server.Debug
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	if cfg.Server.Debug {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "${time_rfc3339} ${method} ${uri} ${status} ${latency_human} ${error}\n",
		}))
	}

	server := &Server{
		echo:     e,
		exports:  exports,
		logger:   logger,
		pager:    pager,
		names:    names,
		pageSize: cfg.Reporting.PageSize,
		topN:     cfg.Reporting.TopN,
		sessions: make(map[string]*report.Session),
	}

	server.setupRoutes()
	return server
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.WithField("address", address).Info("Starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// setupRoutes configures the server routes
func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", s.healthCheck)

	// API routes, admin only
	api := s.echo.Group("/api/v1", s.requireAdmin)
	{
		reportes := api.Group("/reportes")
		{
			reportes.POST("/cargar", s.loadFirstPage)
			reportes.POST("/cargar-mas", s.loadNextPage)
			reportes.GET("/filas", s.listRows)
			reportes.GET("/graficos", s.charts)
			reportes.POST("/export", s.createExport)
		}

		exports := api.Group("/exports")
		{
			exports.GET("", s.listExports)
			exports.GET("/:id/download", s.downloadExport)
		}
	}
}

// requireAdmin rejects requests that do not carry an admin identity.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Request().Header.Get(headerUserID)
		role := c.Request().Header.Get(headerUserRole)

		if userID == "" || role != roleAdmin {
			s.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"role":    role,
			}).Warn("Rejected non-admin report request")
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": report.ErrNotAuthorized.Error(),
			})
		}

		c.Set("user_id", userID)
		return next(c)
	}
}

// session returns the report session for the given admin, creating it
// on first use.
func (s *Server) session(userID string) *report.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	sess := report.NewSession(s.pager, s.names, s.pageSize, s.topN, s.logger)
	s.sessions[userID] = sess
	return sess
}

func actor(c echo.Context) string {
	userID, _ := c.Get("user_id").(string)
	return userID
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "tienda-service",
	})
}

// loadFirstPage resets the session and loads the first page of orders
func (s *Server) loadFirstPage(c echo.Context) error {
	sess := s.session(actor(c))

	result, err := sess.LoadFirstPage(c.Request().Context())
	if err != nil {
		return s.loadError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// loadNextPage appends the next page of orders to the session
func (s *Server) loadNextPage(c echo.Context) error {
	sess := s.session(actor(c))

	result, err := sess.LoadNextPage(c.Request().Context())
	if err != nil {
		if errors.Is(err, report.ErrNothingToLoad) {
			// Not an error for the caller: there is simply nothing left.
			return c.JSON(http.StatusOK, map[string]interface{}{
				"mensaje": "no hay más pedidos para cargar",
				"hasMore": false,
			})
		}
		return s.loadError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// loadError maps session errors to HTTP responses
func (s *Server) loadError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, report.ErrLoadInProgress):
		return c.JSON(http.StatusConflict, map[string]string{
			"error": err.Error(),
		})
	case errors.Is(err, report.ErrSuperseded):
		return c.JSON(http.StatusConflict, map[string]string{
			"error": err.Error(),
		})
	case report.IsTransient(err):
		s.logger.WithError(err).Error("Order page fetch failed")
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "no se pudieron cargar los pedidos",
		})
	default:
		s.logger.WithError(err).Error("Unexpected report session error")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "error interno",
		})
	}
}

// listRows returns the accumulated report rows
func (s *Server) listRows(c echo.Context) error {
	sess := s.session(actor(c))
	rows := sess.Rows()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"filas":   rows,
		"count":   len(rows),
		"hasMore": sess.HasMore(),
		"estado":  sess.CurrentState().String(),
	})
}

// charts returns both chart projections for the requested period
func (s *Server) charts(c echo.Context) error {
	periodo := c.QueryParam("periodo")
	if periodo == "" {
		periodo = "7d"
	}

	p, err := report.ParsePeriod(periodo)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "periodo inválido: " + periodo,
		})
	}

	sess := s.session(actor(c))
	return c.JSON(http.StatusOK, sess.Recompute(p))
}

// createExport serializes the session rows and archives the file
func (s *Server) createExport(c echo.Context) error {
	var req struct {
		Format string `json:"format"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request format",
		})
	}
	if req.Format == "" {
		req.Format = service.FormatCSV
	}

	sess := s.session(actor(c))
	record, err := s.exports.Export(c.Request().Context(), sess.Rows(), req.Format, actor(c))
	if err != nil {
		s.logger.WithError(err).Error("Failed to create export")
		if record == nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "formato de exportación desconocido",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to create export",
		})
	}

	return c.JSON(http.StatusCreated, record)
}

// listExports handles listing archived exports
func (s *Server) listExports(c echo.Context) error {
	params := service.ListExportParams{}
	if page, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		params.Page = page
	}
	if size, err := strconv.Atoi(c.QueryParam("page_size")); err == nil {
		params.PageSize = size
	}
	if status := c.QueryParam("status"); status != "" {
		params.Status = &status
	}

	list, err := s.exports.ListExports(c.Request().Context(), params)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list exports")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to list exports",
		})
	}

	return c.JSON(http.StatusOK, list)
}

// downloadExport streams an archived export file
func (s *Server) downloadExport(c echo.Context) error {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid export ID",
		})
	}

	reader, filename, err := s.exports.GetExportFile(c.Request().Context(), uint(id))
	if err != nil {
		s.logger.WithError(err).Error("Failed to get export file")
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Export file not found",
		})
	}
	defer reader.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Stream(http.StatusOK, "application/octet-stream", reader)
}
