package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"tienda_srv/internal/models"
	"tienda_srv/internal/report"
	"tienda_srv/internal/storage"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Форматы выгрузки
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportService интерфейс для работы с выгрузками отчета
type ExportService interface {
	Export(ctx context.Context, rows []report.Row, format string, actor string) (*models.ExportRecord, error)
	ListExports(ctx context.Context, params ListExportParams) (*ExportList, error)
	GetExportFile(ctx context.Context, id uint) (io.ReadCloser, string, error)
}

// ExportRepository интерфейс для работы с базой данных выгрузок
type ExportRepository interface {
	Create(ctx context.Context, record *models.ExportRecord) error
	GetByID(ctx context.Context, id uint) (*models.ExportRecord, error)
	List(ctx context.Context, params ListExportParams) ([]models.ExportRecord, int64, error)
	UpdateStatus(ctx context.Context, id uint, status string, fileKey string) error
}

// Renderer интерфейс для сериализации строк отчета в файл
type Renderer interface {
	Render(ctx context.Context, rows []report.Row) (io.Reader, error)
	GetMimeType() string
	GetFileExtension() string
}

// ListExportParams параметры для получения списка выгрузок
type ListExportParams struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Status   *string `json:"status,omitempty"`
}

// ExportList результат получения списка выгрузок с пагинацией
type ExportList struct {
	Exports    []models.ExportRecord `json:"exports"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// ExportServiceImpl реализация сервиса выгрузок
type ExportServiceImpl struct {
	repository ExportRepository
	renderers  map[string]Renderer
	files      storage.Storage
	logger     *logrus.Logger
}

// NewExportService создает новый сервис выгрузок
func NewExportService(
	repository ExportRepository,
	files storage.Storage,
	logger *logrus.Logger,
) ExportService {
	return &ExportServiceImpl{
		repository: repository,
		renderers: map[string]Renderer{
			FormatCSV:  NewCSVRenderer(),
			FormatXLSX: NewXLSXRenderer(logger),
		},
		files:  files,
		logger: logger,
	}
}

// Export сериализует строки отчета, сохраняет файл в хранилище и
// записывает результат в export_records. При ошибке рендеринга или
// сохранения запись остается со статусом failed.
func (s *ExportServiceImpl) Export(ctx context.Context, rows []report.Row, format string, actor string) (*models.ExportRecord, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("formato de exportación desconocido: %s", format)
	}

	logger := s.logger.WithFields(logrus.Fields{
		"format":     format,
		"row_count":  len(rows),
		"created_by": actor,
	})

	logger.Info("Создание новой выгрузки")

	record := &models.ExportRecord{
		Filename:  exportFilename(renderer),
		Format:    format,
		Status:    models.ExportStatusPending,
		RowCount:  len(rows),
		CreatedBy: actor,
		Params: models.JSON{
			"row_count": len(rows),
		},
	}

	if err := s.repository.Create(ctx, record); err != nil {
		logger.WithError(err).Error("Ошибка сохранения выгрузки в БД")
		return nil, fmt.Errorf("ошибка создания выгрузки: %w", err)
	}

	data, err := renderer.Render(ctx, rows)
	if err != nil {
		logger.WithError(err).Error("Ошибка сериализации выгрузки")
		s.repository.UpdateStatus(ctx, record.ID, models.ExportStatusFailed, "")
		record.Status = models.ExportStatusFailed
		return record, fmt.Errorf("ошибка сериализации выгрузки: %w", err)
	}

	fileKey := fmt.Sprintf("exports/%d/%s", record.ID, record.Filename)

	if err := s.files.Save(ctx, fileKey, data); err != nil {
		logger.WithError(err).WithField("file_key", fileKey).Error("Ошибка сохранения файла выгрузки")
		s.repository.UpdateStatus(ctx, record.ID, models.ExportStatusFailed, "")
		record.Status = models.ExportStatusFailed
		return record, fmt.Errorf("ошибка сохранения файла выгрузки: %w", err)
	}

	if err := s.repository.UpdateStatus(ctx, record.ID, models.ExportStatusCompleted, fileKey); err != nil {
		logger.WithError(err).Error("Ошибка обновления статуса выгрузки")
		return record, fmt.Errorf("ошибка обновления статуса выгрузки: %w", err)
	}

	record.Status = models.ExportStatusCompleted
	record.FileKey = fileKey

	logger.WithFields(logrus.Fields{
		"export_id": record.ID,
		"file_key":  fileKey,
	}).Info("Выгрузка сохранена успешно")

	return record, nil
}

// ListExports получает список выгрузок с пагинацией
func (s *ExportServiceImpl) ListExports(ctx context.Context, params ListExportParams) (*ExportList, error) {
	// Валидация параметров пагинации
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	records, total, err := s.repository.List(ctx, params)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения списка выгрузок")
		return nil, fmt.Errorf("ошибка получения списка выгрузок: %w", err)
	}

	totalPages := int((total + int64(params.PageSize) - 1) / int64(params.PageSize))

	return &ExportList{
		Exports:    records,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetExportFile возвращает файл выгрузки и имя для скачивания
func (s *ExportServiceImpl) GetExportFile(ctx context.Context, id uint) (io.ReadCloser, string, error) {
	record, err := s.repository.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", fmt.Errorf("выгрузка с ID %d не найдена", id)
		}
		return nil, "", fmt.Errorf("ошибка получения выгрузки: %w", err)
	}

	if !record.IsCompleted() {
		return nil, "", fmt.Errorf("выгрузка еще не готова")
	}

	if !record.HasFile() {
		return nil, "", fmt.Errorf("файл выгрузки не найден")
	}

	reader, err := s.files.Get(ctx, record.FileKey)
	if err != nil {
		s.logger.WithError(err).WithField("file_key", record.FileKey).
			Error("Ошибка получения файла из хранилища")
		return nil, "", fmt.Errorf("ошибка получения файла: %w", err)
	}

	return reader, record.Filename, nil
}

// exportFilename подменяет расширение базового имени под формат
func exportFilename(renderer Renderer) string {
	base := strings.TrimSuffix(report.ExportFilename, ".csv")
	return base + "." + renderer.GetFileExtension()
}

// CSVRenderer сериализует строки в CSV с разделителем «;»
type CSVRenderer struct{}

// NewCSVRenderer создает новый CSV рендерер
func NewCSVRenderer() Renderer {
	return &CSVRenderer{}
}

// Render сериализует строки отчета в CSV
func (r *CSVRenderer) Render(ctx context.Context, rows []report.Row) (io.Reader, error) {
	return strings.NewReader(report.ExportCSV(rows)), nil
}

// GetMimeType возвращает MIME тип для CSV файлов
func (r *CSVRenderer) GetMimeType() string {
	return "text/csv; charset=utf-8"
}

// GetFileExtension возвращает расширение файла для CSV
func (r *CSVRenderer) GetFileExtension() string {
	return "csv"
}

// XLSXRenderer сериализует строки в Excel файл
type XLSXRenderer struct {
	logger *logrus.Logger
}

// NewXLSXRenderer создает новый Excel рендерер
func NewXLSXRenderer(logger *logrus.Logger) Renderer {
	return &XLSXRenderer{logger: logger}
}

// Render сериализует строки отчета в Excel файл с тем же порядком
// колонок, что и CSV выгрузка
func (g *XLSXRenderer) Render(ctx context.Context, rows []report.Row) (io.Reader, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Compras"
	f.SetSheetName("Sheet1", sheet)

	// Стиль для заголовков
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 12,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		g.logger.WithError(err).Warn("Ошибка создания стиля заголовка")
	}

	headers := []string{
		"fecha", "usuario", "producto", "categoria", "cantidad",
		"precioARS", "precioUSD", "totalItemARS", "totalItemUSD", "orderId",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
		if headerStyle != 0 {
			f.SetCellStyle(sheet, cell, cell, headerStyle)
		}
	}

	for rowIndex, row := range rows {
		values := []interface{}{
			time.UnixMilli(row.TS).Format("02/01/2006 15:04:05"),
			row.Usuario,
			row.Producto,
			row.Categoria,
			row.Cantidad,
			row.PrecioARS,
			nil,
			row.TotalARS,
			nil,
			row.OrderID,
		}
		if row.PrecioUSD != nil {
			values[6] = *row.PrecioUSD
		}
		if row.TotalUSD != nil {
			values[8] = *row.TotalUSD
		}

		for colIndex, value := range values {
			if value == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	f.SetColWidth(sheet, "A", "J", 18)

	var buffer bytes.Buffer
	if err := f.Write(&buffer); err != nil {
		g.logger.WithError(err).Error("Ошибка записи Excel файла")
		return nil, fmt.Errorf("ошибка генерации Excel файла: %w", err)
	}

	return &buffer, nil
}

// GetMimeType возвращает MIME тип для Excel файлов
func (g *XLSXRenderer) GetMimeType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// GetFileExtension возвращает расширение файла для Excel
func (g *XLSXRenderer) GetFileExtension() string {
	return "xlsx"
}

// GormExportRepository реализация репозитория выгрузок для GORM
type GormExportRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewGormExportRepository создает новый GORM репозиторий выгрузок
func NewGormExportRepository(db *gorm.DB, logger *logrus.Logger) ExportRepository {
	return &GormExportRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает новую запись выгрузки в БД
func (r *GormExportRepository) Create(ctx context.Context, record *models.ExportRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByID получает запись выгрузки по ID
func (r *GormExportRepository) GetByID(ctx context.Context, id uint) (*models.ExportRecord, error) {
	var record models.ExportRecord
	err := r.db.WithContext(ctx).First(&record, id).Error
	return &record, err
}

// List получает список выгрузок с фильтрацией и пагинацией
func (r *GormExportRepository) List(ctx context.Context, params ListExportParams) ([]models.ExportRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExportRecord{})

	// Фильтрация по статусу
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	// Подсчет общего количества
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Пагинация
	offset := (params.Page - 1) * params.PageSize
	query = query.Order("created_at DESC").Offset(offset).Limit(params.PageSize)

	var records []models.ExportRecord
	err := query.Find(&records).Error

	return records, total, err
}

// UpdateStatus обновляет статус выгрузки
func (r *GormExportRepository) UpdateStatus(ctx context.Context, id uint, status string, fileKey string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}

	if fileKey != "" {
		updates["file_key"] = fileKey
	}

	return r.db.WithContext(ctx).Model(&models.ExportRecord{}).Where("id = ?", id).Updates(updates).Error
}
