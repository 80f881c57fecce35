package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"tienda_srv/internal/models"
	"tienda_srv/internal/report"
	"tienda_srv/internal/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockStorage is a mock implementation of the Storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Save(ctx context.Context, key string, reader io.Reader) error {
	args := m.Called(ctx, key, reader)
	return args.Error(0)
}

func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	args := m.Called(ctx, key, expiration)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).([]storage.FileInfo), args.Error(1)
}

func setupTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.ExportRecord{})
	assert.NoError(t, err)

	return db
}

func sampleRows() []report.Row {
	usd := 2.5
	totalUSD := 5.0
	return []report.Row{
		{
			OrderID:   "ord-1",
			TS:        time.Date(2026, 8, 18, 9, 30, 15, 0, time.Local).UnixMilli(),
			Usuario:   "Ana",
			Producto:  "Mate",
			Categoria: "Bebidas",
			Cantidad:  2,
			PrecioARS: 1500,
			PrecioUSD: &usd,
			TotalARS:  3000,
			TotalUSD:  &totalUSD,
		},
		{
			OrderID:   "ord-2",
			TS:        time.Date(2026, 8, 19, 12, 0, 0, 0, time.Local).UnixMilli(),
			Usuario:   "Bruno",
			Producto:  "Yerba",
			Categoria: "Almacén",
			Cantidad:  1,
			PrecioARS: 900,
			TotalARS:  900,
		},
	}
}

func TestExportCSVCreatesCompletedRecord(t *testing.T) {
	db := setupTestDB(t)
	mockStorage := new(MockStorage)
	logger := setupTestLogger()
	service := NewExportService(NewGormExportRepository(db, logger), mockStorage, logger)

	mockStorage.On("Save", mock.Anything, "exports/1/reporte-compras.csv", mock.Anything).
		Run(func(args mock.Arguments) {
			data, err := io.ReadAll(args.Get(2).(io.Reader))
			assert.NoError(t, err)
			// El archivo guardado es exactamente la salida del serializador.
			assert.True(t, strings.HasPrefix(string(data), "fecha;usuario;producto;"))
			assert.Contains(t, string(data), `"Ana"`)
		}).
		Return(nil)

	record, err := service.Export(context.Background(), sampleRows(), FormatCSV, "admin-1")
	assert.NoError(t, err)
	assert.Equal(t, models.ExportStatusCompleted, record.Status)
	assert.Equal(t, "reporte-compras.csv", record.Filename)
	assert.Equal(t, "exports/1/reporte-compras.csv", record.FileKey)
	assert.Equal(t, 2, record.RowCount)

	var stored models.ExportRecord
	assert.NoError(t, db.First(&stored, record.ID).Error)
	assert.Equal(t, models.ExportStatusCompleted, stored.Status)
	assert.Equal(t, "admin-1", stored.CreatedBy)

	mockStorage.AssertExpectations(t)
}

func TestExportXLSXUsesXLSXFilename(t *testing.T) {
	db := setupTestDB(t)
	mockStorage := new(MockStorage)
	logger := setupTestLogger()
	service := NewExportService(NewGormExportRepository(db, logger), mockStorage, logger)

	mockStorage.On("Save", mock.Anything, "exports/1/reporte-compras.xlsx", mock.Anything).Return(nil)

	record, err := service.Export(context.Background(), sampleRows(), FormatXLSX, "admin-1")
	assert.NoError(t, err)
	assert.Equal(t, "reporte-compras.xlsx", record.Filename)
	assert.Equal(t, models.ExportStatusCompleted, record.Status)

	mockStorage.AssertExpectations(t)
}

func TestExportUnknownFormat(t *testing.T) {
	db := setupTestDB(t)
	mockStorage := new(MockStorage)
	logger := setupTestLogger()
	service := NewExportService(NewGormExportRepository(db, logger), mockStorage, logger)

	record, err := service.Export(context.Background(), sampleRows(), "pdf", "admin-1")
	assert.Error(t, err)
	assert.Nil(t, record)

	var count int64
	db.Model(&models.ExportRecord{}).Count(&count)
	assert.Zero(t, count)
}

func TestExportStorageFailureMarksFailed(t *testing.T) {
	db := setupTestDB(t)
	mockStorage := new(MockStorage)
	logger := setupTestLogger()
	service := NewExportService(NewGormExportRepository(db, logger), mockStorage, logger)

	mockStorage.On("Save", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("s3 no disponible"))

	record, err := service.Export(context.Background(), sampleRows(), FormatCSV, "admin-1")
	assert.Error(t, err)
	assert.NotNil(t, record)
	assert.Equal(t, models.ExportStatusFailed, record.Status)

	var stored models.ExportRecord
	assert.NoError(t, db.First(&stored, record.ID).Error)
	assert.Equal(t, models.ExportStatusFailed, stored.Status)
	assert.Empty(t, stored.FileKey)
}

func TestGetExportFile(t *testing.T) {
	db := setupTestDB(t)
	mockStorage := new(MockStorage)
	logger := setupTestLogger()
	service := NewExportService(NewGormExportRepository(db, logger), mockStorage, logger)

	mockStorage.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	record, err := service.Export(context.Background(), sampleRows(), FormatCSV, "admin-1")
	assert.NoError(t, err)

	content := io.NopCloser(strings.NewReader("fecha;usuario\n"))
	mockStorage.On("Get", mock.Anything, record.FileKey).Return(content, nil)

	reader, filename, err := service.GetExportFile(context.Background(), record.ID)
	assert.NoError(t, err)
	assert.Equal(t, "reporte-compras.csv", filename)

	data, err := io.ReadAll(reader)
	assert.NoError(t, err)
	reader.Close()
	assert.Equal(t, "fecha;usuario\n", string(data))
}

func TestGetExportFileNotFound(t *testing.T) {
	db := setupTestDB(t)
	mockStorage := new(MockStorage)
	logger := setupTestLogger()
	service := NewExportService(NewGormExportRepository(db, logger), mockStorage, logger)

	_, _, err := service.GetExportFile(context.Background(), 42)
	assert.Error(t, err)
}

func TestListExports(t *testing.T) {
	db := setupTestDB(t)
	mockStorage := new(MockStorage)
	logger := setupTestLogger()
	service := NewExportService(NewGormExportRepository(db, logger), mockStorage, logger)

	mockStorage.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	for i := 0; i < 3; i++ {
		_, err := service.Export(context.Background(), sampleRows(), FormatCSV, "admin-1")
		assert.NoError(t, err)
	}

	list, err := service.ListExports(context.Background(), ListExportParams{Page: 1, PageSize: 2})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Len(t, list.Exports, 2)
	assert.Equal(t, 2, list.TotalPages)

	completed := models.ExportStatusCompleted
	list, err = service.ListExports(context.Background(), ListExportParams{Status: &completed})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
}

func TestXLSXRendererProducesWorkbook(t *testing.T) {
	renderer := NewXLSXRenderer(setupTestLogger())

	out, err := renderer.Render(context.Background(), sampleRows())
	assert.NoError(t, err)

	data, err := io.ReadAll(out)
	assert.NoError(t, err)
	// XLSX es un ZIP: firma PK.
	assert.True(t, len(data) > 4)
	assert.Equal(t, "PK", string(data[:2]))
}
