package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// flakyStorage falla un número fijo de veces antes de funcionar.
type flakyStorage struct {
	failures int
	saves    int
}

func (f *flakyStorage) Save(ctx context.Context, key string, reader io.Reader) error {
	f.saves++
	if f.saves <= f.failures {
		return errors.New("fallo transitorio")
	}
	return nil
}

func (f *flakyStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("contenido")), nil
}

func (f *flakyStorage) Delete(ctx context.Context, key string) error { return nil }

func (f *flakyStorage) Exists(ctx context.Context, key string) (bool, error) { return true, nil }

func (f *flakyStorage) GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return "file:///tmp/" + key, nil
}

func (f *flakyStorage) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	return nil, nil
}

func TestRetryMiddlewareRecovers(t *testing.T) {
	flaky := &flakyStorage{failures: 2}
	s := NewRetryMiddleware(flaky, 3, time.Millisecond, logrus.New())

	err := s.Save(context.Background(), "exports/1/reporte-compras.csv", strings.NewReader("x"))
	assert.NoError(t, err)
	assert.Equal(t, 3, flaky.saves)
}

func TestRetryMiddlewareGivesUp(t *testing.T) {
	flaky := &flakyStorage{failures: 10}
	s := NewRetryMiddleware(flaky, 2, time.Millisecond, logrus.New())

	err := s.Save(context.Background(), "exports/1/reporte-compras.csv", strings.NewReader("x"))
	assert.Error(t, err)
	assert.Equal(t, 3, flaky.saves)
}

func TestRetryMiddlewareHonorsContext(t *testing.T) {
	flaky := &flakyStorage{failures: 10}
	s := NewRetryMiddleware(flaky, 5, 50*time.Millisecond, logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Save(ctx, "exports/1/reporte-compras.csv", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	local, err := NewLocalStorage(LocalConfig{BasePath: dir})
	assert.NoError(t, err)

	ctx := context.Background()
	key := "exports/7/reporte-compras.csv"

	assert.NoError(t, local.Save(ctx, key, strings.NewReader("fecha;usuario\n")))

	exists, err := local.Exists(ctx, key)
	assert.NoError(t, err)
	assert.True(t, exists)

	r, err := local.Get(ctx, key)
	assert.NoError(t, err)
	data, err := io.ReadAll(r)
	assert.NoError(t, err)
	r.Close()
	assert.Equal(t, "fecha;usuario\n", string(data))

	files, err := local.List(ctx, "exports/")
	assert.NoError(t, err)
	assert.Len(t, files, 1)

	assert.NoError(t, local.Delete(ctx, key))
	exists, err = local.Exists(ctx, key)
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	local, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	assert.NoError(t, err)

	assert.Error(t, local.Save(context.Background(), "../fuera.csv", strings.NewReader("x")))
}
