package report

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthorized — у действующего пользователя нет привилегии
	// администратора; данные не загружаются.
	ErrNotAuthorized = errors.New("acceso no autorizado")

	// ErrNothingToLoad — курсор отсутствует, догружать нечего.
	ErrNothingToLoad = errors.New("no hay más páginas para cargar")

	// ErrLoadInProgress — по сессии уже выполняется выборка страницы.
	ErrLoadInProgress = errors.New("ya hay una carga en curso")

	// ErrSuperseded — ответ страницы пришёл после сброса сессии
	// и был отброшен.
	ErrSuperseded = errors.New("respuesta de página descartada")

	// ErrUserNotFound — профиль пользователя отсутствует в хранилище.
	ErrUserNotFound = errors.New("usuario no encontrado")
)

// FetchError — временная ошибка хранилища при выборке страницы.
// Накопленные строки не затрагиваются, вызов можно повторить
// с тем же курсором.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error al leer la página de pedidos: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsTransient сообщает, является ли ошибка повторяемой ошибкой выборки.
func IsTransient(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
