package services

import "errors"

// Ошибки уровня сервисов. Хендлеры транслируют их в HTTP-коды через errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	// ErrConflict - проигрыш гонки за уникальную запись. В норме разрешается
	// внутри: проигравший перечитывает строку победителя. Выходит наружу
	// только если перечитать не удалось.
	ErrConflict = errors.New("conflict")
)
