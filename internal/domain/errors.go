package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPerevalNotFound возвращается когда перевал с указанным id не существует
	ErrPerevalNotFound = errors.New("pereval not found")

	// ErrNotEditable возвращается при попытке изменить запись не в статусе new
	ErrNotEditable = errors.New("pereval is not editable")

	// ErrInvalidInput возвращается при семантически некорректных входных данных
	ErrInvalidInput = errors.New("invalid input")
)

// NotEditableError несёт текущий статус записи, которую пытались изменить.
type NotEditableError struct {
	ID     int64
	Status Status
}

func (e *NotEditableError) Error() string {
	return fmt.Sprintf("редактирование запрещено: запись %d в статусе '%s'", e.ID, e.Status)
}

func (e *NotEditableError) Is(target error) bool {
	return target == ErrNotEditable
}

// ValidationError описывает некорректное поле входных данных.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("некорректное поле %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
