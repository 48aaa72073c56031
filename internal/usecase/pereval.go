package usecase

import (
	"context"

	"github.com/GoArmGo/Pereval/internal/domain"
	"github.com/GoArmGo/Pereval/internal/messaging/payloads"
)

// PerevalUseCase определяет бизнес-логику работы с заявками о перевалах.
// Все входные данные проверяются до обращения к хранилищу.
type PerevalUseCase interface {
	// SubmitPereval создаёт заявку в статусе new и возвращает её id
	SubmitPereval(ctx context.Context, in domain.SubmitInput) (int64, error)

	// GetPereval возвращает полное представление перевала или domain.ErrPerevalNotFound
	GetPereval(ctx context.Context, id int64) (*domain.PerevalView, error)

	// ListPerevalsByEmail возвращает краткие представления всех заявок автора
	ListPerevalsByEmail(ctx context.Context, email string) ([]domain.PerevalSummary, error)

	// UpdatePereval применяет частичное обновление к заявке в статусе new
	UpdatePereval(ctx context.Context, id int64, in domain.UpdateInput) error
}

// ArchiveUseCase сохраняет снимки заявок в объектное хранилище по событиям из очереди.
type ArchiveUseCase interface {
	// ArchivePerevalEvent выгружает текущее состояние перевала и возвращает ключ объекта.
	// Пустой ключ без ошибки означает, что перевала уже нет.
	ArchivePerevalEvent(ctx context.Context, event payloads.PerevalEvent) (string, error)
}
