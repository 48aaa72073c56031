package ports

import (
	"context"

	"github.com/GoArmGo/Pereval/internal/domain"
)

// PerevalStorage определяет методы хранилища перевалов.
// Каждый метод сам открывает и завершает свою транзакцию.
type PerevalStorage interface {
	// SubmitPereval атомарно создаёт перевал, его изображения и при необходимости автора и координаты.
	SubmitPereval(ctx context.Context, p *domain.NewPereval) (int64, error)

	// GetPerevalByID возвращает nil, nil если записи нет.
	GetPerevalByID(ctx context.Context, id int64) (*domain.Pereval, error)

	// ListPerevalsByEmail возвращает перевалы автора без связанных сущностей.
	ListPerevalsByEmail(ctx context.Context, email string) ([]domain.Pereval, error)

	// UpdatePereval применяет частичное обновление к записи в статусе new.
	// Возвращает domain.ErrPerevalNotFound или *domain.NotEditableError.
	UpdatePereval(ctx context.Context, id int64, patch *domain.PerevalPatch) error

	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}
