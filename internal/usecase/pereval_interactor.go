package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/Pereval/internal/core/ports"
	"github.com/GoArmGo/Pereval/internal/domain"
	"github.com/GoArmGo/Pereval/internal/messaging/payloads"
	"github.com/GoArmGo/Pereval/internal/metrics"
)

// perevalUseCase implements PerevalUseCase
type perevalUseCase struct {
	storage   ports.PerevalStorage
	publisher ports.PerevalEventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewPerevalUseCase создает новый экземпляр PerevalUseCase.
// publisher может быть nil: тогда события не публикуются.
func NewPerevalUseCase(
	storage ports.PerevalStorage,
	publisher ports.PerevalEventPublisher,
	logger *slog.Logger,
) PerevalUseCase {
	return &perevalUseCase{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (uc *perevalUseCase) SubmitPereval(ctx context.Context, in domain.SubmitInput) (id int64, err error) {
	defer func() { metrics.ObserveOperation("submit", outcomeOf(err)) }()

	np, err := in.ToNewPereval(uc.now())
	if err != nil {
		return 0, err
	}

	id, err = uc.storage.SubmitPereval(ctx, np)
	if err != nil {
		return 0, fmt.Errorf("usecase: ошибка при сохранении заявки: %w", err)
	}

	uc.publish(ctx, payloads.PerevalSubmitted, id)
	return id, nil
}

func (uc *perevalUseCase) GetPereval(ctx context.Context, id int64) (view *domain.PerevalView, err error) {
	defer func() { metrics.ObserveOperation("get", outcomeOf(err)) }()

	if id <= 0 {
		return nil, domain.ErrPerevalNotFound
	}

	p, err := uc.storage.GetPerevalByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении перевала %d: %w", id, err)
	}
	if p == nil {
		return nil, domain.ErrPerevalNotFound
	}

	v := p.View()
	return &v, nil
}

func (uc *perevalUseCase) ListPerevalsByEmail(ctx context.Context, email string) (list []domain.PerevalSummary, err error) {
	defer func() { metrics.ObserveOperation("list_by_email", outcomeOf(err)) }()

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &domain.ValidationError{Field: "user_email", Reason: "пустое значение"}
	}

	perevals, err := uc.storage.ListPerevalsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении перевалов автора: %w", err)
	}

	list = make([]domain.PerevalSummary, 0, len(perevals))
	for i := range perevals {
		list = append(list, perevals[i].Summary())
	}
	return list, nil
}

func (uc *perevalUseCase) UpdatePereval(ctx context.Context, id int64, in domain.UpdateInput) (err error) {
	defer func() { metrics.ObserveOperation("update", outcomeOf(err)) }()

	patch, err := in.ToPatch()
	if err != nil {
		return err
	}
	if id <= 0 {
		return domain.ErrPerevalNotFound
	}

	if err := uc.storage.UpdatePereval(ctx, id, patch); err != nil {
		if errors.Is(err, domain.ErrPerevalNotFound) || errors.Is(err, domain.ErrNotEditable) {
			return err
		}
		return fmt.Errorf("usecase: ошибка при обновлении перевала %d: %w", id, err)
	}

	uc.publish(ctx, payloads.PerevalUpdated, id)
	return nil
}

// publish отправляет событие после фиксации транзакции.
// Ошибка публикации не отменяет уже сохранённую операцию.
func (uc *perevalUseCase) publish(ctx context.Context, eventType string, id int64) {
	if uc.publisher == nil {
		return
	}
	event := payloads.NewPerevalEvent(eventType, id)
	if err := uc.publisher.PublishPerevalEvent(ctx, event); err != nil {
		metrics.ObserveEventPublished(eventType, metrics.OutcomeError)
		uc.logger.Warn("failed to publish pereval event",
			"type", eventType,
			"pereval_id", id,
			"error", err,
		)
		return
	}
	metrics.ObserveEventPublished(eventType, metrics.OutcomeOK)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, domain.ErrInvalidInput):
		return metrics.OutcomeInvalid
	case errors.Is(err, domain.ErrPerevalNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrNotEditable):
		return metrics.OutcomeNotEditable
	default:
		return metrics.OutcomeError
	}
}
