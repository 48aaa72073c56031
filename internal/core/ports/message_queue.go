package ports

import (
	"context"

	"github.com/GoArmGo/Pereval/internal/messaging/payloads"
)

// PerevalEventPublisher публикует события о заявках после фиксации транзакции.
type PerevalEventPublisher interface {
	PublishPerevalEvent(ctx context.Context, event payloads.PerevalEvent) error
}

// PerevalEventConsumer используется воркером для получения событий из очереди.
type PerevalEventConsumer interface {
	// StartConsumingPerevalEvents начинает прослушивание очереди,
	// handler вызывается для каждого полученного события.
	// Возвращённый канал закрывается, когда обработка последнего сообщения завершена.
	StartConsumingPerevalEvents(ctx context.Context, handler func(context.Context, payloads.PerevalEvent) error) (<-chan struct{}, error)
}
