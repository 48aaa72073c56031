package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoArmGo/Pereval/internal/messaging/payloads"
)

// runWorker архивирует снимки заявок по событиям из RabbitMQ до отмены ctx
func (a *App) runWorker(ctx context.Context) error {
	if a.eventConsumer == nil || a.archiveUseCase == nil {
		return errors.New("для режима worker нужны RABBITMQ_URL и параметры MINIO_*")
	}

	messageHandler := func(ctx context.Context, event payloads.PerevalEvent) error {
		a.logger.Info("processing event",
			"event_id", event.EventID,
			"type", event.Type,
			"pereval_id", event.PerevalID,
		)
		_, err := a.archiveUseCase.ArchivePerevalEvent(ctx, event)
		return err
	}

	done, err := a.eventConsumer.StartConsumingPerevalEvents(ctx, messageHandler)
	if err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}

	a.logger.Info("worker started, waiting for events")
	<-ctx.Done()
	a.logger.Info("shutdown signal received, stopping worker")
	// канал RabbitMQ закрывается в Shutdown, текущее сообщение нужно дообработать
	<-done
	a.logger.Info("consumer stopped")
	return nil
}
