package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/Pereval/internal/core/ports"
	"github.com/GoArmGo/Pereval/internal/domain"
	"github.com/GoArmGo/Pereval/internal/messaging/payloads"
	"github.com/GoArmGo/Pereval/internal/metrics"
)

// archiveSnapshot то, что попадает в архив: событие и состояние перевала на момент обработки.
type archiveSnapshot struct {
	Event      payloads.PerevalEvent `json:"event"`
	ArchivedAt time.Time             `json:"archived_at"`
	Pereval    domain.PerevalView    `json:"pereval"`
}

type archiveUseCase struct {
	storage ports.PerevalStorage
	archive ports.ArchiveStorage
	logger  *slog.Logger
}

// NewArchiveUseCase создает обработчик событий для архивации снимков заявок
func NewArchiveUseCase(storage ports.PerevalStorage, archive ports.ArchiveStorage, logger *slog.Logger) ArchiveUseCase {
	return &archiveUseCase{storage: storage, archive: archive, logger: logger}
}

// ArchiveObjectKey ключ объекта снимка: perevals/<id>/<event_id>.json
func ArchiveObjectKey(event payloads.PerevalEvent) string {
	return fmt.Sprintf("perevals/%d/%s.json", event.PerevalID, event.EventID)
}

func (uc *archiveUseCase) ArchivePerevalEvent(ctx context.Context, event payloads.PerevalEvent) (string, error) {
	start := time.Now()

	p, err := uc.storage.GetPerevalByID(ctx, event.PerevalID)
	if err != nil {
		metrics.ObserveArchived(metrics.OutcomeError)
		return "", fmt.Errorf("usecase: ошибка при получении перевала %d для архива: %w", event.PerevalID, err)
	}
	if p == nil {
		metrics.ObserveArchived(metrics.OutcomeNotFound)
		uc.logger.Warn("pereval for event not found, skipping archive",
			"pereval_id", event.PerevalID,
			"event_id", event.EventID,
		)
		return "", nil
	}

	body, err := json.Marshal(archiveSnapshot{
		Event:      event,
		ArchivedAt: time.Now().UTC(),
		Pereval:    p.View(),
	})
	if err != nil {
		metrics.ObserveArchived(metrics.OutcomeError)
		return "", fmt.Errorf("usecase: ошибка сериализации снимка: %w", err)
	}

	key := ArchiveObjectKey(event)
	if _, err := uc.archive.UploadFile(ctx, key, bytes.NewReader(body), "application/json"); err != nil {
		metrics.ObserveArchived(metrics.OutcomeError)
		return "", fmt.Errorf("usecase: ошибка загрузки снимка %s: %w", key, err)
	}

	metrics.ObserveArchived(metrics.OutcomeOK)
	uc.logger.Info("pereval snapshot archived",
		"pereval_id", event.PerevalID,
		"event_type", event.Type,
		"key", key,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return key, nil
}
