package payloads

import (
	"time"

	"github.com/google/uuid"
)

const (
	PerevalSubmitted = "pereval.submitted"
	PerevalUpdated   = "pereval.updated"
)

// PerevalEvent сообщение о фиксированном изменении заявки, передаётся через RabbitMQ.
type PerevalEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Type       string    `json:"type"`
	PerevalID  int64     `json:"pereval_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewPerevalEvent создаёт событие с новым идентификатором.
func NewPerevalEvent(eventType string, perevalID int64) PerevalEvent {
	return PerevalEvent{
		EventID:    uuid.New(),
		Type:       eventType,
		PerevalID:  perevalID,
		OccurredAt: time.Now().UTC(),
	}
}
