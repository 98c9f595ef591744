// Package events publishes workflow notifications after a mutation commits.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type names a workflow event.
type Type string

const (
	RequestCreated           Type = "request.created"
	RequestStatusChanged     Type = "request.status_changed"
	RequestUpdateSubmitted   Type = "request.update_submitted"
	RequestUpdateVerified    Type = "request.update_verified"
	RequestInventoryRecorded Type = "request.inventory_recorded"
	RequestBillGenerated     Type = "request.bill_generated"
	PaymentCompleted         Type = "payment.completed"
)

// Event describes one committed workflow mutation.
type Event struct {
	ID         string                 `json:"id"`
	Type       Type                   `json:"type"`
	RequestID  string                 `json:"request_id"`
	ActorID    string                 `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, requestID, actorID, actorRole string, data map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		RequestID:  requestID,
		ActorID:    actorID,
		ActorRole:  actorRole,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop drops every event.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
