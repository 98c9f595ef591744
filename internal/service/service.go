// Package service implements the service request workflow: scheduling,
// mechanic work, admin review, billing and payment. Every operation takes the
// resolved principal explicitly and authorizes it before touching the store.
package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/assign"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
)

// Service runs workflow operations against the store
type Service struct {
	users    db.UserCollection
	requests db.ServiceRequestCollection
	txs      db.TransactionCollection
	assigner assign.Policy
	events   events.Publisher
	logger   log.FieldLogger
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithPublisher sets where committed mutations are announced
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the logger
func WithLogger(l log.FieldLogger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a workflow service
func New(users db.UserCollection, requests db.ServiceRequestCollection, txs db.TransactionCollection, assigner assign.Policy, opts ...Option) *Service {
	s := &Service{
		users:    users,
		requests: requests,
		txs:      txs,
		assigner: assigner,
		events:   events.Noop{},
		logger:   log.StandardLogger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publish announces a committed mutation. Delivery failures are logged and
// never undo the mutation.
func (s *Service) publish(ctx context.Context, p *models.Principal, t events.Type, requestID string, data map[string]interface{}) {
	e := events.New(t, requestID, p.ID, string(p.Role), data)
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event":      string(t),
			"request_id": requestID,
		}).Warn("Failed to publish workflow event")
	}
}
