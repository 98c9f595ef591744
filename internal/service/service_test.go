package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/assign"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
)

var testNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc       *Service
	users     *db.Users
	requests  *db.ServiceRequests
	txs       *db.Transactions
	published *recordingPublisher
	logs      *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := db.NewMemoryStore()
	users := db.NewUsers(store)
	requests := db.NewServiceRequests(store)
	txs := db.NewTransactions(store)

	assigner, err := assign.New(assign.StrategyLeastLoaded, requests)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	pub := &recordingPublisher{}
	svc := New(users, requests, txs, assigner,
		WithPublisher(pub),
		WithLogger(logger),
		WithClock(func() time.Time { return testNow }),
	)
	return &fixture{svc: svc, users: users, requests: requests, txs: txs, published: pub, logs: hook}
}

func (f *fixture) addUser(t *testing.T, name string, role models.Role) *models.Principal {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Role: role}
	_, err := f.users.InsertUser(context.Background(), u)
	require.NoError(t, err)
	return u.Principal()
}

func (f *fixture) schedule(t *testing.T, customer *models.Principal) *RequestView {
	t.Helper()
	view, err := f.svc.CreateRequest(context.Background(), customer, corolla())
	require.NoError(t, err)
	return view
}

func (f *fixture) stored(t *testing.T, id string) *models.ServiceRequest {
	t.Helper()
	req, err := f.requests.FindRequest(context.Background(), db.RequestScope{ID: id})
	require.NoError(t, err)
	return req
}

func corolla() models.ServiceRequestInput {
	return models.ServiceRequestInput{
		ServiceType: "brakes",
		Description: "squeaking when stopping",
		Vehicle:     &models.Vehicle{Make: "Toyota", Model: "Corolla", Year: 2020},
	}
}

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }
