package service

import (
	"context"
	"time"

	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/models"
	"github.com/ukydev/service-center/internal/policy"
)

// RequestView is a service request as returned to callers, with string ids.
type RequestView struct {
	ID             string                  `json:"id"`
	CustomerID     string                  `json:"customer_id"`
	MechanicID     string                  `json:"mechanic_id"`
	ServiceType    string                  `json:"service_type"`
	Description    string                  `json:"description"`
	Vehicle        models.Vehicle          `json:"vehicle"`
	Status         string                  `json:"status"`
	MechanicUpdate string                  `json:"mechanic_update,omitempty"`
	UpdateStatus   string                  `json:"update_status"`
	Inventories    []models.InventoryUsage `json:"inventories"`
	Bill           *models.Bill            `json:"bill,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      *time.Time              `json:"updated_at,omitempty"`
}

// TransactionView is a payment as returned to callers
type TransactionView struct {
	ID               string    `json:"id"`
	CustomerID       string    `json:"customer_id"`
	ServiceRequestID string    `json:"service_request_id"`
	Amount           float64   `json:"amount"`
	PaymentMethod    string    `json:"payment_method"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

func requestView(r *models.ServiceRequest) RequestView {
	inventories := r.Inventories
	if inventories == nil {
		inventories = []models.InventoryUsage{}
	}
	return RequestView{
		ID:             r.ID.Hex(),
		CustomerID:     r.CustomerID,
		MechanicID:     r.MechanicID,
		ServiceType:    r.ServiceType,
		Description:    r.Description,
		Vehicle:        r.Vehicle,
		Status:         string(r.Status),
		MechanicUpdate: r.MechanicUpdate,
		UpdateStatus:   string(r.UpdateStatus),
		Inventories:    inventories,
		Bill:           r.Bill,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// customerView hides progress notes an admin has not verified.
func customerView(r *models.ServiceRequest) RequestView {
	v := requestView(r)
	if r.UpdateStatus != models.UpdateVerified {
		v.MechanicUpdate = ""
	}
	return v
}

func transactionView(t *models.Transaction) TransactionView {
	return TransactionView{
		ID:               t.ID.Hex(),
		CustomerID:       t.CustomerID,
		ServiceRequestID: t.ServiceRequestID,
		Amount:           t.Amount,
		PaymentMethod:    t.PaymentMethod,
		Status:           string(t.Status),
		CreatedAt:        t.CreatedAt,
	}
}

// ListOwnRequests lists the caller's open requests.
func (s *Service) ListOwnRequests(ctx context.Context, p *models.Principal) ([]RequestView, error) {
	if err := policy.Authorize(p, policy.ListOwnRequests); err != nil {
		return nil, err
	}
	return s.openRequests(ctx, db.RequestScope{CustomerID: p.ID}, customerView)
}

// ListAssignedRequests lists every request assigned to the calling mechanic,
// settled or not.
func (s *Service) ListAssignedRequests(ctx context.Context, p *models.Principal) ([]RequestView, error) {
	if err := policy.Authorize(p, policy.ListAssignedRequests); err != nil {
		return nil, err
	}
	reqs, err := s.requests.FindRequests(ctx, db.RequestScope{MechanicID: p.ID})
	if err != nil {
		return nil, err
	}
	views := make([]RequestView, 0, len(reqs))
	for i := range reqs {
		views = append(views, requestView(&reqs[i]))
	}
	return views, nil
}

// ListAllRequests lists every open request.
func (s *Service) ListAllRequests(ctx context.Context, p *models.Principal) ([]RequestView, error) {
	if err := policy.Authorize(p, policy.ListAllRequests); err != nil {
		return nil, err
	}
	return s.openRequests(ctx, db.RequestScope{}, requestView)
}

// openRequests drops requests settled by a completed transaction. Settlement
// is read from the ledger on every call.
func (s *Service) openRequests(ctx context.Context, scope db.RequestScope, view func(*models.ServiceRequest) RequestView) ([]RequestView, error) {
	reqs, err := s.requests.FindRequests(ctx, scope)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID.Hex())
	}
	settled, err := s.txs.SettledRequestIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]RequestView, 0, len(reqs))
	for i := range reqs {
		if settled[reqs[i].ID.Hex()] {
			continue
		}
		views = append(views, view(&reqs[i]))
	}
	return views, nil
}

// ListOwnTransactions lists the caller's completed payments
func (s *Service) ListOwnTransactions(ctx context.Context, p *models.Principal) ([]TransactionView, error) {
	if err := policy.Authorize(p, policy.ListOwnTransactions); err != nil {
		return nil, err
	}
	return s.completed(ctx, p.ID)
}

// ListAllTransactions lists every completed payment
func (s *Service) ListAllTransactions(ctx context.Context, p *models.Principal) ([]TransactionView, error) {
	if err := policy.Authorize(p, policy.ListAllTransactions); err != nil {
		return nil, err
	}
	return s.completed(ctx, "")
}

func (s *Service) completed(ctx context.Context, customerID string) ([]TransactionView, error) {
	txs, err := s.txs.FindCompleted(ctx, customerID)
	if err != nil {
		return nil, err
	}
	views := make([]TransactionView, 0, len(txs))
	for i := range txs {
		views = append(views, transactionView(&txs[i]))
	}
	return views, nil
}
