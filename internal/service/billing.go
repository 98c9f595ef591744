package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/apperr"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
	"github.com/ukydev/service-center/internal/policy"
)

// GenerateBill attaches a bill to a request, replacing any earlier bill.
func (s *Service) GenerateBill(ctx context.Context, p *models.Principal, in models.BillInput) (*models.Bill, error) {
	if err := policy.Authorize(p, policy.GenerateBill); err != nil {
		return nil, err
	}
	requestID := strings.TrimSpace(in.ServiceRequestID)
	if requestID == "" {
		return nil, apperr.Missing("service_request_id")
	}
	if in.Amount == nil {
		return nil, apperr.Missing("amount")
	}
	if err := checkAmount(*in.Amount); err != nil {
		return nil, err
	}

	bill := models.Bill{Amount: *in.Amount, Description: strings.TrimSpace(in.Description)}
	now := s.now()
	matched, err := s.requests.PatchRequest(ctx, db.RequestScope{ID: requestID}, db.RequestPatch{Bill: &bill, UpdatedAt: &now})
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, notFound(requestID)
	}

	s.logger.WithFields(log.Fields{
		"request_id": requestID,
		"amount":     bill.Amount,
	}).Info("Bill generated")
	s.publish(ctx, p, events.RequestBillGenerated, requestID, map[string]interface{}{"amount": bill.Amount})
	return &bill, nil
}

// InitiatePayment pays the bill on one of the caller's requests. The amount
// must equal the bill exactly. The request itself is not modified; the new
// transaction is what settles it.
func (s *Service) InitiatePayment(ctx context.Context, p *models.Principal, in models.PaymentInput) (*TransactionView, error) {
	if err := policy.Authorize(p, policy.InitiatePayment); err != nil {
		return nil, err
	}
	requestID := strings.TrimSpace(in.ServiceRequestID)
	if requestID == "" {
		return nil, apperr.Missing("service_request_id")
	}
	if in.Amount == nil {
		return nil, apperr.Missing("amount")
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		return nil, apperr.Missing("payment_method")
	}

	req, err := s.requests.FindRequest(ctx, db.RequestScope{ID: requestID, CustomerID: p.ID})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, notFound(requestID)
		}
		return nil, err
	}
	if req.Bill == nil {
		return nil, fmt.Errorf("%w: no bill has been generated", apperr.ErrAmountMismatch)
	}
	if *in.Amount != req.Bill.Amount {
		return nil, fmt.Errorf("%w: expected %v, got %v", apperr.ErrAmountMismatch, req.Bill.Amount, *in.Amount)
	}
	settled, err := s.txs.IsSettled(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if settled {
		return nil, fmt.Errorf("%w: %s", apperr.ErrAlreadySettled, requestID)
	}

	tx := &models.Transaction{
		CustomerID:       p.ID,
		ServiceRequestID: requestID,
		Amount:           *in.Amount,
		PaymentMethod:    method,
		Status:           models.TransactionCompleted,
		CreatedAt:        s.now(),
	}
	id, err := s.txs.InsertTransaction(ctx, tx)
	if err != nil {
		// lost a race with a concurrent payment
		if errors.Is(err, db.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrAlreadySettled, requestID)
		}
		return nil, err
	}

	s.logger.WithFields(log.Fields{
		"transaction_id": id,
		"request_id":     requestID,
		"customer_id":    p.ID,
		"amount":         tx.Amount,
	}).Info("Payment completed")
	s.publish(ctx, p, events.PaymentCompleted, requestID, map[string]interface{}{
		"transaction_id": id,
		"amount":         tx.Amount,
	})

	view := transactionView(tx)
	return &view, nil
}

func checkAmount(amount float64) error {
	switch {
	case math.IsNaN(amount), math.IsInf(amount, 0):
		return apperr.Invalid("amount", "must be a finite number")
	case amount < 0:
		return apperr.Invalid("amount", "must not be negative")
	}
	return nil
}
