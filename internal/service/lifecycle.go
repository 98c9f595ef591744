package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/apperr"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
	"github.com/ukydev/service-center/internal/policy"
)

// CreateRequest schedules a service for the calling customer and assigns it
// to a mechanic.
func (s *Service) CreateRequest(ctx context.Context, p *models.Principal, in models.ServiceRequestInput) (*RequestView, error) {
	if err := policy.Authorize(p, policy.CreateRequest); err != nil {
		return nil, err
	}
	if field := in.MissingField(); field != "" {
		return nil, apperr.Missing(field)
	}
	if in.Vehicle.Year < 0 {
		return nil, apperr.Invalid("vehicle.year", "must not be negative")
	}

	roster, err := s.users.FindUsersByRole(ctx, models.RoleMechanic)
	if err != nil {
		return nil, fmt.Errorf("load mechanic roster: %w", err)
	}
	mechanicID, err := s.assigner.Assign(ctx, roster)
	if err != nil {
		return nil, err
	}

	req := &models.ServiceRequest{
		CustomerID:   p.ID,
		MechanicID:   mechanicID,
		ServiceType:  strings.TrimSpace(in.ServiceType),
		Description:  strings.TrimSpace(in.Description),
		Vehicle:      *in.Vehicle,
		Status:       models.StatusPending,
		UpdateStatus: models.UpdateNone,
		CreatedAt:    s.now(),
	}
	id, err := s.requests.InsertRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(log.Fields{
		"request_id":  id,
		"customer_id": p.ID,
		"mechanic_id": mechanicID,
	}).Info("Service request created")
	s.publish(ctx, p, events.RequestCreated, id, map[string]interface{}{
		"mechanic_id":  mechanicID,
		"service_type": req.ServiceType,
	})

	view := requestView(req)
	return &view, nil
}

// MechanicUpdateStatus sets the status of a request assigned to the caller.
func (s *Service) MechanicUpdateStatus(ctx context.Context, p *models.Principal, requestID, status string) error {
	if err := policy.Authorize(p, policy.UpdateOwnStatus); err != nil {
		return err
	}
	st, err := parseStatus(status)
	if err != nil {
		return err
	}
	return s.setStatus(ctx, p, db.RequestScope{ID: requestID, MechanicID: p.ID}, st)
}

// MarkComplete sets a request assigned to the caller to completed. Repeating
// it leaves the request unchanged apart from updated_at.
func (s *Service) MarkComplete(ctx context.Context, p *models.Principal, requestID string) error {
	if err := policy.Authorize(p, policy.UpdateOwnStatus); err != nil {
		return err
	}
	return s.setStatus(ctx, p, db.RequestScope{ID: requestID, MechanicID: p.ID}, models.StatusCompleted)
}

// AdminSetStatus sets any request's status to caller-supplied text.
func (s *Service) AdminSetStatus(ctx context.Context, p *models.Principal, requestID, status string) error {
	if err := policy.Authorize(p, policy.OverrideStatus); err != nil {
		return err
	}
	st, err := parseStatus(status)
	if err != nil {
		return err
	}
	return s.setStatus(ctx, p, db.RequestScope{ID: requestID}, st)
}

func (s *Service) setStatus(ctx context.Context, p *models.Principal, scope db.RequestScope, st models.Status) error {
	now := s.now()
	matched, err := s.requests.PatchRequest(ctx, scope, db.RequestPatch{Status: &st, UpdatedAt: &now})
	if err != nil {
		return err
	}
	if !matched {
		return notFound(scope.ID)
	}
	s.publish(ctx, p, events.RequestStatusChanged, scope.ID, map[string]interface{}{"status": string(st)})
	return nil
}

// SubmitUpdate records a progress note on a request assigned to the caller
// and queues it for admin verification.
func (s *Service) SubmitUpdate(ctx context.Context, p *models.Principal, requestID, update string) error {
	if err := policy.Authorize(p, policy.SubmitUpdate); err != nil {
		return err
	}
	update = strings.TrimSpace(update)
	if update == "" {
		return apperr.Missing("update")
	}

	pending := models.UpdatePendingAdminVerification
	now := s.now()
	matched, err := s.requests.PatchRequest(ctx, db.RequestScope{ID: requestID, MechanicID: p.ID}, db.RequestPatch{
		MechanicUpdate: &update,
		UpdateStatus:   &pending,
		UpdatedAt:      &now,
	})
	if err != nil {
		return err
	}
	if !matched {
		return notFound(requestID)
	}
	s.publish(ctx, p, events.RequestUpdateSubmitted, requestID, nil)
	return nil
}

// VerifyUpdate accepts or rejects the mechanic's progress note. Accepting it
// also completes the request.
func (s *Service) VerifyUpdate(ctx context.Context, p *models.Principal, requestID string, verified *bool) error {
	if err := policy.Authorize(p, policy.VerifyUpdate); err != nil {
		return err
	}
	if verified == nil {
		return apperr.Missing("verified")
	}

	now := s.now()
	decision := models.UpdateRejected
	patch := db.RequestPatch{UpdateStatus: &decision, UpdatedAt: &now}
	if *verified {
		decision = models.UpdateVerified
		completed := models.StatusCompleted
		patch.Status = &completed
	}

	matched, err := s.requests.PatchRequest(ctx, db.RequestScope{ID: requestID}, patch)
	if err != nil {
		return err
	}
	if !matched {
		return notFound(requestID)
	}

	s.logger.WithFields(log.Fields{
		"request_id": requestID,
		"decision":   string(decision),
	}).Info("Mechanic update reviewed")
	s.publish(ctx, p, events.RequestUpdateVerified, requestID, map[string]interface{}{"update_status": string(decision)})
	return nil
}

// RecordInventory appends one inventory line to a request assigned to the caller.
func (s *Service) RecordInventory(ctx context.Context, p *models.Principal, requestID string, in models.InventoryInput) (*models.InventoryUsage, error) {
	if err := policy.Authorize(p, policy.RecordInventory); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.ItemName)
	if name == "" {
		return nil, apperr.Missing("item_name")
	}
	if in.QuantityUsed == nil {
		return nil, apperr.Missing("quantity_used")
	}
	if *in.QuantityUsed <= 0 {
		return nil, apperr.Invalid("quantity_used", "must be positive")
	}

	usage := models.InventoryUsage{
		ItemName:     name,
		QuantityUsed: *in.QuantityUsed,
		MechanicID:   p.ID,
		RecordedAt:   s.now(),
	}
	matched, err := s.requests.AppendInventory(ctx, db.RequestScope{ID: requestID, MechanicID: p.ID}, usage)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, notFound(requestID)
	}
	s.publish(ctx, p, events.RequestInventoryRecorded, requestID, map[string]interface{}{
		"item_name":     usage.ItemName,
		"quantity_used": usage.QuantityUsed,
	})
	return &usage, nil
}

func parseStatus(status string) (models.Status, error) {
	st, err := models.ParseStatus(status)
	switch {
	case errors.Is(err, models.ErrEmptyStatus):
		return "", apperr.Missing("status")
	case err != nil:
		return "", apperr.Invalid("status", err.Error())
	}
	return st, nil
}

func notFound(requestID string) error {
	return fmt.Errorf("%w: service request %s", apperr.ErrNotFound, requestID)
}
