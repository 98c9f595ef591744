package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestScope selects service requests. Non-empty fields are ANDed into the
// store filter, so ownership is checked by the same atomic operation that
// reads or writes the document.
type RequestScope struct {
	ID         string
	CustomerID string
	MechanicID string
}

// filter builds the store filter. ok is false when ID is not a valid ObjectID,
// in which case nothing can match.
func (s RequestScope) filter() (f bson.M, ok bool) {
	f = bson.M{}
	if s.ID != "" {
		oid, err := primitive.ObjectIDFromHex(s.ID)
		if err != nil {
			return nil, false
		}
		f["_id"] = oid
	}
	if s.CustomerID != "" {
		f["customer_id"] = s.CustomerID
	}
	if s.MechanicID != "" {
		f["mechanic_id"] = s.MechanicID
	}
	return f, true
}

// RequestPatch lists the mutable workflow fields to set. Nil fields are left alone.
type RequestPatch struct {
	Status         *models.Status
	MechanicUpdate *string
	UpdateStatus   *models.UpdateStatus
	Bill           *models.Bill
	UpdatedAt      *time.Time
}

func (p RequestPatch) fields() bson.M {
	set := bson.M{}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	if p.MechanicUpdate != nil {
		set["mechanic_update"] = *p.MechanicUpdate
	}
	if p.UpdateStatus != nil {
		set["update_status"] = string(*p.UpdateStatus)
	}
	if p.Bill != nil {
		set["bill"] = *p.Bill
	}
	if p.UpdatedAt != nil {
		set["updated_at"] = *p.UpdatedAt
	}
	return set
}

// ServiceRequestCollection defines the interface for service request operations
type ServiceRequestCollection interface {
	InsertRequest(ctx context.Context, req *models.ServiceRequest) (string, error)
	FindRequest(ctx context.Context, scope RequestScope) (*models.ServiceRequest, error)
	FindRequests(ctx context.Context, scope RequestScope) ([]models.ServiceRequest, error)
	PatchRequest(ctx context.Context, scope RequestScope, patch RequestPatch) (bool, error)
	AppendInventory(ctx context.Context, scope RequestScope, usage models.InventoryUsage) (bool, error)
	CountAssigned(ctx context.Context, mechanicID string) (int64, error)
}

// ServiceRequests implements ServiceRequestCollection on a Store
type ServiceRequests struct {
	store Store
}

// NewServiceRequests creates a service request collection backed by store
func NewServiceRequests(store Store) *ServiceRequests {
	return &ServiceRequests{store: store}
}

// InsertRequest inserts a service request and sets its ID
func (c *ServiceRequests) InsertRequest(ctx context.Context, req *models.ServiceRequest) (string, error) {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	if req.Inventories == nil {
		req.Inventories = []models.InventoryUsage{}
	}
	id, err := c.store.InsertOne(ctx, CollectionServiceRequests, req)
	if err != nil {
		return "", fmt.Errorf("insert service request: %w", err)
	}
	return id, nil
}

// FindRequest returns the single request in scope, or ErrNotFound
func (c *ServiceRequests) FindRequest(ctx context.Context, scope RequestScope) (*models.ServiceRequest, error) {
	filter, ok := scope.filter()
	if !ok || scope.ID == "" {
		return nil, ErrNotFound
	}
	var req models.ServiceRequest
	if err := c.store.FindOne(ctx, CollectionServiceRequests, filter, &req); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find service request: %w", err)
	}
	return &req, nil
}

// FindRequests lists requests in scope, in stored order
func (c *ServiceRequests) FindRequests(ctx context.Context, scope RequestScope) ([]models.ServiceRequest, error) {
	filter, ok := scope.filter()
	if !ok {
		return []models.ServiceRequest{}, nil
	}
	var reqs []models.ServiceRequest
	if err := c.store.FindMany(ctx, CollectionServiceRequests, filter, &reqs); err != nil {
		return nil, fmt.Errorf("find service requests: %w", err)
	}
	return reqs, nil
}

// PatchRequest applies patch to the request in scope in one update and
// reports whether a document matched. An UpdateStatus outside the review
// states is refused before the store is touched.
func (c *ServiceRequests) PatchRequest(ctx context.Context, scope RequestScope, patch RequestPatch) (bool, error) {
	if patch.UpdateStatus != nil && !models.IsValidUpdateStatus(*patch.UpdateStatus) {
		return false, fmt.Errorf("patch service request: unknown update status %q", *patch.UpdateStatus)
	}
	filter, ok := scope.filter()
	if !ok || scope.ID == "" {
		return false, nil
	}
	set := patch.fields()
	if len(set) == 0 {
		return false, fmt.Errorf("patch service request: nothing to update")
	}
	matched, err := c.store.UpdateOne(ctx, CollectionServiceRequests, filter, set)
	if err != nil {
		return false, fmt.Errorf("patch service request: %w", err)
	}
	return matched > 0, nil
}

// AppendInventory pushes one inventory line onto the request in scope.
func (c *ServiceRequests) AppendInventory(ctx context.Context, scope RequestScope, usage models.InventoryUsage) (bool, error) {
	filter, ok := scope.filter()
	if !ok || scope.ID == "" {
		return false, nil
	}
	matched, err := c.store.PushToArray(ctx, CollectionServiceRequests, filter, "inventories", usage)
	if err != nil {
		return false, fmt.Errorf("append inventory: %w", err)
	}
	return matched > 0, nil
}

// CountAssigned counts requests assigned to a mechanic
func (c *ServiceRequests) CountAssigned(ctx context.Context, mechanicID string) (int64, error) {
	n, err := c.store.Count(ctx, CollectionServiceRequests, bson.M{"mechanic_id": mechanicID})
	if err != nil {
		return 0, fmt.Errorf("count assigned requests: %w", err)
	}
	return n, nil
}
