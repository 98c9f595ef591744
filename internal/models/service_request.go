package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxStatusLength bounds the free-text status an admin or mechanic may set.
const MaxStatusLength = 64

var (
	ErrEmptyStatus   = errors.New("status is required")
	ErrStatusTooLong = errors.New("status is too long")
)

// Status is the top-level request state. Values other than the named
// constants are allowed; admins may set arbitrary text.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// ParseStatus trims and validates caller-supplied status text.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyStatus
	}
	if len(s) > MaxStatusLength {
		return "", ErrStatusTooLong
	}
	return Status(s), nil
}

// UpdateStatus tracks a mechanic progress report through admin review.
type UpdateStatus string

const (
	UpdateNone                     UpdateStatus = "none"
	UpdatePendingAdminVerification UpdateStatus = "pending_admin_verification"
	UpdateVerified                 UpdateStatus = "verified"
	UpdateRejected                 UpdateStatus = "rejected"
)

// IsValidUpdateStatus checks if an update status is one of the known values
func IsValidUpdateStatus(s UpdateStatus) bool {
	switch s {
	case UpdateNone, UpdatePendingAdminVerification, UpdateVerified, UpdateRejected:
		return true
	default:
		return false
	}
}

// Bill is the amount owed for a request. Regenerating replaces it.
type Bill struct {
	Amount      float64 `bson:"amount" json:"amount"`
	Description string  `bson:"description" json:"description"`
}

// InventoryUsage is one append-only line of parts consumed on a request.
type InventoryUsage struct {
	ItemName     string    `bson:"item_name" json:"item_name"`
	QuantityUsed int       `bson:"quantity_used" json:"quantity_used"`
	MechanicID   string    `bson:"mechanic_id" json:"mechanic_id"`
	RecordedAt   time.Time `bson:"recorded_at" json:"recorded_at"`
}

// ServiceRequest is a customer's ticket for work on a vehicle.
type ServiceRequest struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID     string             `bson:"customer_id" json:"customer_id"`
	MechanicID     string             `bson:"mechanic_id" json:"mechanic_id"`
	ServiceType    string             `bson:"service_type" json:"service_type"`
	Description    string             `bson:"description" json:"description"`
	Vehicle        Vehicle            `bson:"vehicle" json:"vehicle"`
	Status         Status             `bson:"status" json:"status"`
	MechanicUpdate string             `bson:"mechanic_update,omitempty" json:"mechanic_update,omitempty"`
	UpdateStatus   UpdateStatus       `bson:"update_status" json:"update_status"`
	Inventories    []InventoryUsage   `bson:"inventories" json:"inventories"`
	Bill           *Bill              `bson:"bill,omitempty" json:"bill,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      *time.Time         `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ServiceRequestInput is the customer payload for scheduling a service.
type ServiceRequestInput struct {
	ServiceType string   `json:"service_type"`
	Description string   `json:"description"`
	Vehicle     *Vehicle `json:"vehicle"`
}

// MissingField names the first absent required field, or returns "".
func (in ServiceRequestInput) MissingField() string {
	switch {
	case strings.TrimSpace(in.ServiceType) == "":
		return "service_type"
	case strings.TrimSpace(in.Description) == "":
		return "description"
	case in.Vehicle == nil:
		return "vehicle"
	}
	return in.Vehicle.MissingField()
}

// StatusInput carries a status change.
type StatusInput struct {
	Status string `json:"status"`
}

// UpdateInput carries a mechanic progress note.
type UpdateInput struct {
	Update string `json:"update"`
}

// VerifyInput carries an admin decision on a progress note.
type VerifyInput struct {
	Verified *bool `json:"verified"`
}

// InventoryInput carries one inventory usage line.
type InventoryInput struct {
	ItemName     string `json:"item_name"`
	QuantityUsed *int   `json:"quantity_used"`
}

// BillInput is the admin payload for billing a request.
type BillInput struct {
	ServiceRequestID string   `json:"service_request_id"`
	Amount           *float64 `json:"amount"`
	Description      string   `json:"description"`
}
