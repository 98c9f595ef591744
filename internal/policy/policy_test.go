package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/service-center/internal/apperr"
	"github.com/ukydev/service-center/internal/models"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		name     string
		role     models.Role
		op       Operation
		expected bool
	}{
		{"customer can create request", models.RoleCustomer, CreateRequest, true},
		{"mechanic cannot create request", models.RoleMechanic, CreateRequest, false},
		{"admin cannot create request", models.RoleAdmin, CreateRequest, false},

		{"customer lists own requests", models.RoleCustomer, ListOwnRequests, true},
		{"mechanic lists assigned requests", models.RoleMechanic, ListAssignedRequests, true},
		{"admin lists all requests", models.RoleAdmin, ListAllRequests, true},
		{"customer cannot list all requests", models.RoleCustomer, ListAllRequests, false},

		{"mechanic updates own status", models.RoleMechanic, UpdateOwnStatus, true},
		{"admin cannot use mechanic status path", models.RoleAdmin, UpdateOwnStatus, false},
		{"admin overrides status", models.RoleAdmin, OverrideStatus, true},
		{"mechanic cannot override status", models.RoleMechanic, OverrideStatus, false},

		{"mechanic submits update", models.RoleMechanic, SubmitUpdate, true},
		{"admin verifies update", models.RoleAdmin, VerifyUpdate, true},
		{"mechanic cannot verify update", models.RoleMechanic, VerifyUpdate, false},

		{"mechanic records inventory", models.RoleMechanic, RecordInventory, true},
		{"admin cannot record inventory", models.RoleAdmin, RecordInventory, false},

		{"admin generates bill", models.RoleAdmin, GenerateBill, true},
		{"customer cannot generate bill", models.RoleCustomer, GenerateBill, false},
		{"customer pays", models.RoleCustomer, InitiatePayment, true},
		{"admin cannot pay", models.RoleAdmin, InitiatePayment, false},

		{"customer lists own transactions", models.RoleCustomer, ListOwnTransactions, true},
		{"admin lists all transactions", models.RoleAdmin, ListAllTransactions, true},
		{"mechanic cannot list transactions", models.RoleMechanic, ListAllTransactions, false},

		{"unknown operation", models.RoleAdmin, "drop_database", false},
		{"unknown role", "manager", ListAllRequests, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Allowed(tt.role, tt.op))
		})
	}
}

func TestAuthorize(t *testing.T) {
	err := Authorize(nil, CreateRequest)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	err = Authorize(&models.Principal{Role: models.RoleCustomer}, CreateRequest)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	err = Authorize(&models.Principal{ID: "abc", Role: models.RoleMechanic}, CreateRequest)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NotErrorIs(t, err, apperr.ErrUnauthenticated)

	err = Authorize(&models.Principal{ID: "abc", Role: models.RoleCustomer}, CreateRequest)
	assert.NoError(t, err)
}

func TestEveryOperationHasExactlyOneRole(t *testing.T) {
	for op, roles := range table {
		assert.Len(t, roles, 1, op)
	}
}
