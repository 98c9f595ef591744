// Package policy decides which role may perform which workflow operation.
//
// Checks are exact matches against a fixed table. There is no role hierarchy:
// an admin cannot act as a mechanic and a mechanic cannot act as a customer.
package policy

import (
	"fmt"

	"github.com/ukydev/service-center/internal/apperr"
	"github.com/ukydev/service-center/internal/models"
)

// Operation names a gated workflow operation.
type Operation string

const (
	CreateRequest        Operation = "create_request"
	ListOwnRequests      Operation = "list_own_requests"
	ListAssignedRequests Operation = "list_assigned_requests"
	ListAllRequests      Operation = "list_all_requests"
	UpdateOwnStatus      Operation = "update_own_status"
	OverrideStatus       Operation = "override_status"
	SubmitUpdate         Operation = "submit_update"
	VerifyUpdate         Operation = "verify_update"
	RecordInventory      Operation = "record_inventory"
	GenerateBill         Operation = "generate_bill"
	InitiatePayment      Operation = "initiate_payment"
	ListOwnTransactions  Operation = "list_own_transactions"
	ListAllTransactions  Operation = "list_all_transactions"
)

var table = map[Operation][]models.Role{
	CreateRequest:        {models.RoleCustomer},
	ListOwnRequests:      {models.RoleCustomer},
	ListAssignedRequests: {models.RoleMechanic},
	ListAllRequests:      {models.RoleAdmin},
	UpdateOwnStatus:      {models.RoleMechanic},
	OverrideStatus:       {models.RoleAdmin},
	SubmitUpdate:         {models.RoleMechanic},
	VerifyUpdate:         {models.RoleAdmin},
	RecordInventory:      {models.RoleMechanic},
	GenerateBill:         {models.RoleAdmin},
	InitiatePayment:      {models.RoleCustomer},
	ListOwnTransactions:  {models.RoleCustomer},
	ListAllTransactions:  {models.RoleAdmin},
}

// Allowed reports whether role may perform op. Unknown operations are denied.
func Allowed(role models.Role, op Operation) bool {
	for _, r := range table[op] {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize gates op for the principal.
func Authorize(p *models.Principal, op Operation) error {
	if p == nil || p.ID == "" {
		return apperr.ErrUnauthenticated
	}
	if !Allowed(p.Role, op) {
		return fmt.Errorf("%w: role %q may not %s", apperr.ErrForbidden, p.Role, op)
	}
	return nil
}
