package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/apperr"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
)

func TestScenario_BrakeJobPaidInFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mechanic := f.addUser(t, "m", models.RoleMechanic)
	customer := f.addUser(t, "a", models.RoleCustomer)
	admin := f.addUser(t, "admin", models.RoleAdmin)

	x, err := f.svc.CreateRequest(ctx, customer, models.ServiceRequestInput{
		ServiceType: "brakes",
		Description: "front brakes grinding",
		Vehicle:     &models.Vehicle{Make: "Toyota", Model: "Corolla", Year: 2020},
	})
	require.NoError(t, err)
	require.Equal(t, mechanic.ID, x.MechanicID)

	require.NoError(t, f.svc.SubmitUpdate(ctx, mechanic, x.ID, "replaced brake pads"))
	require.NoError(t, f.svc.VerifyUpdate(ctx, admin, x.ID, boolPtr(true)))

	req := f.stored(t, x.ID)
	assert.Equal(t, models.StatusCompleted, req.Status)
	assert.Equal(t, models.UpdateVerified, req.UpdateStatus)

	_, err = f.svc.GenerateBill(ctx, admin, models.BillInput{ServiceRequestID: x.ID, Amount: floatPtr(120.0), Description: "brake pads"})
	require.NoError(t, err)

	// underpayment leaves X open
	_, err = f.svc.InitiatePayment(ctx, customer, models.PaymentInput{ServiceRequestID: x.ID, Amount: floatPtr(100.0), PaymentMethod: "credit_card"})
	require.ErrorIs(t, err, apperr.ErrAmountMismatch)
	open, err := f.svc.ListOwnRequests(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, []string{x.ID}, ids(open))
	paid, err := f.svc.ListOwnTransactions(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, paid)

	tx, err := f.svc.InitiatePayment(ctx, customer, models.PaymentInput{ServiceRequestID: x.ID, Amount: floatPtr(120.0), PaymentMethod: "credit_card"})
	require.NoError(t, err)

	open, err = f.svc.ListOwnRequests(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, open)

	paid, err = f.svc.ListOwnTransactions(ctx, customer)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, tx.ID, paid[0].ID)
	assert.Equal(t, x.ID, paid[0].ServiceRequestID)

	all, err := f.svc.ListAllRequests(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.Equal(t, []events.Type{
		events.RequestCreated,
		events.RequestUpdateSubmitted,
		events.RequestUpdateVerified,
		events.RequestBillGenerated,
		events.PaymentCompleted,
	}, f.published.types())
}

func TestScenario_InventoryOnAnotherMechanicsTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addUser(t, "c", models.RoleMechanic)
	b := f.addUser(t, "b", models.RoleMechanic)
	customer := f.addUser(t, "a", models.RoleCustomer)

	// C is first in the roster and idle, so gets the ticket
	x := f.schedule(t, customer)
	require.Equal(t, c.ID, x.MechanicID)

	_, err := f.svc.RecordInventory(ctx, b, x.ID, models.InventoryInput{ItemName: "oil filter", QuantityUsed: intPtr(1)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, f.stored(t, x.ID).Inventories)

	_, err = f.svc.RecordInventory(ctx, c, x.ID, models.InventoryInput{ItemName: "oil filter", QuantityUsed: intPtr(1)})
	require.NoError(t, err)
	assert.Len(t, f.stored(t, x.ID).Inventories, 1)
}

func TestScenario_EveryRequestHasAMechanic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "m1", models.RoleMechanic)
	f.addUser(t, "m2", models.RoleMechanic)
	f.addUser(t, "m3", models.RoleMechanic)
	customer := f.addUser(t, "a", models.RoleCustomer)
	admin := f.addUser(t, "admin", models.RoleAdmin)

	for i := 0; i < 9; i++ {
		f.schedule(t, customer)
	}
	all, err := f.svc.ListAllRequests(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 9)

	load := map[string]int{}
	for _, v := range all {
		assert.NotEmpty(t, v.MechanicID)
		load[v.MechanicID]++
	}
	assert.Len(t, load, 3)
	for _, n := range load {
		assert.Equal(t, 3, n)
	}
}
