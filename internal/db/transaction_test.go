package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/models"
)

func TestTransactions_Ledger(t *testing.T) {
	ctx := context.Background()
	txs := NewTransactions(NewMemoryStore())

	settled, err := txs.IsSettled(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, settled)

	tx := &models.Transaction{
		CustomerID:       "c1",
		ServiceRequestID: "r1",
		Amount:           120,
		PaymentMethod:    "credit_card",
		Status:           models.TransactionCompleted,
		CreatedAt:        time.Now().UTC(),
	}
	id, err := txs.InsertTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, tx.ID.Hex(), id)

	_, err = txs.InsertTransaction(ctx, &models.Transaction{
		CustomerID:       "c1",
		ServiceRequestID: "r1",
		Status:           models.TransactionCompleted,
	})
	assert.ErrorIs(t, err, ErrDuplicate, "one transaction per request")

	_, err = txs.InsertTransaction(ctx, &models.Transaction{
		CustomerID:       "c2",
		ServiceRequestID: "r2",
		Amount:           40,
		Status:           models.TransactionCompleted,
	})
	require.NoError(t, err)

	settled, err = txs.IsSettled(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, settled)

	ids, err := txs.SettledRequestIDs(ctx, []string{"r1", "r3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"r1": true}, ids)

	ids, err = txs.SettledRequestIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	own, err := txs.FindCompleted(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, 120.0, own[0].Amount)

	all, err := txs.FindCompleted(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
