package db

import (
	"context"
	"fmt"

	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransactionCollection defines the interface for the payment ledger
type TransactionCollection interface {
	InsertTransaction(ctx context.Context, tx *models.Transaction) (string, error)
	FindCompleted(ctx context.Context, customerID string) ([]models.Transaction, error)
	IsSettled(ctx context.Context, requestID string) (bool, error)
	SettledRequestIDs(ctx context.Context, requestIDs []string) (map[string]bool, error)
}

// Transactions implements TransactionCollection on a Store
type Transactions struct {
	store Store
}

// NewTransactions creates a transaction ledger backed by store
func NewTransactions(store Store) *Transactions {
	return &Transactions{store: store}
}

// InsertTransaction appends a transaction to the ledger. A second transaction
// for the same service request fails with ErrDuplicate.
func (c *Transactions) InsertTransaction(ctx context.Context, tx *models.Transaction) (string, error) {
	if tx.ID.IsZero() {
		tx.ID = primitive.NewObjectID()
	}
	id, err := c.store.InsertOne(ctx, CollectionTransactions, tx)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

// FindCompleted lists completed transactions, limited to one customer when
// customerID is not empty.
func (c *Transactions) FindCompleted(ctx context.Context, customerID string) ([]models.Transaction, error) {
	filter := bson.M{"status": string(models.TransactionCompleted)}
	if customerID != "" {
		filter["customer_id"] = customerID
	}
	var txs []models.Transaction
	if err := c.store.FindMany(ctx, CollectionTransactions, filter, &txs); err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	return txs, nil
}

// IsSettled reports whether a completed transaction references the request.
func (c *Transactions) IsSettled(ctx context.Context, requestID string) (bool, error) {
	n, err := c.store.Count(ctx, CollectionTransactions, bson.M{
		"service_request_id": requestID,
		"status":             string(models.TransactionCompleted),
	})
	if err != nil {
		return false, fmt.Errorf("check settlement: %w", err)
	}
	return n > 0, nil
}

// SettledRequestIDs returns the subset of requestIDs referenced by a completed
// transaction. It reads the ledger on every call.
func (c *Transactions) SettledRequestIDs(ctx context.Context, requestIDs []string) (map[string]bool, error) {
	settled := make(map[string]bool)
	if len(requestIDs) == 0 {
		return settled, nil
	}
	var txs []models.Transaction
	err := c.store.FindMany(ctx, CollectionTransactions, bson.M{
		"service_request_id": bson.M{"$in": requestIDs},
		"status":             string(models.TransactionCompleted),
	}, &txs)
	if err != nil {
		return nil, fmt.Errorf("find settled requests: %w", err)
	}
	for _, tx := range txs {
		settled[tx.ServiceRequestID] = true
	}
	return settled, nil
}
