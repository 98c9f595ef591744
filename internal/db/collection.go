package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// Collection names
const (
	CollectionUsers           = "users"
	CollectionServiceRequests = "service_requests"
	CollectionTransactions    = "transactions"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate document")
)

// uniqueFields lists the fields each collection keeps unique.
var uniqueFields = map[string][]string{
	CollectionUsers:        {"email"},
	CollectionTransactions: {"service_request_id"},
}

// Store defines the document primitives every workflow operation is expressed in.
// Filters are equality matches on top-level fields, optionally with $in.
type Store interface {
	FindOne(ctx context.Context, collection string, filter bson.M, out interface{}) error
	FindMany(ctx context.Context, collection string, filter bson.M, out interface{}) error
	InsertOne(ctx context.Context, collection string, doc interface{}) (string, error)
	UpdateOne(ctx context.Context, collection string, filter bson.M, set bson.M) (int64, error)
	PushToArray(ctx context.Context, collection string, filter bson.M, field string, value interface{}) (int64, error)
	Count(ctx context.Context, collection string, filter bson.M) (int64, error)
}
