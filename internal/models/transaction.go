package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransactionStatus is the ledger state of a payment.
type TransactionStatus string

const TransactionCompleted TransactionStatus = "completed"

// Transaction is an append-only payment record. Its existence settles the
// referenced service request.
type Transaction struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID       string             `bson:"customer_id" json:"customer_id"`
	ServiceRequestID string             `bson:"service_request_id" json:"service_request_id"`
	Amount           float64            `bson:"amount" json:"amount"`
	PaymentMethod    string             `bson:"payment_method" json:"payment_method"` // "credit_card", "paypal", ...
	Status           TransactionStatus  `bson:"status" json:"status"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}

// PaymentInput is the customer payload for paying a bill.
type PaymentInput struct {
	ServiceRequestID string   `json:"service_request_id"`
	Amount           *float64 `json:"amount"`
	PaymentMethod    string   `json:"payment_method"`
}
