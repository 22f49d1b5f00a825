package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Message attributes carried next to the settlement body.
const (
	AttributeTransactionID = "TransactionId"
	AttributeIsReversal    = "IsReversal"
)

// Message is a queue-agnostic settlement message.
//
// ID and DeliveryCount are filled in by the consumer that received it and
// are empty on publish.
type Message struct {
	ID            string
	Body          []byte
	Attributes    map[string]string
	DeliveryCount int64
}

// settlementPayload is the JSON body of a settlement message.
type settlementPayload struct {
	TransactionID   string            `json:"transactionId"`
	ReferenceID     string            `json:"referenceId,omitempty"`
	TransactionDate time.Time         `json:"transactionDate"`
	Description     string            `json:"description"`
	Status          TransactionStatus `json:"status"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// NewSettlementMessage encodes t for the settlement queue.
func NewSettlementMessage(t *Transaction, reversal bool) (*Message, error) {
	body, err := json.Marshal(settlementPayload{
		TransactionID:   t.ID,
		ReferenceID:     t.ReferenceID,
		TransactionDate: t.Date,
		Description:     t.Description,
		Status:          t.Status,
		TotalAmount:     t.TotalAmount,
		Currency:        t.Currency,
		Metadata:        t.Metadata,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode settlement message: %w", err)
	}

	attrs := map[string]string{AttributeTransactionID: t.ID}
	if reversal {
		attrs[AttributeIsReversal] = "true"
	}

	return &Message{Body: body, Attributes: attrs}, nil
}

// DecodeSettlement parses a settlement body. Errors wrap ErrDecode.
func DecodeSettlement(body []byte) (*Transaction, error) {
	var p settlementPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if p.TransactionID == "" {
		return nil, ErrMissingTransactionID
	}

	return &Transaction{
		ID:          p.TransactionID,
		ReferenceID: p.ReferenceID,
		Date:        p.TransactionDate,
		Description: p.Description,
		Status:      p.Status,
		TotalAmount: p.TotalAmount,
		Currency:    p.Currency,
		Metadata:    p.Metadata,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}
