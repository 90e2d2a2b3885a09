// Package outbox records store writes that were applied locally and drains
// them to the remote store in order.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind identifies the remote write an Op performs
type Kind string

const (
	KindSetBalance Kind = "set_balance"
	KindCreateTrip Kind = "create_trip"
	KindUpdateTrip Kind = "update_trip"
	KindDeleteTrip Kind = "delete_trip"
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindSetBalance, KindCreateTrip, KindUpdateTrip, KindDeleteTrip:
		return true
	}
	return false
}

// Errors a Sender wraps to tell the flusher how to treat a failed op
var (
	// ErrUnauthorized stops the flush and keeps the op queued
	ErrUnauthorized = errors.New("outbox: store rejected credentials")
	// ErrGone drops the op because its target no longer exists
	ErrGone = errors.New("outbox: target no longer exists")
	// ErrRejected drops the op because the store will never accept it
	ErrRejected = errors.New("outbox: store rejected operation")
)

// Op is one pending remote write
type Op struct {
	ID        int64           `json:"id"`
	Kind      Kind            `json:"kind"`
	TripID    int64           `json:"tripId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"lastError,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewOp builds an op whose payload is the JSON encoding of body. A nil body
// leaves the payload empty.
func NewOp(kind Kind, tripID int64, body any) (Op, error) {
	op := Op{Kind: kind, TripID: tripID}
	if body == nil {
		return op, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Op{}, fmt.Errorf("encoding %s payload: %w", kind, err)
	}
	op.Payload = payload
	return op, nil
}

// Queue is a FIFO list of pending ops. Enqueue assigns ids and creation times.
type Queue interface {
	Enqueue(ctx context.Context, ops ...Op) error
	Pending(ctx context.Context) ([]Op, error)
	Remove(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Sender performs one op against the remote store
type Sender interface {
	Send(ctx context.Context, op Op) error
}

// SenderFunc adapts a function to Sender
type SenderFunc func(ctx context.Context, op Op) error

// Send calls f
func (f SenderFunc) Send(ctx context.Context, op Op) error {
	return f(ctx, op)
}
