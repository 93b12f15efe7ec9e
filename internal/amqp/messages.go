package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventKind names the mutation that produced a TransactionEvent.
type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	TransactionUpdated EventKind = "transaction.updated"
	TransactionDeleted EventKind = "transaction.deleted"
)

func (k EventKind) Valid() bool {
	switch k {
	case TransactionCreated, TransactionUpdated, TransactionDeleted:
		return true
	}
	return false
}

// TransactionEvent is the lightweight change notification sent after a commit.
// Consumers fetch the full row from storage by TransactionID.
type TransactionEvent struct {
	Kind          EventKind `json:"kind"`
	TransactionID int64     `json:"transaction_id"`
	UserID        int64     `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(kind EventKind, transactionID, userID int64) TransactionEvent {
	return TransactionEvent{
		Kind:          kind,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now().UTC(),
	}
}

func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

var ErrMalformedEvent = errors.New("malformed transaction event")

// TransactionEventFromJSON decodes and validates a message body.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return TransactionEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if !e.Kind.Valid() {
		return TransactionEvent{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedEvent, e.Kind)
	}
	if e.TransactionID <= 0 {
		return TransactionEvent{}, fmt.Errorf("%w: missing transaction id", ErrMalformedEvent)
	}
	return e, nil
}
