package amqp

import (
	"encoding/json"
	"time"
)

const (
	// TypeUpsert signals that a record was created or updated and should
	// be (re)exported.
	TypeUpsert = "upsert"
	// TypeDelete signals that a record was deleted and its exported row
	// should be removed.
	TypeDelete = "delete"
)

// RecordMessage is a lightweight change notification. It carries only
// the record id; the worker fetches current data from the store, so a
// stale message can never overwrite a newer state.
type RecordMessage struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUpsertMessage creates an export notification for a created or
// updated record.
func NewUpsertMessage(id int64) *RecordMessage {
	return &RecordMessage{Type: TypeUpsert, ID: id, Timestamp: time.Now()}
}

// NewDeleteMessage creates a removal notification for a deleted record.
func NewDeleteMessage(id int64) *RecordMessage {
	return &RecordMessage{Type: TypeDelete, ID: id, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *RecordMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordMessageFromJSON creates a message from JSON bytes
func RecordMessageFromJSON(data []byte) (*RecordMessage, error) {
	var msg RecordMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
