package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// SelectionChangedMessage announces the filter selection of a dashboard
// session after an accepted change. Dates are YYYY-MM-DD, empty when the
// range is unbounded.
type SelectionChangedMessage struct {
	SessionID string    `json:"session_id"`
	UserID    *int      `json:"user_id,omitempty"`
	Segment   string    `json:"segment"`
	Health    string    `json:"health"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Compare   bool      `json:"compare"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSelectionChangedMessage creates a message stamped with the current time
func NewSelectionChangedMessage(sessionID string, userID *int, segment, health, start, end string, compare bool) *SelectionChangedMessage {
	return &SelectionChangedMessage{
		SessionID: sessionID,
		UserID:    userID,
		Segment:   segment,
		Health:    health,
		Start:     start,
		End:       end,
		Compare:   compare,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SelectionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SelectionChangedMessageFromJSON creates a message from JSON bytes. A
// message without a session id is rejected.
func SelectionChangedMessageFromJSON(data []byte) (*SelectionChangedMessage, error) {
	var msg SelectionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.SessionID == "" {
		return nil, errors.New("selection message without session_id")
	}
	return &msg, nil
}
