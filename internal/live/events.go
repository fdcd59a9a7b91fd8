package live

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is a message fanned out to the subscribers of one debate
type Event struct {
	Type      string          `json:"type"`
	DebateID  string          `json:"debate_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// PresencePayload reports how many clients watch a debate on this instance
type PresencePayload struct {
	Connected int `json:"connected"`
}

// NewEvent creates a new event with timestamp
func NewEvent(debateID, eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		Type:      eventType,
		DebateID:  debateID,
		Payload:   payloadBytes,
		Timestamp: time.Now().Unix(),
	}, nil
}

// ChannelName is the Redis pub/sub channel carrying a debate's events.
func ChannelName(debateID string) string {
	return fmt.Sprintf("debate:%s:events", debateID)
}

const channelPattern = "debate:*:events"

// UnmarshalEvent decodes an event received from Redis
func UnmarshalEvent(data string) (*Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, err
	}
	if event.DebateID == "" {
		return nil, fmt.Errorf("event without debate id")
	}
	return &event, nil
}
