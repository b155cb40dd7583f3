package queue

import (
	"encoding/json"
	"fmt"
)

const (
	EventMediaCreated = "media.created"
	EventMediaDeleted = "media.deleted"

	messageVersion = 1
)

// Message is a media lifecycle event sent to downstream consumers.
type Message struct {
	Type       string `json:"type"`
	MediaID    string `json:"mediaId"`
	PublicID   string `json:"publicId"`
	OwnerID    string `json:"ownerId,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	OccurredAt string `json:"occurredAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Version == 0 {
		msg.Version = messageVersion
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message and rejects unknown event types.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	switch msg.Type {
	case EventMediaCreated, EventMediaDeleted:
	default:
		return Message{}, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return msg, nil
}
