package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// NotificationMessage is a rendered alert waiting for delivery by the notifier
type NotificationMessage struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// EncodeNotification encodes a NotificationMessage to JSON
func EncodeNotification(n *NotificationMessage) ([]byte, error) {
	return json.Marshal(n)
}

// DecodeNotification decodes JSON to NotificationMessage
func DecodeNotification(data []byte) (*NotificationMessage, error) {
	var n NotificationMessage
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("invalid notification message: %w", err)
	}
	if n.Recipient == "" {
		return nil, fmt.Errorf("notification %s has no recipient", n.ID)
	}
	return &n, nil
}
