package models

import "time"

// Notification is a single outbound message to a guest or provider.
// The dispatch channel itself is external; records are kept as an outbox
// for audit.
type Notification struct {
	ID        string         `bson:"id" json:"id"`
	Kind      string         `bson:"kind" json:"kind"` // e.g., "booking_created", "booking_confirmed"
	Recipient string         `bson:"recipient" json:"recipient"`
	Title     string         `bson:"title" json:"title"`
	Message   string         `bson:"message" json:"message"`
	Data      map[string]any `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}
