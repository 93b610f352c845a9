package models

import "time"

// BookingStatus enumerates the booking lifecycle states.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCancelled  BookingStatus = "cancelled"
	StatusCompleted  BookingStatus = "completed"
)

// Terminal reports whether the status admits no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Active reports whether the booking currently claims its slot.
// Only active bookings participate in conflict detection.
func (s BookingStatus) Active() bool {
	return s == StatusConfirmed || s == StatusInProgress
}

// Booking represents a reservation of a provider's availability slot.
// Bookings are never deleted; terminal records are retained for audit
// and idempotency lookups.
type Booking struct {
	ID              string        `bson:"id" json:"id"`                           // Unique booking identifier (UUID)
	SerialKey       string        `bson:"serial_key" json:"serial_key"`           // Human-shareable unique serial, immutable once assigned
	IdempotencyKey  string        `bson:"idempotency_key,omitempty" json:"idempotency_key,omitempty"`
	ProviderID      string        `bson:"provider_id" json:"provider_id"`         // Provider who was booked
	AvailabilityID  string        `bson:"availability_id" json:"availability_id"` // Slot this booking claims
	GuestID         string        `bson:"guest_id,omitempty" json:"guest_id,omitempty"`
	GuestName       string        `bson:"guest_name" json:"guest_name"`
	GuestEmail      string        `bson:"guest_email" json:"guest_email"`
	GuestPhone      string        `bson:"guest_phone,omitempty" json:"guest_phone,omitempty"`
	StartTime       time.Time     `bson:"start_time" json:"start_time"`
	EndTime         time.Time     `bson:"end_time" json:"end_time"`
	DurationMinutes int           `bson:"duration_minutes" json:"duration_minutes"` // Always recomputed from the time pair
	Status          BookingStatus `bson:"status" json:"status"`
	Notes           string        `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `bson:"updated_at" json:"updated_at"`
}

// ComputeDuration derives the booking duration in minutes from the time range.
func (b *Booking) ComputeDuration() int {
	return int(b.EndTime.Sub(b.StartTime) / time.Minute)
}
