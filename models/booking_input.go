package models

import "time"

// CreateBookingRequest is the payload for booking creation, single or
// recurring-batch (Recurring non-nil).
type CreateBookingRequest struct {
	AvailabilityID string                `json:"availability_id"`
	ProviderID     string                `json:"provider_id" binding:"required"`
	GuestID        string                `json:"guest_id,omitempty"`
	GuestName      string                `json:"guest_name" binding:"required"`
	GuestEmail     string                `json:"guest_email" binding:"required,email"`
	GuestPhone     string                `json:"guest_phone,omitempty"`
	StartTime      time.Time             `json:"start_time"`
	EndTime        time.Time             `json:"end_time"`
	Notes          string                `json:"notes,omitempty"`
	IdempotencyKey string                `json:"idempotency_key,omitempty"`
	Recurring      *RecurringBookingSpec `json:"recurring,omitempty"`
}

// UpdateBookingRequest is the payload for booking updates. Nil fields are
// left untouched; a status change goes through the state machine.
type UpdateBookingRequest struct {
	Status    *BookingStatus `json:"status,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
	StartTime *time.Time     `json:"start_time,omitempty"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
}

// CancellationRequest starts the two-phase guest cancellation flow.
type CancellationRequest struct {
	GuestEmail string `json:"guest_email" binding:"required,email"`
	SerialKey  string `json:"serial_key,omitempty"`
}

// CancellationVerify completes the two-phase guest cancellation flow.
type CancellationVerify struct {
	GuestEmail string `json:"guest_email" binding:"required,email"`
	Code       string `json:"code" binding:"required"`
}
