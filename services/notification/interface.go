package notification

import "context"

// Notification kinds emitted by the booking engine.
const (
	KindBookingCreated    = "booking_created"
	KindBookingConfirmed  = "booking_confirmed"
	KindBookingCancelled  = "booking_cancelled"
	KindBookingCompleted  = "booking_completed"
	KindBookingModified   = "booking_modified"
	KindSlotStatusChanged = "slot_status_changed"
	KindCancellationCode  = "cancellation_code"
	KindRecurringSummary  = "recurring_booking_summary"
	KindBookingAwaiting   = "booking_awaiting_approval"
)

// NotificationService is the narrow contract over the external dispatch
// channel. Delivery is fire-and-forget; the caller never rolls anything
// back on a send failure.
type NotificationService interface {
	Notify(ctx context.Context, kind, recipient, title, message string, data map[string]any) error
}
