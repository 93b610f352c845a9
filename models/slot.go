package models

import "time"

// Slot represents a provider's pre-defined bookable window in the
// availability inventory.
type Slot struct {
	ID                  string     `bson:"id" json:"id"`
	ProviderID          string     `bson:"provider_id" json:"provider_id"`
	StartTime           time.Time  `bson:"start_time" json:"start_time"`
	EndTime             time.Time  `bson:"end_time" json:"end_time"`
	IsBooked            bool       `bson:"is_booked" json:"is_booked"`
	BookedByBookingID   string     `bson:"booked_by_booking_id,omitempty" json:"booked_by_booking_id,omitempty"`
	RecurringTemplateID string     `bson:"recurring_template_id,omitempty" json:"recurring_template_id,omitempty"`
	LockedUntil         *time.Time `bson:"locked_until,omitempty" json:"-"` // advisory claim window during booking creation
	CreatedAt           time.Time  `bson:"created_at" json:"created_at"`
}

// MatchesRange reports whether the slot's time range exactly equals the
// requested range. Bookings must claim a slot whose range matches theirs.
func (s *Slot) MatchesRange(start, end time.Time) bool {
	return s.StartTime.Equal(start) && s.EndTime.Equal(end)
}
