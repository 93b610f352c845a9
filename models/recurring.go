package models

import "time"

// RecurringTemplate describes a repeating availability pattern, e.g.
// "every Tuesday 15:00-16:00". Concrete slot instances are materialized
// from it on demand and by the weekly extension job.
type RecurringTemplate struct {
	ID          string       `bson:"id" json:"id"`
	ProviderID  string       `bson:"provider_id" json:"provider_id"`
	Weekday     time.Weekday `bson:"weekday" json:"weekday"`
	StartMinute int          `bson:"start_minute" json:"start_minute"` // minutes from midnight (e.g., 900 for 3:00 PM)
	EndMinute   int          `bson:"end_minute" json:"end_minute"`
	Active      bool         `bson:"active" json:"active"`
	CreatedAt   time.Time    `bson:"created_at" json:"created_at"`
}

// OccurrenceRange returns the concrete start and end time of the template
// applied to the given date. The date's own clock time is ignored.
func (t *RecurringTemplate) OccurrenceRange(date time.Time) (time.Time, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	start := day.Add(time.Duration(t.StartMinute) * time.Minute)
	end := day.Add(time.Duration(t.EndMinute) * time.Minute)
	return start, end
}

// RecurringBookingSpec asks for the next N occurrences of a template to be
// booked as a batch, starting no earlier than From.
type RecurringBookingSpec struct {
	TemplateID  string    `json:"template_id" binding:"required"`
	Occurrences int       `json:"occurrences" binding:"required,min=1,max=26"`
	From        time.Time `json:"from,omitempty"`
}
