package models

// ProviderPreferences holds the per-provider settings the booking engine
// consults at creation time. Provider documents are owned elsewhere; this
// is a read-only projection.
type ProviderPreferences struct {
	ProviderID             string `bson:"id" json:"id"`
	Name                   string `bson:"name" json:"name"`
	Email                  string `bson:"email" json:"email"`
	AutoConfirm            bool   `bson:"auto_confirm" json:"auto_confirm"`
	AutoCompleteDelayHours int    `bson:"auto_complete_delay_hours" json:"auto_complete_delay_hours"`
}
