package booking

import (
	"fmt"
	"strings"
	"time"

	"reservely/models"
)

// ValidationError reports a malformed request (bad time range, mismatched
// slot, missing fields).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports a missing booking, slot or template.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports that the requested slot or time range is already
// claimed. For recurring batches, Dates enumerates every conflicting
// occurrence.
type ConflictError struct {
	Msg   string
	Dates []time.Time
}

func (e *ConflictError) Error() string {
	if len(e.Dates) == 0 {
		return e.Msg
	}
	formatted := make([]string, 0, len(e.Dates))
	for _, d := range e.Dates {
		formatted = append(formatted, d.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s: conflicting dates %s", e.Msg, strings.Join(formatted, ", "))
}

// IllegalTransitionError reports a status move the state machine rejects.
type IllegalTransitionError struct {
	BookingID string
	From      models.BookingStatus
	To        models.BookingStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("booking %s: illegal status transition %s -> %s", e.BookingID, e.From, e.To)
}

// AuthorizationError reports that the actor does not own the booking they
// are trying to act on.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }
