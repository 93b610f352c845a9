package booking

import (
	"time"

	"reservely/models"
)

// transitions is the sealed status transition table. Status never changes
// except through ApplyTransition, so an entry missing here is a move the
// system cannot make.
var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.StatusPending:    {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed:  {models.StatusInProgress, models.StatusCompleted, models.StatusCancelled},
	models.StatusInProgress: {models.StatusCompleted, models.StatusCancelled},
	// Terminal states have no outgoing transitions.
	models.StatusCancelled: {},
	models.StatusCompleted: {},
}

// CanTransition reports whether the move from one status to another is
// legal.
func CanTransition(from, to models.BookingStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ApplyTransition validates and applies a status change in memory. On
// rejection the booking is left untouched. Persistence and side effects
// are the orchestrator's job.
func ApplyTransition(b *models.Booking, to models.BookingStatus) error {
	if !CanTransition(b.Status, to) {
		return &IllegalTransitionError{BookingID: b.ID, From: b.Status, To: to}
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// releasesSlot reports whether the transition frees the booking's slot.
func releasesSlot(to models.BookingStatus) bool {
	return to == models.StatusCancelled
}
