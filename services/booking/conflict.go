package booking

import (
	"context"
	"fmt"
	"time"

	bookingRepo "reservely/database/repository/booking"
)

// ConflictValidator answers whether a proposed time range collides with an
// existing active booking. Conflict means exact range equality: providers
// expose fixed discrete slots, not arbitrary overlaps.
type ConflictValidator struct {
	Repo bookingRepo.BookingRepository
}

// HasConflict reports whether the provider already has an active booking
// for exactly [start, end). excludeBookingID ignores the named booking,
// for re-validation during updates.
func (v *ConflictValidator) HasConflict(ctx context.Context, providerID string, start, end time.Time, excludeBookingID string) (bool, error) {
	count, err := v.Repo.CountActiveInRange(ctx, providerID, start, end, excludeBookingID)
	if err != nil {
		return false, fmt.Errorf("conflict check failed for provider %s: %w", providerID, err)
	}
	return count > 0, nil
}

// occurrence is one expanded instance of a recurring batch.
type occurrence struct {
	Date  time.Time
	Start time.Time
	End   time.Time
}

// findBatchConflicts checks every occurrence and returns the dates that
// conflict. The caller aborts the whole batch when any date is returned.
func (v *ConflictValidator) findBatchConflicts(ctx context.Context, providerID string, occurrences []occurrence) ([]time.Time, error) {
	var conflicting []time.Time
	for _, occ := range occurrences {
		hit, err := v.HasConflict(ctx, providerID, occ.Start, occ.End, "")
		if err != nil {
			return nil, err
		}
		if hit {
			conflicting = append(conflicting, occ.Date)
		}
	}
	return conflicting, nil
}
