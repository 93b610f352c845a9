package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	availabilityRepo "reservely/database/repository/availability"
	"reservely/models"
	"reservely/services/notification"
	"reservely/utils"
)

// createRecurring books the next N occurrences of a recurring template as
// an all-or-nothing batch: every occurrence is validated before any write,
// and a partial failure during the writes is compensated so no partial
// batch survives.
func (s *DefaultBookingService) createRecurring(ctx context.Context, req models.CreateBookingRequest, prefs *models.ProviderPreferences) ([]models.Booking, error) {
	spec := req.Recurring

	tpl, err := s.Slots.GetTemplate(ctx, spec.TemplateID)
	if err != nil {
		if errors.Is(err, availabilityRepo.ErrTemplateNotFound) {
			return nil, &NotFoundError{Resource: "recurring template", ID: spec.TemplateID}
		}
		return nil, err
	}
	if tpl.ProviderID != req.ProviderID {
		return nil, &ValidationError{Msg: fmt.Sprintf("template %s does not belong to provider %s", tpl.ID, req.ProviderID)}
	}
	if !tpl.Active {
		return nil, &ValidationError{Msg: fmt.Sprintf("template %s is no longer active", tpl.ID)}
	}

	occurrences := expandOccurrences(tpl, spec.From, spec.Occurrences)
	log.Printf("[createRecurring] Template %s expanded to %d occurrences", tpl.ID, len(occurrences))

	// Validate the whole batch before any write.
	conflicting, err := s.Validator.findBatchConflicts(ctx, req.ProviderID, occurrences)
	if err != nil {
		return nil, err
	}
	if len(conflicting) > 0 {
		utils.GetMetrics().ConflictsRejected.Inc()
		return nil, &ConflictError{
			Msg:   fmt.Sprintf("recurring batch for template %s conflicts with existing bookings", tpl.ID),
			Dates: conflicting,
		}
	}

	status := models.StatusPending
	if prefs.AutoConfirm {
		status = models.StatusConfirmed
	}

	var bookings []models.Booking
	err = s.Uow.Run(ctx, func(ctx context.Context) error {
		// Materialize and claim every slot first; claiming is what loses
		// races against concurrent one-off bookings of the same instance.
		var slots []*models.Slot
		release := func() {
			for _, slot := range slots {
				s.releaseSlotQuietly(slot.ID)
			}
		}

		for _, occ := range occurrences {
			slot, matErr := s.Slots.MaterializeRecurringInstance(ctx, tpl, occ.Date)
			if matErr != nil {
				release()
				return matErr
			}
			locked, lockErr := s.Slots.LockAndGet(ctx, slot.ID)
			if lockErr != nil {
				release()
				if errors.Is(lockErr, availabilityRepo.ErrSlotAlreadyBooked) {
					utils.GetMetrics().ConflictsRejected.Inc()
					return &ConflictError{
						Msg:   fmt.Sprintf("recurring batch for template %s conflicts with existing bookings", tpl.ID),
						Dates: []time.Time{occ.Date},
					}
				}
				return lockErr
			}
			slots = append(slots, locked)
		}

		now := time.Now().UTC()
		bookings = bookings[:0]
		for i, occ := range occurrences {
			serial, serialErr := s.uniqueSerialKey(ctx, occ.Start)
			if serialErr != nil {
				release()
				return serialErr
			}
			bookings = append(bookings, models.Booking{
				ID:              uuid.New().String(),
				SerialKey:       serial,
				IdempotencyKey:  req.IdempotencyKey,
				ProviderID:      req.ProviderID,
				AvailabilityID:  slots[i].ID,
				GuestID:         req.GuestID,
				GuestName:       req.GuestName,
				GuestEmail:      req.GuestEmail,
				GuestPhone:      req.GuestPhone,
				StartTime:       occ.Start,
				EndTime:         occ.End,
				DurationMinutes: int(occ.End.Sub(occ.Start) / time.Minute),
				Status:          status,
				Notes:           req.Notes,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
		}

		if insErr := s.Repo.CreateMany(ctx, bookings); insErr != nil {
			release()
			return insErr
		}

		for i := range bookings {
			if markErr := s.Slots.MarkBooked(ctx, bookings[i].AvailabilityID, bookings[i].ID); markErr != nil {
				s.compensateBatch(bookings, i)
				return fmt.Errorf("failed to mark slot booked for occurrence %s: %w",
					occurrences[i].Date.Format("2006-01-02"), markErr)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[createRecurring] Batch failed: %v", err)
		return nil, err
	}

	for i := range bookings {
		b := bookings[i]
		if jobErr := s.Jobs.ScheduleAutoComplete(ctx, b.ID, b.EndTime, prefs.AutoCompleteDelayHours); jobErr != nil {
			utils.GetLogger().Error("failed to schedule auto-complete job",
				zap.String("booking_id", b.ID), zap.Error(jobErr))
		}
	}

	// One consolidated summary, not one notification per occurrence.
	dispatchAsync(s.recurringDispatch(bookings, req, prefs))

	log.Printf("[createRecurring] Batch complete: %d bookings for template %s", len(bookings), tpl.ID)
	return bookings, nil
}

// compensateBatch undoes a partially written batch: slots marked booked so
// far are released and the inserted bookings are cancelled. Failures here
// are logged; the original error is the one surfaced.
func (s *DefaultBookingService) compensateBatch(bookings []models.Booking, bookedUpTo int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger := utils.GetLogger()

	for i := 0; i < bookedUpTo; i++ {
		if err := s.Slots.MarkAvailable(ctx, bookings[i].AvailabilityID); err != nil {
			logger.Error("batch compensation: failed to release slot",
				zap.String("slot_id", bookings[i].AvailabilityID), zap.Error(err))
		}
	}
	now := time.Now().UTC()
	for i := range bookings {
		if err := s.Repo.UpdateStatus(ctx, bookings[i].ID, models.StatusCancelled, now); err != nil {
			logger.Error("batch compensation: failed to cancel booking",
				zap.String("booking_id", bookings[i].ID), zap.Error(err))
		}
		s.releaseSlotQuietly(bookings[i].AvailabilityID)
	}
}

// expandOccurrences lists the next count dates of the template's weekday
// strictly after from (defaulting to now), with concrete start/end times.
func expandOccurrences(tpl *models.RecurringTemplate, from time.Time, count int) []occurrence {
	if from.IsZero() {
		from = time.Now().UTC()
	}
	from = from.UTC()

	// First candidate date on the template's weekday.
	date := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for date.Weekday() != tpl.Weekday {
		date = date.AddDate(0, 0, 1)
	}

	occurrences := make([]occurrence, 0, count)
	for len(occurrences) < count {
		start, end := tpl.OccurrenceRange(date)
		if start.After(from) {
			occurrences = append(occurrences, occurrence{Date: date, Start: start, End: end})
		}
		date = date.AddDate(0, 0, 7)
	}
	return occurrences
}

func (s *DefaultBookingService) recurringDispatch(bookings []models.Booking, req models.CreateBookingRequest, prefs *models.ProviderPreferences) []dispatchTask {
	dates := make([]string, 0, len(bookings))
	serials := make([]string, 0, len(bookings))
	for i := range bookings {
		dates = append(dates, bookings[i].StartTime.Format("2006-01-02"))
		serials = append(serials, bookings[i].SerialKey)
	}
	summary := fmt.Sprintf("%d recurring bookings created: %v", len(bookings), dates)
	data := map[string]any{
		"count":   len(bookings),
		"dates":   dates,
		"serials": serials,
	}

	return []dispatchTask{
		{
			name: "notify-guest-recurring-summary",
			fn: func(ctx context.Context) error {
				return s.Notifier.Notify(ctx, notification.KindRecurringSummary, req.GuestEmail,
					"Recurring booking summary", summary, data)
			},
		},
		{
			name: "notify-provider-recurring-summary",
			fn: func(ctx context.Context) error {
				return s.Notifier.Notify(ctx, notification.KindRecurringSummary, prefs.Email,
					"Recurring booking summary", summary, data)
			},
		},
	}
}
