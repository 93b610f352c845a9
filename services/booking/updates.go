// File: services/booking/updates.go
package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"reservely/config"
	"reservely/models"
	"reservely/services/notification"
	"reservely/utils"
)

// Update applies a patch to a booking. A status change goes through the
// state machine and runs the transition's side effects; other field
// changes emit a generic modified notification.
func (s *DefaultBookingService) Update(ctx context.Context, bookingID string, req models.UpdateBookingRequest) (*models.Booking, error) {
	b, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && *req.Status != b.Status {
		return s.applyStatusChange(ctx, b, *req.Status)
	}

	fields := map[string]any{}
	if req.Notes != nil {
		b.Notes = *req.Notes
		fields["notes"] = *req.Notes
	}
	if req.StartTime != nil || req.EndTime != nil {
		if req.StartTime != nil {
			b.StartTime = req.StartTime.UTC()
		}
		if req.EndTime != nil {
			b.EndTime = req.EndTime.UTC()
		}
		if !b.StartTime.Before(b.EndTime) {
			return nil, &ValidationError{Msg: "start time must be before end time"}
		}
		conflict, confErr := s.Validator.HasConflict(ctx, b.ProviderID, b.StartTime, b.EndTime, b.ID)
		if confErr != nil {
			return nil, confErr
		}
		if conflict {
			utils.GetMetrics().ConflictsRejected.Inc()
			return nil, &ConflictError{Msg: fmt.Sprintf("provider %s already has an active booking for the new range", b.ProviderID)}
		}
		b.DurationMinutes = b.ComputeDuration()
		fields["start_time"] = b.StartTime
		fields["end_time"] = b.EndTime
		fields["duration_minutes"] = b.DurationMinutes
	}
	if len(fields) == 0 {
		return b, nil
	}

	if err := s.Repo.UpdateFields(ctx, b.ID, fields); err != nil {
		return nil, err
	}
	b.UpdatedAt = time.Now().UTC()

	// A moved end time moves the auto-complete fire time with it.
	// Cancel-then-enqueue keeps at most one live job per booking.
	if _, moved := fields["end_time"]; moved && !b.Status.Terminal() {
		delay := config.AppConfig.DefaultAutoCompleteDelayHours
		if prefs, prefErr := s.Directory.GetPreferences(ctx, b.ProviderID); prefErr == nil {
			delay = prefs.AutoCompleteDelayHours
		}
		if jobErr := s.Jobs.ScheduleAutoComplete(ctx, b.ID, b.EndTime, delay); jobErr != nil {
			utils.GetLogger().Error("failed to reschedule auto-complete job",
				zap.String("booking_id", b.ID), zap.Error(jobErr))
		}
	}

	dispatchAsync([]dispatchTask{
		{
			name: "notify-booking-modified",
			fn: func(ctx context.Context) error {
				return s.Notifier.Notify(ctx, notification.KindBookingModified, b.GuestEmail,
					"Booking updated",
					fmt.Sprintf("Booking %s was updated.", b.SerialKey),
					map[string]any{"bookingId": b.ID})
			},
		},
	})
	return b, nil
}

// AutoComplete is the delayed job handler target: it moves the booking to
// completed once its grace window has elapsed. The job is delivered
// at-least-once, so a booking that is already terminal (or was never
// approved) is a clean no-op.
func (s *DefaultBookingService) AutoComplete(ctx context.Context, bookingID string) error {
	b, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status.Terminal() {
		log.Printf("[AutoComplete] Booking %s already %s; nothing to do", bookingID, b.Status)
		return nil
	}
	if b.Status == models.StatusPending {
		log.Printf("[AutoComplete] Booking %s still pending at fire time; leaving untouched", bookingID)
		return nil
	}

	_, err = s.applyStatusChange(ctx, b, models.StatusCompleted)
	return err
}

// applyStatusChange validates the transition, persists the new status, and
// runs the transition's side effects (slot release, job cancellation,
// notifications).
func (s *DefaultBookingService) applyStatusChange(ctx context.Context, b *models.Booking, to models.BookingStatus) (*models.Booking, error) {
	from := b.Status
	if err := ApplyTransition(b, to); err != nil {
		return nil, err
	}
	log.Printf("[applyStatusChange] Booking %s: %s -> %s", b.ID, from, to)

	err := s.Uow.Run(ctx, func(ctx context.Context) error {
		if err := s.Repo.UpdateStatus(ctx, b.ID, to, b.UpdatedAt); err != nil {
			return err
		}
		if releasesSlot(to) {
			if err := s.Slots.MarkAvailable(ctx, b.AvailabilityID); err != nil {
				// The booking record is the source of truth; a failed slot
				// release is logged and retried by cleanup, not thrown.
				utils.GetLogger().Error("failed to release slot on cancellation",
					zap.String("slot_id", b.AvailabilityID), zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch to {
	case models.StatusCancelled, models.StatusCompleted:
		if jobErr := s.Jobs.CancelAutoComplete(ctx, b.ID); jobErr != nil {
			utils.GetLogger().Warn("failed to cancel auto-complete job",
				zap.String("booking_id", b.ID), zap.Error(jobErr))
		}
	}

	providerEmail := ""
	if to == models.StatusCancelled {
		if prefs, prefErr := s.Directory.GetPreferences(ctx, b.ProviderID); prefErr != nil {
			utils.GetLogger().Warn("failed to look up provider for cancellation notice",
				zap.String("provider_id", b.ProviderID), zap.Error(prefErr))
		} else {
			providerEmail = prefs.Email
		}
	}

	dispatchAsync(s.transitionDispatch(b, from, to, providerEmail))
	return b, nil
}

func (s *DefaultBookingService) transitionDispatch(b *models.Booking, from, to models.BookingStatus, providerEmail string) []dispatchTask {
	data := map[string]any{
		"bookingId": b.ID,
		"serialKey": b.SerialKey,
		"from":      string(from),
		"to":        string(to),
	}
	when := b.StartTime.Format("2 January, 3:04 PM")

	switch to {
	case models.StatusConfirmed:
		return []dispatchTask{{
			name: "notify-guest-confirmed",
			fn: func(ctx context.Context) error {
				return s.Notifier.Notify(ctx, notification.KindBookingConfirmed, b.GuestEmail,
					"Booking confirmed",
					fmt.Sprintf("Your booking on %s has been confirmed.", when), data)
			},
		}}
	case models.StatusCancelled:
		tasks := []dispatchTask{
			{
				name: "notify-guest-cancelled",
				fn: func(ctx context.Context) error {
					return s.Notifier.Notify(ctx, notification.KindBookingCancelled, b.GuestEmail,
						"Booking cancelled",
						fmt.Sprintf("Booking %s has been cancelled.", b.SerialKey), data)
				},
			},
		}
		if providerEmail != "" {
			tasks = append(tasks, dispatchTask{
				name: "notify-provider-cancelled",
				fn: func(ctx context.Context) error {
					return s.Notifier.Notify(ctx, notification.KindBookingCancelled, providerEmail,
						"Booking cancelled",
						fmt.Sprintf("Booking %s has been cancelled and its slot released.", b.SerialKey), data)
				},
			})
		}
		return tasks
	case models.StatusCompleted:
		return []dispatchTask{{
			name: "notify-guest-completed",
			fn: func(ctx context.Context) error {
				return s.Notifier.Notify(ctx, notification.KindBookingCompleted, b.GuestEmail,
					"Booking completed",
					fmt.Sprintf("Booking %s is complete. Thanks for visiting!", b.SerialKey), data)
			},
		}}
	}
	return nil
}
