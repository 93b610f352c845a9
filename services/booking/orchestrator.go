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
	"reservely/services/directory"
	"reservely/services/notification"
	"reservely/utils"
)

const serialMaxAttempts = 5

// Create books a slot for the guest, single or recurring-batch. Retried
// requests carrying an idempotency key replay the original result without
// re-executing any side effect.
func (s *DefaultBookingService) Create(ctx context.Context, req models.CreateBookingRequest) ([]models.Booking, error) {
	// Step (a): idempotency replay.
	if req.IdempotencyKey != "" {
		cached, found, err := s.Idempotency.Get(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if found {
			log.Printf("[Create] Replaying idempotent request %s", req.IdempotencyKey)
			return cached, nil
		}
	}

	prefs, err := s.Directory.GetPreferences(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, directory.ErrProviderNotFound) {
			return nil, &NotFoundError{Resource: "provider", ID: req.ProviderID}
		}
		return nil, err
	}

	var result []models.Booking
	if req.Recurring != nil {
		result, err = s.createRecurring(ctx, req, prefs)
	} else {
		var single *models.Booking
		single, err = s.createSingle(ctx, req, prefs)
		if single != nil {
			result = []models.Booking{*single}
		}
	}
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		if err := s.Idempotency.Save(ctx, req.IdempotencyKey, result); err != nil {
			// The booking is durable; a cache write failure only weakens
			// retry replay. Log and move on.
			utils.GetLogger().Warn("failed to save idempotency record",
				zap.String("key", req.IdempotencyKey), zap.Error(err))
		}
	}
	utils.GetMetrics().BookingsCreated.Add(float64(len(result)))
	return result, nil
}

func (s *DefaultBookingService) createSingle(ctx context.Context, req models.CreateBookingRequest, prefs *models.ProviderPreferences) (booking *models.Booking, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[createSingle] Panic recovered: %v", r)
			err = fmt.Errorf("internal error occurred during booking: %v", r)
		}
	}()

	if req.AvailabilityID == "" {
		return nil, &ValidationError{Msg: "missing availability ID for one-off booking"}
	}
	if !req.StartTime.Before(req.EndTime) {
		return nil, &ValidationError{Msg: "start time must be before end time"}
	}

	log.Printf("[createSingle] Start - provider %s, slot %s, range [%s, %s]",
		req.ProviderID, req.AvailabilityID, req.StartTime.Format(time.RFC3339), req.EndTime.Format(time.RFC3339))

	booking = &models.Booking{
		ID:             uuid.New().String(),
		IdempotencyKey: req.IdempotencyKey,
		ProviderID:     req.ProviderID,
		AvailabilityID: req.AvailabilityID,
		GuestID:        req.GuestID,
		GuestName:      req.GuestName,
		GuestEmail:     req.GuestEmail,
		GuestPhone:     req.GuestPhone,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		Notes:          req.Notes,
	}
	booking.DurationMinutes = booking.ComputeDuration()

	err = s.Uow.Run(ctx, func(ctx context.Context) error {
		// Step (b): lock and fetch the slot. This is the serialization
		// point between concurrent requests for the same slot.
		slot, lockErr := s.Slots.LockAndGet(ctx, req.AvailabilityID)
		if lockErr != nil {
			if errors.Is(lockErr, availabilityRepo.ErrSlotNotFound) {
				return &NotFoundError{Resource: "slot", ID: req.AvailabilityID}
			}
			if errors.Is(lockErr, availabilityRepo.ErrSlotAlreadyBooked) {
				utils.GetMetrics().ConflictsRejected.Inc()
				return &ConflictError{Msg: fmt.Sprintf("slot %s is already booked", req.AvailabilityID)}
			}
			return lockErr
		}

		// Any failure past this point must release the claim.
		failed := true
		defer func() {
			if failed {
				s.releaseSlotQuietly(slot.ID)
			}
		}()

		// Step (c): the booking must claim the slot's exact range.
		if !slot.MatchesRange(booking.StartTime, booking.EndTime) {
			return &ValidationError{Msg: fmt.Sprintf(
				"requested range does not match slot %s range [%s, %s]",
				slot.ID, slot.StartTime.Format(time.RFC3339), slot.EndTime.Format(time.RFC3339))}
		}
		if slot.ProviderID != req.ProviderID {
			return &ValidationError{Msg: fmt.Sprintf("slot %s does not belong to provider %s", slot.ID, req.ProviderID)}
		}

		// Step (d): conflict check against existing active bookings.
		conflict, confErr := s.Validator.HasConflict(ctx, req.ProviderID, booking.StartTime, booking.EndTime, "")
		if confErr != nil {
			return confErr
		}
		if conflict {
			utils.GetMetrics().ConflictsRejected.Inc()
			return &ConflictError{Msg: fmt.Sprintf("provider %s already has an active booking for this range", req.ProviderID)}
		}

		// Step (e): initial status follows the provider's auto-confirm
		// preference.
		now := time.Now().UTC()
		booking.Status = models.StatusPending
		if prefs.AutoConfirm {
			booking.Status = models.StatusConfirmed
		}
		booking.CreatedAt = now
		booking.UpdatedAt = now

		// Step (f): assign serial and persist.
		serial, serialErr := s.uniqueSerialKey(ctx, booking.StartTime)
		if serialErr != nil {
			return serialErr
		}
		booking.SerialKey = serial

		if insErr := s.Repo.Create(ctx, booking); insErr != nil {
			return insErr
		}

		// Step (g): mark the slot booked.
		if markErr := s.Slots.MarkBooked(ctx, slot.ID, booking.ID); markErr != nil {
			return fmt.Errorf("failed to mark slot booked: %w", markErr)
		}

		failed = false
		return nil
	})
	if err != nil {
		log.Printf("[createSingle] Booking failed: %v", err)
		return nil, err
	}

	// Step (h): schedule the auto-complete job. The booking is already the
	// source of truth; a scheduling failure is logged, not propagated.
	if jobErr := s.Jobs.ScheduleAutoComplete(ctx, booking.ID, booking.EndTime, prefs.AutoCompleteDelayHours); jobErr != nil {
		utils.GetLogger().Error("failed to schedule auto-complete job",
			zap.String("booking_id", booking.ID), zap.Error(jobErr))
	}

	// Steps (i)+(j): emit creation events. Pending bookings notify only the
	// provider; guest confirmation waits for approval.
	dispatchAsync(s.creationDispatch(booking, prefs))

	log.Printf("[createSingle] Booking complete. ID: %s, serial: %s, status: %s", booking.ID, booking.SerialKey, booking.Status)
	return booking, nil
}

// uniqueSerialKey generates a serial key, retrying on the rare collision.
// The unique index on serial_key is the backstop.
func (s *DefaultBookingService) uniqueSerialKey(ctx context.Context, startTime time.Time) (string, error) {
	for attempt := 1; attempt <= serialMaxAttempts; attempt++ {
		serial, err := utils.GenerateSerialKey(startTime)
		if err != nil {
			return "", err
		}
		exists, err := s.Repo.SerialKeyExists(ctx, serial)
		if err != nil {
			return "", err
		}
		if !exists {
			return serial, nil
		}
		log.Printf("[uniqueSerialKey] Collision on %s (attempt %d)", serial, attempt)
	}
	return "", fmt.Errorf("could not generate a unique serial key after %d attempts", serialMaxAttempts)
}

// releaseSlotQuietly re-attempts the slot unlock after a failed creation
// step. Booking persistence is the source of truth, so an unlock failure
// is logged rather than thrown over the original error.
func (s *DefaultBookingService) releaseSlotQuietly(slotID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Slots.ReleaseLock(ctx, slotID); err != nil {
		utils.GetLogger().Error("failed to release slot lock after aborted booking",
			zap.String("slot_id", slotID), zap.Error(err))
	}
}

func (s *DefaultBookingService) creationDispatch(b *models.Booking, prefs *models.ProviderPreferences) []dispatchTask {
	when := b.StartTime.Format("2 January, 3:04 PM")
	data := map[string]any{
		"bookingId": b.ID,
		"serialKey": b.SerialKey,
		"startTime": b.StartTime,
		"endTime":   b.EndTime,
		"status":    string(b.Status),
	}

	providerKind := notification.KindBookingCreated
	providerTitle := "New booking"
	if b.Status == models.StatusPending {
		providerKind = notification.KindBookingAwaiting
		providerTitle = "Booking awaiting approval"
	}

	tasks := []dispatchTask{
		{
			name: "notify-provider-created",
			fn: func(ctx context.Context) error {
				return s.Notifier.Notify(ctx, providerKind, prefs.Email,
					providerTitle,
					fmt.Sprintf("%s booked %s (serial %s).", b.GuestName, when, b.SerialKey),
					data)
			},
		},
		{
			name: "emit-slot-status-changed",
			fn: func(ctx context.Context) error {
				return s.Notifier.Notify(ctx, notification.KindSlotStatusChanged, prefs.Email,
					"Slot booked",
					fmt.Sprintf("Slot %s is now booked.", b.AvailabilityID),
					map[string]any{"slotId": b.AvailabilityID, "bookingId": b.ID})
			},
		},
	}

	if b.Status == models.StatusConfirmed {
		tasks = append(tasks, dispatchTask{
			name: "notify-guest-created",
			fn: func(ctx context.Context) error {
				return s.Notifier.Notify(ctx, notification.KindBookingCreated, b.GuestEmail,
					"Booking confirmed",
					fmt.Sprintf("Your booking on %s is confirmed. Serial: %s.", when, b.SerialKey),
					data)
			},
		})
	}
	return tasks
}
