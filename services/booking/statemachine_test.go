package booking

import (
	"errors"
	"testing"

	"reservely/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.BookingStatus
		want     bool
	}{
		{models.StatusPending, models.StatusConfirmed, true},
		{models.StatusPending, models.StatusCancelled, true},
		{models.StatusPending, models.StatusInProgress, false},
		{models.StatusPending, models.StatusCompleted, false},
		{models.StatusConfirmed, models.StatusInProgress, true},
		{models.StatusConfirmed, models.StatusCompleted, true},
		{models.StatusConfirmed, models.StatusCancelled, true},
		{models.StatusConfirmed, models.StatusPending, false},
		{models.StatusInProgress, models.StatusCompleted, true},
		{models.StatusInProgress, models.StatusCancelled, true},
		{models.StatusInProgress, models.StatusConfirmed, false},
		{models.StatusCancelled, models.StatusPending, false},
		{models.StatusCancelled, models.StatusConfirmed, false},
		{models.StatusCompleted, models.StatusCancelled, false},
		{models.StatusCompleted, models.StatusInProgress, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	all := []models.BookingStatus{
		models.StatusPending, models.StatusConfirmed, models.StatusInProgress,
		models.StatusCancelled, models.StatusCompleted,
	}
	for _, from := range []models.BookingStatus{models.StatusCancelled, models.StatusCompleted} {
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal status %s must not transition to %s", from, to)
			}
		}
	}
}

func TestApplyTransitionMutatesOnSuccess(t *testing.T) {
	b := &models.Booking{ID: "b1", Status: models.StatusPending}
	if err := ApplyTransition(b, models.StatusConfirmed); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if b.Status != models.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", b.Status)
	}
	if b.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestApplyTransitionRejectsAndLeavesUntouched(t *testing.T) {
	b := &models.Booking{ID: "b1", Status: models.StatusCompleted}
	err := ApplyTransition(b, models.StatusCancelled)
	if err == nil {
		t.Fatal("expected rejection of completed -> cancelled")
	}
	var ite *IllegalTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("error type = %T, want *IllegalTransitionError", err)
	}
	if ite.From != models.StatusCompleted || ite.To != models.StatusCancelled {
		t.Errorf("error carries %s -> %s, want completed -> cancelled", ite.From, ite.To)
	}
	if b.Status != models.StatusCompleted {
		t.Errorf("booking mutated on rejected transition: %s", b.Status)
	}
}

func TestReleasesSlotOnlyOnCancellation(t *testing.T) {
	if !releasesSlot(models.StatusCancelled) {
		t.Error("cancellation must release the slot")
	}
	for _, to := range []models.BookingStatus{models.StatusConfirmed, models.StatusInProgress, models.StatusCompleted} {
		if releasesSlot(to) {
			t.Errorf("%s must not release the slot", to)
		}
	}
}
