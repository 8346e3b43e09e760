package data

import (
	"errors"
	"testing"

	"hotel-reservations-service/domain"
)

func TestAvailableActionsCoversEveryStatus(t *testing.T) {
	statuses := []ReservationStatus{Pending, Confirmed, CheckedIn, CheckedOut, Canceled}
	for _, status := range statuses {
		if _, err := AvailableActions(status); err != nil {
			t.Fatalf("AvailableActions(%s) returned error: %v", status, err)
		}
	}
}

func TestAvailableActionsUnknownStatus(t *testing.T) {
	for _, status := range []ReservationStatus{"", "ARCHIVED", "pending", "DELETED"} {
		_, err := AvailableActions(status)
		var unknown domain.UnknownStatusError
		if !errors.As(err, &unknown) {
			t.Fatalf("AvailableActions(%q): expected UnknownStatusError, got %v", status, err)
		}
	}
}

func TestAvailableActionsPerStatus(t *testing.T) {
	actions, _ := AvailableActions(Pending)
	if !actions.CanConfirm || !actions.CanCancel || !actions.CanModify {
		t.Fatalf("PENDING should allow confirm, cancel and modify: %+v", actions)
	}
	if actions.CanCheckIn || actions.CanCheckOut {
		t.Fatalf("PENDING must not allow check-in or check-out: %+v", actions)
	}

	actions, _ = AvailableActions(Confirmed)
	if !actions.CanCheckIn || !actions.CanCancel || !actions.CanModify {
		t.Fatalf("CONFIRMED should allow check-in, cancel and modify: %+v", actions)
	}
	if actions.CanConfirm {
		t.Fatalf("CONFIRMED must not allow a second confirm: %+v", actions)
	}

	actions, _ = AvailableActions(CheckedIn)
	if !actions.CanCheckOut {
		t.Fatalf("CHECKED_IN should allow check-out: %+v", actions)
	}
	if actions.CanConfirm || actions.CanCheckIn || actions.CanCancel || actions.CanModify || actions.CanReactivate {
		t.Fatalf("CHECKED_IN allows nothing but check-out: %+v", actions)
	}
}

func TestTerminalStates(t *testing.T) {
	actions, _ := AvailableActions(CheckedOut)
	if actions != (ReservationActions{}) {
		t.Fatalf("CHECKED_OUT is terminal, got %+v", actions)
	}

	actions, _ = AvailableActions(Canceled)
	if actions.CanConfirm || actions.CanCheckIn || actions.CanCheckOut || actions.CanCancel || actions.CanModify {
		t.Fatalf("CANCELED allows nothing but reactivation: %+v", actions)
	}
	if !actions.CanReactivate {
		t.Fatalf("CANCELED should keep the reactivation path open: %+v", actions)
	}
}
