package data

import (
	"hotel-reservations-service/domain"
)

type ReservationStatus string

const (
	Pending    ReservationStatus = "PENDING"
	Confirmed  ReservationStatus = "CONFIRMED"
	CheckedIn  ReservationStatus = "CHECKED_IN"
	CheckedOut ReservationStatus = "CHECKED_OUT"
	Canceled   ReservationStatus = "CANCELED"
)

// ReservationActions gates which operations the caller may offer for a
// reservation in a given status. Date guards (check-in day) and archival
// state are applied on top by the reservation service.
type ReservationActions struct {
	CanConfirm    bool `json:"can_confirm"`
	CanCheckIn    bool `json:"can_check_in"`
	CanCheckOut   bool `json:"can_check_out"`
	CanCancel     bool `json:"can_cancel"`
	CanModify     bool `json:"can_modify"`
	CanReactivate bool `json:"can_reactivate"`
}

// AvailableActions is a pure function of status. A status outside the
// enumerated set means the stored data and this binary disagree about the
// lifecycle, so it fails instead of guessing.
func AvailableActions(status ReservationStatus) (ReservationActions, error) {
	switch status {
	case Pending:
		return ReservationActions{
			CanConfirm:    true,
			CanCancel:     true,
			CanModify:     true,
			CanReactivate: true,
		}, nil
	case Confirmed:
		return ReservationActions{
			CanCheckIn:    true,
			CanCancel:     true,
			CanModify:     true,
			CanReactivate: true,
		}, nil
	case CheckedIn:
		return ReservationActions{
			CanCheckOut: true,
		}, nil
	case CheckedOut:
		return ReservationActions{}, nil
	case Canceled:
		return ReservationActions{
			CanReactivate: true,
		}, nil
	default:
		return ReservationActions{}, domain.UnknownStatusError{Status: string(status)}
	}
}
