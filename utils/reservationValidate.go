package utils

import (
	"github.com/go-playground/validator/v10"

	"hotel-reservations-service/data"
)

var validate = validator.New()

func ValidateReservationCreate(payload *data.ReservationCreate) error {
	return validate.Struct(payload)
}

func ValidateReservationUpdate(payload *data.ReservationUpdate) error {
	return validate.Struct(payload)
}
