package services

import (
	"context"

	"hotel-reservations-service/data"
)

type AvailabilityService interface {
	CheckAvailability(query data.AvailabilityQuery, ctx context.Context) (*data.AvailabilityResult, error)
}
