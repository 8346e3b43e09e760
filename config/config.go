package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	JaegerAddress string
	ServiceName   string

	NatsHost                      string
	NatsPort                      string
	NatsUser                      string
	NatsPass                      string
	RoomReservedSubject           string
	RoomReservationUpdatedSubject string

	// Hotel runs in a single fixed offset, no DST rules.
	HotelUTCOffsetMinutes int
	DefaultCheckInTime    string
	DefaultCheckOutTime   string

	CheckDebounce time.Duration
}

func GetConfig() Config {
	return Config{
		JaegerAddress:                 os.Getenv("JAEGER_ADDRESS"),
		ServiceName:                   "hotel-reservations-service",
		NatsHost:                      os.Getenv("NATS_HOST"),
		NatsPort:                      os.Getenv("NATS_PORT"),
		NatsUser:                      os.Getenv("NATS_USER"),
		NatsPass:                      os.Getenv("NATS_PASS"),
		RoomReservedSubject:           envOrDefault("ROOM_RESERVED_SUBJECT", "room.reserved"),
		RoomReservationUpdatedSubject: envOrDefault("ROOM_RESERVATION_UPDATED_SUBJECT", "room.reservation.updated"),
		HotelUTCOffsetMinutes:         envIntOrDefault("HOTEL_UTC_OFFSET_MINUTES", -300),
		DefaultCheckInTime:            envOrDefault("DEFAULT_CHECK_IN_TIME", "03:00 PM"),
		DefaultCheckOutTime:           envOrDefault("DEFAULT_CHECK_OUT_TIME", "11:00 AM"),
		CheckDebounce:                 envDurationOrDefault("CHECK_DEBOUNCE", 400*time.Millisecond),
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
