package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hotel-reservations-service/domain"
)

// LocalTime converts between hotel-local wall-clock input and absolute
// instants. The hotel runs in one fixed UTC offset with no daylight-saving
// rules, so both directions are exact inverses.
type LocalTime struct {
	location            *time.Location
	defaultCheckInTime  string
	defaultCheckOutTime string
}

func NewLocalTime(offsetMinutes int, defaultCheckInTime, defaultCheckOutTime string) *LocalTime {
	name := fmt.Sprintf("UTC%+03d:%02d", offsetMinutes/60, abs(offsetMinutes%60))
	return &LocalTime{
		location:            time.FixedZone(name, offsetMinutes*60),
		defaultCheckInTime:  defaultCheckInTime,
		defaultCheckOutTime: defaultCheckOutTime,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ToInstant builds the absolute instant for a calendar date and a 12-hour
// wall-clock time string ("03:00 PM"). An empty time string selects the
// configured default for the check-in or check-out side.
func (lt *LocalTime) ToInstant(date string, isCheckIn bool, timeStr string) (time.Time, error) {
	if timeStr == "" {
		if isCheckIn {
			timeStr = lt.defaultCheckInTime
		} else {
			timeStr = lt.defaultCheckOutTime
		}
	}

	year, month, day, err := parseCalendarDate(date)
	if err != nil {
		return time.Time{}, err
	}

	hour, minute, err := parseClockTime(timeStr)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, lt.location), nil
}

// FromInstant extracts the calendar date and 12-hour wall-clock time of an
// instant in the hotel's offset. Inverse of ToInstant.
func (lt *LocalTime) FromInstant(t time.Time) (string, string) {
	local := t.In(lt.location)
	return local.Format("2006-01-02"), local.Format("03:04 PM")
}

// LocalDate truncates an instant to its hotel-local calendar day.
func (lt *LocalTime) LocalDate(t time.Time) time.Time {
	local := t.In(lt.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, lt.location)
}

// SameOrAfterLocalDay reports whether t falls on ref's hotel-local calendar
// day or any later one. Calendar comparison, not instant comparison.
func (lt *LocalTime) SameOrAfterLocalDay(t, ref time.Time) bool {
	return !lt.LocalDate(t).Before(lt.LocalDate(ref))
}

func parseCalendarDate(date string) (int, int, int, error) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return 0, 0, 0, domain.ParseError{Input: date, Message: "expected YYYY-MM-DD"}
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, domain.ParseError{Input: date, Message: "year is not a number"}
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, domain.ParseError{Input: date, Message: "month is not a number"}
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, domain.ParseError{Input: date, Message: "day is not a number"}
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, domain.RangeError{Field: "month", Value: month}
	}
	if day < 1 || day > daysIn(year, month) {
		return 0, 0, 0, domain.RangeError{Field: "day", Value: day}
	}
	return year, month, day, nil
}

func parseClockTime(timeStr string) (int, int, error) {
	fields := strings.Fields(timeStr)
	if len(fields) != 2 {
		return 0, 0, domain.ParseError{Input: timeStr, Message: "expected hh:mm AM|PM"}
	}
	meridiem := strings.ToUpper(fields[1])
	if meridiem != "AM" && meridiem != "PM" {
		return 0, 0, domain.ParseError{Input: timeStr, Message: "meridiem must be AM or PM"}
	}
	clock := strings.Split(fields[0], ":")
	if len(clock) != 2 {
		return 0, 0, domain.ParseError{Input: timeStr, Message: "expected hh:mm AM|PM"}
	}
	hour, err := strconv.Atoi(clock[0])
	if err != nil {
		return 0, 0, domain.ParseError{Input: timeStr, Message: "hour is not a number"}
	}
	minute, err := strconv.Atoi(clock[1])
	if err != nil {
		return 0, 0, domain.ParseError{Input: timeStr, Message: "minute is not a number"}
	}
	if hour < 1 || hour > 12 {
		return 0, 0, domain.RangeError{Field: "hour", Value: hour}
	}
	if minute < 0 || minute > 59 {
		return 0, 0, domain.RangeError{Field: "minute", Value: minute}
	}
	// 12 AM is midnight, 12 PM is noon
	if meridiem == "PM" && hour != 12 {
		hour += 12
	}
	if meridiem == "AM" && hour == 12 {
		hour = 0
	}
	return hour, minute, nil
}

func daysIn(year, month int) int {
	// day 0 of the next month normalizes to this month's last day
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
