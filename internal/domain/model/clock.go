package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire layout for calendar dates.
const DateLayout = "2006-01-02"

const minutesPerDay = 24 * 60

// Clock is a time of day in minutes since midnight, in [0, 1440].
// 1440 (24:00) is only meaningful as an exclusive end bound.
type Clock int

const (
	// Midnight is the start of a day.
	Midnight Clock = 0
	// EndOfDay is 24:00, the exclusive end of a day.
	EndOfDay Clock = minutesPerDay
)

// NewClock builds a Clock from hours and minutes.
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || minute < 0 || minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, Invalid("time of day %02d:%02d out of range", hour, minute)
	}
	return Clock(hour*60 + minute), nil
}

// MustClock is NewClock for constants; it panics on invalid input.
func MustClock(hour, minute int) Clock {
	c, err := NewClock(hour, minute)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseClock parses "HH:MM" or "HH:MM:SS". Seconds must be zero.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, Invalid("time of day %q must be HH:MM", s)
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, Invalid("time of day %q must be HH:MM", s)
		}
		nums[i] = n
	}
	if len(nums) == 3 && nums[2] != 0 {
		return 0, Invalid("time of day %q has non-zero seconds", s)
	}
	return NewClock(nums[0], nums[1])
}

// Minutes returns the clock as minutes since midnight.
func (c Clock) Minutes() int { return int(c) }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ParseDate parses a YYYY-MM-DD date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, Invalid("date %q must be YYYY-MM-DD", s)
	}
	return t, nil
}

// DateOf drops the time-of-day and location from t, keeping its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
