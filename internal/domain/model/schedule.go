package model

import (
	"strings"
	"time"
)

// DayKey selects one bucket of a weekly schedule. Sunday..Saturday match
// time.Weekday; Holiday is the public-holiday bucket.
type DayKey uint8

const (
	Sunday DayKey = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Holiday
)

// DayCount is the number of buckets in a Week.
const DayCount = 8

var dayNames = [DayCount]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "holiday"}

var dayAliases = map[string]DayKey{
	"sun": Sunday, "sunday": Sunday, "dom": Sunday, "domenica": Sunday,
	"mon": Monday, "monday": Monday, "lun": Monday, "lunedi": Monday, "lunedì": Monday,
	"tue": Tuesday, "tuesday": Tuesday, "mar": Tuesday, "martedi": Tuesday, "martedì": Tuesday,
	"wed": Wednesday, "wednesday": Wednesday, "mer": Wednesday, "mercoledi": Wednesday, "mercoledì": Wednesday,
	"thu": Thursday, "thursday": Thursday, "gio": Thursday, "giovedi": Thursday, "giovedì": Thursday,
	"fri": Friday, "friday": Friday, "ven": Friday, "venerdi": Friday, "venerdì": Friday,
	"sat": Saturday, "saturday": Saturday, "sab": Saturday, "sabato": Saturday,
	"holiday": Holiday, "holidays": Holiday, "festivi": Holiday, "festivo": Holiday, "festività": Holiday,
}

// ParseDayKey accepts English and Italian day names and their short forms.
func ParseDayKey(s string) (DayKey, error) {
	if d, ok := dayAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return 0, Invalid("unknown schedule day %q", s)
}

// WeekdayKey returns the bucket of a weekday.
func WeekdayKey(wd time.Weekday) DayKey { return DayKey(wd) }

func (d DayKey) String() string {
	if int(d) < DayCount {
		return dayNames[d]
	}
	return "unknown"
}

// Mode is the operating mode of one schedule bucket.
type Mode uint8

const (
	// ModeClosed covers no time. It is the zero value.
	ModeClosed Mode = iota
	// ModeWindow covers [Start, End) of the day.
	ModeWindow
	// ModeAllDay covers [00:00, 24:00).
	ModeAllDay
)

func (m Mode) String() string {
	switch m {
	case ModeClosed:
		return "closed"
	case ModeWindow:
		return "window"
	case ModeAllDay:
		return "all_day"
	}
	return "unknown"
}

// Entry is one bucket of a weekly schedule. Start and End are only set for ModeWindow.
type Entry struct {
	Mode  Mode
	Start Clock
	End   Clock
}

// Closed returns a closed entry.
func Closed() Entry { return Entry{Mode: ModeClosed} }

// AllDay returns an entry covering the whole day.
func AllDay() Entry { return Entry{Mode: ModeAllDay} }

// Window returns an entry covering [start, end). A window with start == end is
// zero-length; overnight windows (end < start) are rejected.
func Window(start, end Clock) (Entry, error) {
	if start < Midnight || end > EndOfDay {
		return Entry{}, Invalid("window %s-%s out of range", start, end)
	}
	if end < start {
		return Entry{}, Invalid("window %s-%s ends before it starts", start, end)
	}
	return Entry{Mode: ModeWindow, Start: start, End: end}, nil
}

// Span returns the covered interval of the entry.
func (e Entry) Span() (Clock, Clock) {
	switch e.Mode {
	case ModeAllDay:
		return Midnight, EndOfDay
	case ModeWindow:
		return e.Start, e.End
	default:
		return Midnight, Midnight
	}
}

// Week holds exactly one entry per weekday plus the holiday bucket.
// The zero value is closed every day.
type Week [DayCount]Entry

// Set replaces the entry of a day.
func (w *Week) Set(day DayKey, e Entry) { w[day] = e }

// Entry returns the entry of a day.
func (w *Week) Entry(day DayKey) Entry { return w[day] }

// Validate checks every window entry again; entries built by the constructors always pass.
func (w *Week) Validate() error {
	for i, e := range w {
		switch e.Mode {
		case ModeClosed, ModeAllDay:
		case ModeWindow:
			if _, err := Window(e.Start, e.End); err != nil {
				return Invalid("%s: %v", DayKey(i), err)
			}
		default:
			return Invalid("%s: unknown mode %d", DayKey(i), e.Mode)
		}
	}
	return nil
}

// DailyHours is the persisted shape of one schedule bucket.
type DailyHours struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Is24h     bool   `json:"is24h"`
}

// Entry converts the row into a tagged entry.
func (h DailyHours) Entry() (Entry, error) {
	start := strings.TrimSpace(h.StartTime)
	end := strings.TrimSpace(h.EndTime)
	switch {
	case h.Is24h && (start != "" || end != ""):
		return Entry{}, Invalid("%s: is24h set together with %q-%q", h.Day, start, end)
	case h.Is24h:
		return AllDay(), nil
	case start == "" && end == "":
		return Closed(), nil
	case start == "" || end == "":
		return Entry{}, Invalid("%s: window needs both start and end", h.Day)
	}
	s, err := ParseClock(start)
	if err != nil {
		return Entry{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Entry{}, err
	}
	return Window(s, e)
}

// WeekFromDailyHours builds a Week from exactly one row per weekday plus holidays.
func WeekFromDailyHours(rows []DailyHours) (Week, error) {
	var w Week
	if len(rows) != DayCount {
		return w, Invalid("schedule needs %d entries, got %d", DayCount, len(rows))
	}
	var seen [DayCount]bool
	for _, row := range rows {
		day, err := ParseDayKey(row.Day)
		if err != nil {
			return Week{}, err
		}
		if seen[day] {
			return Week{}, Invalid("schedule repeats %s", day)
		}
		seen[day] = true
		e, err := row.Entry()
		if err != nil {
			return Week{}, err
		}
		w.Set(day, e)
	}
	return w, nil
}
