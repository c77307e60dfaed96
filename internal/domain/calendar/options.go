package calendar

import "time"

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "it"

// Option applies a configuration option to the Calendar.
type Option func(*Calendar)

// WithFixedHoliday adds a holiday on the same date every year, e.g. a patron saint day.
func WithFixedHoliday(month time.Month, day int, name string) Option {
	return func(c *Calendar) {
		c.fixed = append(c.fixed, fixedRule{month: month, day: day, name: name})
	}
}

// WithEasterOffset adds a holiday days after Easter Sunday (negative for before).
func WithEasterOffset(days int, name string) Option {
	return func(c *Calendar) {
		c.easter = append(c.easter, easterRule{offset: days, name: name})
	}
}
