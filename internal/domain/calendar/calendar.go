// Package calendar answers whether a date is a public holiday.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/tariffa/internal/domain/model"
)

// Provider decides whether a calendar date is a holiday.
type Provider interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

// Holiday is one dated public holiday.
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

type fixedRule struct {
	month time.Month
	day   int
	name  string
}

type easterRule struct {
	offset int
	name   string
}

var locales = map[string]struct {
	fixed  []fixedRule
	easter []easterRule
}{
	"it": {
		fixed: []fixedRule{
			{time.January, 1, "Capodanno"},
			{time.January, 6, "Epifania"},
			{time.April, 25, "Festa della Liberazione"},
			{time.May, 1, "Festa del Lavoro"},
			{time.June, 2, "Festa della Repubblica"},
			{time.August, 15, "Ferragosto"},
			{time.November, 1, "Ognissanti"},
			{time.December, 8, "Immacolata Concezione"},
			{time.December, 25, "Natale"},
			{time.December, 26, "Santo Stefano"},
		},
		easter: []easterRule{
			{0, "Pasqua"},
			{1, "Lunedì dell'Angelo"},
		},
	},
}

// Locales lists the supported locale codes.
func Locales() []string {
	out := make([]string, 0, len(locales))
	for l := range locales {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Calendar is a rule-based holiday Provider. Each year is computed once and
// cached; it is safe for concurrent use.
type Calendar struct {
	locale string
	fixed  []fixedRule
	easter []easterRule

	mu    sync.RWMutex
	years map[int]map[time.Time]string
}

// New builds the calendar of a locale. Options add local holidays.
func New(locale string, opts ...Option) (*Calendar, error) {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		locale = DefaultLocale
	}
	rules, ok := locales[locale]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, locale)
	}
	c := &Calendar{
		locale: locale,
		fixed:  append([]fixedRule(nil), rules.fixed...),
		easter: append([]easterRule(nil), rules.easter...),
		years:  make(map[int]map[time.Time]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Locale returns the locale code.
func (c *Calendar) Locale() string { return c.locale }

// IsHoliday reports whether date is a holiday.
func (c *Calendar) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d := model.DateOf(date)
	_, ok := c.year(d.Year())[d]
	return ok, nil
}

// Holidays lists the holidays of year sorted by date.
func (c *Calendar) Holidays(year int) []Holiday {
	days := c.year(year)
	out := make([]Holiday, 0, len(days))
	for d, name := range days {
		out = append(out, Holiday{Date: d, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (c *Calendar) year(y int) map[time.Time]string {
	c.mu.RLock()
	days, ok := c.years[y]
	c.mu.RUnlock()
	if ok {
		return days
	}

	days = make(map[time.Time]string, len(c.fixed)+len(c.easter))
	for _, r := range c.fixed {
		days[model.Date(y, r.month, r.day)] = r.name
	}
	easter := Easter(y)
	for _, r := range c.easter {
		d := easter.AddDate(0, 0, r.offset)
		// fixed holidays keep their name when Easter lands on them
		if _, taken := days[d]; !taken {
			days[d] = r.name
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.years[y]; ok {
		return cached
	}
	c.years[y] = days
	return days
}

// Easter returns Easter Sunday of the Gregorian year (anonymous computus).
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return model.Date(year, time.Month(month), day)
}
