package model_test

import (
	"errors"
	"testing"
	"time"

	model "github.com/okian/tariffa/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func clockPtr(h, m int) *model.Clock {
	c := model.MustClock(h, m)
	return &c
}

func TestParseServiceKind(t *testing.T) {
	convey.Convey("Given wire values for service kinds", t, func() {
		cases := map[string]model.ServiceKind{
			"piantonamento": model.KindCoverage,
			"Coverage":      model.KindCoverage,
			" ISPEZIONI ":   model.KindInspection,
			"intervento":    model.KindIntervention,
			"canone":        model.KindFlatFee,
			"flat_fee":      model.KindFlatFee,
		}
		for in, want := range cases {
			k, err := model.ParseServiceKind(in)
			convey.So(err, convey.ShouldBeNil)
			convey.So(k, convey.ShouldEqual, want)
		}

		convey.Convey("Unknown kinds are caller errors", func() {
			_, err := model.ParseServiceKind("vigilanza")
			convey.So(errors.Is(err, model.ErrInvalidRequest), convey.ShouldBeTrue)
		})
	})
}

func TestClock(t *testing.T) {
	convey.Convey("Given clock strings", t, func() {
		c, err := model.ParseClock("09:30")
		convey.So(err, convey.ShouldBeNil)
		convey.So(c.Minutes(), convey.ShouldEqual, 570)
		convey.So(c.String(), convey.ShouldEqual, "09:30")

		c, err = model.ParseClock("17:00:00")
		convey.So(err, convey.ShouldBeNil)
		convey.So(c, convey.ShouldEqual, model.MustClock(17, 0))

		c, err = model.ParseClock("24:00")
		convey.So(err, convey.ShouldBeNil)
		convey.So(c, convey.ShouldEqual, model.EndOfDay)

		for _, bad := range []string{"", "9", "24:01", "12:60", "aa:bb", "10:00:30", "-1:00"} {
			_, err := model.ParseClock(bad)
			convey.So(errors.Is(err, model.ErrInvalidRequest), convey.ShouldBeTrue)
		}
	})

	convey.Convey("Given dates", t, func() {
		d, err := model.ParseDate("2024-03-04")
		convey.So(err, convey.ShouldBeNil)
		convey.So(d.Weekday(), convey.ShouldEqual, time.Monday)
		convey.So(model.DateOf(time.Date(2024, 3, 4, 23, 59, 0, 0, time.UTC)), convey.ShouldEqual, d)

		_, err = model.ParseDate("04/03/2024")
		convey.So(errors.Is(err, model.ErrInvalidRequest), convey.ShouldBeTrue)
	})
}

func TestSchedule(t *testing.T) {
	convey.Convey("Given schedule entries", t, func() {
		convey.Convey("The zero week is closed every day", func() {
			var w model.Week
			for d := model.Sunday; d <= model.Holiday; d++ {
				convey.So(w.Entry(d).Mode, convey.ShouldEqual, model.ModeClosed)
			}
		})

		convey.Convey("Windows must not wrap past midnight", func() {
			_, err := model.Window(model.MustClock(22, 0), model.MustClock(6, 0))
			convey.So(errors.Is(err, model.ErrInvalidRequest), convey.ShouldBeTrue)
		})

		convey.Convey("A zero-length window stays a window", func() {
			e, err := model.Window(model.MustClock(9, 0), model.MustClock(9, 0))
			convey.So(err, convey.ShouldBeNil)
			convey.So(e.Mode, convey.ShouldEqual, model.ModeWindow)
			s, end := e.Span()
			convey.So(end-s, convey.ShouldEqual, 0)
		})

		convey.Convey("All-day spans the whole day", func() {
			s, e := model.AllDay().Span()
			convey.So(s, convey.ShouldEqual, model.Midnight)
			convey.So(e, convey.ShouldEqual, model.EndOfDay)
		})
	})

	convey.Convey("Given persisted daily hours", t, func() {
		rows := []model.DailyHours{
			{Day: "lunedì", StartTime: "09:00", EndTime: "17:00"},
			{Day: "tue", StartTime: "09:00", EndTime: "17:00"},
			{Day: "Wednesday", StartTime: "09:00", EndTime: "17:00"},
			{Day: "giovedi", StartTime: "09:00", EndTime: "17:00"},
			{Day: "fri", StartTime: "09:00", EndTime: "17:00"},
			{Day: "sabato", StartTime: "09:00", EndTime: "13:00"},
			{Day: "domenica"},
			{Day: "festivi", Is24h: true},
		}

		convey.Convey("A complete set builds a week", func() {
			w, err := model.WeekFromDailyHours(rows)
			convey.So(err, convey.ShouldBeNil)
			convey.So(w.Entry(model.Monday).Start, convey.ShouldEqual, model.MustClock(9, 0))
			convey.So(w.Entry(model.Saturday).End, convey.ShouldEqual, model.MustClock(13, 0))
			convey.So(w.Entry(model.Sunday).Mode, convey.ShouldEqual, model.ModeClosed)
			convey.So(w.Entry(model.Holiday).Mode, convey.ShouldEqual, model.ModeAllDay)
		})

		convey.Convey("Missing or repeated days are rejected", func() {
			_, err := model.WeekFromDailyHours(rows[:7])
			convey.So(errors.Is(err, model.ErrInvalidRequest), convey.ShouldBeTrue)

			dup := append([]model.DailyHours{}, rows...)
			dup[6] = model.DailyHours{Day: "mon"}
			_, err = model.WeekFromDailyHours(dup)
			convey.So(errors.Is(err, model.ErrInvalidRequest), convey.ShouldBeTrue)
		})

		convey.Convey("is24h with times is contradictory", func() {
			_, err := model.DailyHours{Day: "mon", StartTime: "09:00", Is24h: true}.Entry()
			convey.So(errors.Is(err, model.ErrInvalidRequest), convey.ShouldBeTrue)
		})

		convey.Convey("A half-open window is rejected", func() {
			_, err := model.DailyHours{Day: "mon", EndTime: "17:00"}.Entry()
			convey.So(errors.Is(err, model.ErrInvalidRequest), convey.ShouldBeTrue)
		})
	})
}

func TestCostRequestValidate(t *testing.T) {
	convey.Convey("Given a coverage request", t, func() {
		req := model.CostRequest{
			Kind:       model.KindCoverage,
			ClientID:   "c1",
			LocationID: "p1",
			StartDate:  model.Date(2024, time.March, 4),
			EndDate:    model.Date(2024, time.March, 4),
			AgentCount: 1,
		}
		convey.So(req.Validate(), convey.ShouldBeNil)

		convey.Convey("A reversed range is rejected", func() {
			req.EndDate = model.Date(2024, time.March, 3)
			convey.So(errors.Is(req.Validate(), model.ErrInvalidRequest), convey.ShouldBeTrue)
		})

		convey.Convey("Coverage needs an agent", func() {
			req.AgentCount = 0
			convey.So(errors.Is(req.Validate(), model.ErrInvalidRequest), convey.ShouldBeTrue)
		})

		convey.Convey("A client is required", func() {
			req.ClientID = " "
			convey.So(errors.Is(req.Validate(), model.ErrInvalidRequest), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an inspection request without cadence", t, func() {
		req := model.CostRequest{
			Kind:       model.KindInspection,
			ClientID:   "c1",
			LocationID: "p1",
			StartDate:  model.Date(2024, time.March, 4),
			EndDate:    model.Date(2024, time.March, 4),
		}
		convey.So(errors.Is(req.Validate(), model.ErrInvalidRequest), convey.ShouldBeTrue)

		req.CadenceHours = decimal.NewFromInt(2)
		convey.So(req.Validate(), convey.ShouldBeNil)
	})

	convey.Convey("Given an intervention request", t, func() {
		req := model.CostRequest{
			Kind:       model.KindIntervention,
			ClientID:   "c1",
			LocationID: "p1",
			StartDate:  model.Date(2024, time.March, 4),
			EndDate:    model.Date(2024, time.March, 4),
			StartTime:  clockPtr(10, 0),
		}
		convey.So(errors.Is(req.Validate(), model.ErrInvalidRequest), convey.ShouldBeTrue)

		req.EndTime = clockPtr(11, 30)
		convey.So(req.Validate(), convey.ShouldBeNil)
		convey.So(req.Agents(), convey.ShouldEqual, 1)

		req.AgentCount = -1
		convey.So(errors.Is(req.Validate(), model.ErrInvalidRequest), convey.ShouldBeTrue)
	})
}

func TestRateCardEntry(t *testing.T) {
	convey.Convey("Given a rate card with a validity window", t, func() {
		to := model.Date(2024, time.December, 31)
		e := model.RateCardEntry{
			ID:         "r1",
			ClientID:   "c1",
			Kind:       model.KindCoverage,
			ClientRate: decimal.NewFromInt(10),
			ValidFrom:  model.Date(2024, time.January, 1),
			ValidTo:    &to,
		}
		convey.So(e.Validate(), convey.ShouldBeNil)
		convey.So(e.ValidOn(model.Date(2024, time.January, 1)), convey.ShouldBeTrue)
		convey.So(e.ValidOn(model.Date(2024, time.December, 31)), convey.ShouldBeTrue)
		convey.So(e.ValidOn(model.Date(2025, time.January, 1)), convey.ShouldBeFalse)
		convey.So(e.ValidOn(model.Date(2023, time.December, 31)), convey.ShouldBeFalse)

		convey.Convey("Negative rates are rejected", func() {
			e.SupplierRate = decimal.NewFromInt(-1)
			convey.So(errors.Is(e.Validate(), model.ErrInvalidRequest), convey.ShouldBeTrue)
		})

		convey.Convey("Scope ranks location over supplier", func() {
			convey.So(e.Specificity("p1", "s1"), convey.ShouldEqual, 1)
			e.SupplierID = "s1"
			convey.So(e.Specificity("p1", "s1"), convey.ShouldEqual, 2)
			convey.So(e.Specificity("p1", ""), convey.ShouldEqual, 0)
			e.LocationID = "p1"
			convey.So(e.Specificity("p1", "s1"), convey.ShouldEqual, 4)
			e.SupplierID = ""
			convey.So(e.Specificity("p1", "s1"), convey.ShouldEqual, 3)
			convey.So(e.Specificity("p2", "s1"), convey.ShouldEqual, 0)
		})
	})
}

func TestReportSummarize(t *testing.T) {
	convey.Convey("Given a report with mixed lines", t, func() {
		rate := model.RateCardEntry{ClientRate: decimal.NewFromInt(20), SupplierRate: decimal.NewFromInt(15)}
		r := model.Report{Lines: []model.Line{
			{ItemID: "b", Status: model.StatusMissingTariff},
			{ItemID: "a", Status: model.StatusPriced, Result: &model.CostResult{Multiplier: decimal.NewFromInt(8), Rate: rate}},
			{ItemID: "c", Status: model.StatusInvalid},
		}}
		r.Summarize()

		convey.So(r.Lines[0].ItemID, convey.ShouldEqual, "a")
		convey.So(r.Totals.Amount.String(), convey.ShouldEqual, "160")
		convey.So(r.Totals.SupplierAmount.String(), convey.ShouldEqual, "120")
		convey.So(r.Totals.Margin.String(), convey.ShouldEqual, "40")
		convey.So(r.Missing, convey.ShouldResemble, []string{"b"})
		convey.So(r.Count(model.StatusInvalid), convey.ShouldEqual, 1)
	})
}
