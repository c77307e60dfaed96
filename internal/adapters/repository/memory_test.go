package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tariffa/internal/adapters/repository"
	"github.com/okian/tariffa/internal/domain/model"
	"github.com/okian/tariffa/internal/domain/tariff"
)

func date(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func card(id, loc, sup, rate string) model.RateCardEntry {
	return model.RateCardEntry{
		ID:           id,
		ClientID:     "c1",
		Kind:         model.KindCoverage,
		ClientRate:   decimal.RequireFromString(rate),
		SupplierRate: decimal.RequireFromString(rate).Sub(decimal.NewFromInt(2)),
		LocationID:   loc,
		SupplierID:   sup,
		ValidFrom:    date("2024-01-01"),
	}
}

func TestMemoryRateStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store with client and location cards", t, func() {
		s := repository.NewMemoryRateStore(card("a", "", "", "10"), card("b", "p1", "", "15"), card("c", "p2", "", "20"))
		q := tariff.Query{ClientID: "c1", Kind: model.KindCoverage, LocationID: "p1", On: date("2024-06-01")}

		Convey("Candidates skips cards scoped elsewhere", func() {
			rows, err := s.Candidates(ctx, q)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)

			best := tariff.Select(rows, q)
			So(best.ID, ShouldEqual, "b")
		})

		Convey("Candidates is empty before the validity window", func() {
			q.On = date("2023-12-31")
			rows, err := s.Candidates(ctx, q)
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)
		})

		Convey("Put replaces a card with the same id", func() {
			So(s.Put(ctx, card("b", "p1", "", "18")), ShouldBeNil)
			all := s.All()
			So(all, ShouldHaveLength, 3)
			So(all[1].ClientRate.String(), ShouldEqual, "18")
		})

		Convey("Put rejects invalid cards", func() {
			bad := card("d", "", "", "10")
			bad.ClientID = ""
			So(s.Put(ctx, bad), ShouldNotBeNil)
			So(s.All(), ShouldHaveLength, 3)
		})

		Convey("Candidates honours a cancelled context", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := s.Candidates(cctx, q)
			So(err, ShouldEqual, context.Canceled)
		})
	})
}

const rateFile = `rate_cards:
  - id: r1
    client_id: c1
    kind: piantonamento
    unit_of_measure: ora
    client_rate: 15.50
    supplier_rate: "12"
    location_id: p1
    valid_from: 2024-01-01
    valid_to: "2024-12-31"
  - id: r2
    client_id: c1
    kind: Canone
    client_rate: "300"
    supplier_rate: "250"
    valid_from: "2024-01-01"
`

func TestLoadRateCardsFile(t *testing.T) {
	Convey("Given a YAML rate card file", t, func() {
		path := filepath.Join(t.TempDir(), "rates.yaml")
		So(os.WriteFile(path, []byte(rateFile), 0o600), ShouldBeNil)

		Convey("It decodes every card", func() {
			cards, err := repository.LoadRateCardsFile(path)
			So(err, ShouldBeNil)
			So(cards, ShouldHaveLength, 2)

			So(cards[0].ClientRate.Equal(decimal.RequireFromString("15.5")), ShouldBeTrue)
			So(cards[0].ValidFrom.Equal(date("2024-01-01")), ShouldBeTrue)
			So(cards[0].ValidTo, ShouldNotBeNil)
			So(cards[0].ValidTo.Equal(date("2024-12-31")), ShouldBeTrue)
			So(cards[0].LocationID, ShouldEqual, "p1")

			So(cards[1].Kind, ShouldEqual, model.KindFlatFee)
			So(cards[1].ValidTo, ShouldBeNil)
		})
	})

	Convey("Given a file with an unknown kind", t, func() {
		path := filepath.Join(t.TempDir(), "rates.yaml")
		body := "rate_cards:\n  - id: x\n    client_id: c1\n    kind: catering\n    client_rate: \"1\"\n    supplier_rate: \"1\"\n    valid_from: \"2024-01-01\"\n"
		So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)

		_, err := repository.LoadRateCardsFile(path)
		So(err, ShouldNotBeNil)
	})

	Convey("Given a missing file", t, func() {
		_, err := repository.LoadRateCardsFile(filepath.Join(t.TempDir(), "nope.yaml"))
		So(err, ShouldNotBeNil)
	})
}
