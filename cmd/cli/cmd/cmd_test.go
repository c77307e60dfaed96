package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tariffa/internal/domain/model"
)

const rates = `rate_cards:
  - id: fee-c1
    client_id: c1
    kind: canone
    unit_of_measure: mese
    client_rate: "300"
    supplier_rate: "250"
    valid_from: "2024-01-01"
`

const canoneRequest = `{"type":"canone","client_id":"c1","service_point_id":"p1",
"start_date":"2024-03-01","end_date":"2024-03-31"}`

// run executes the root command with fresh flag state and returns stdout.
func run(stdin string, args ...string) (string, error) {
	cfgFile, rateFile, verbose = "", "", false
	holidayYear, holidayFormat = 0, "text"
	ratesFormat = "text"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeRates(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	if err := os.WriteFile(path, []byte(rates), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	Convey("version prints the build version", t, func() {
		out, err := run("", "version")
		So(err, ShouldBeNil)
		So(out, ShouldStartWith, "tariffa version ")
	})
}

func TestQuote(t *testing.T) {
	t.Setenv("TARIFFA_RATE_STORE", "memory")
	path := writeRates(t)

	Convey("Given a rate file with a client-wide canone card", t, func() {
		Convey("A request on stdin is priced", func() {
			out, err := run(canoneRequest, "quote", "--rate-file", path)
			So(err, ShouldBeNil)

			var resp map[string]any
			So(json.Unmarshal([]byte(out), &resp), ShouldBeNil)
			So(resp["status"], ShouldEqual, "priced")
			So(resp["result"].(map[string]any)["rateCardId"], ShouldEqual, "fee-c1")
		})

		Convey("A request from a file is priced", func() {
			req := filepath.Join(t.TempDir(), "req.json")
			So(os.WriteFile(req, []byte(canoneRequest), 0o600), ShouldBeNil)

			out, err := run("", "quote", "--rate-file", path, req)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, `"status": "priced"`)
		})

		Convey("Another client has no tariff", func() {
			out, err := run(strings.Replace(canoneRequest, `"c1"`, `"c2"`, 1), "quote", "--rate-file", path, "-")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, `"status": "missing_tariff"`)
			So(out, ShouldContainSubstring, `"result": null`)
		})

		Convey("An unknown kind is an invalid request", func() {
			_, err := run(strings.Replace(canoneRequest, "canone", "catering", 1), "quote", "--rate-file", path)
			So(err, ShouldWrap, model.ErrInvalidRequest)
		})

		Convey("Malformed JSON is an invalid request", func() {
			_, err := run("{", "quote", "--rate-file", path)
			So(err, ShouldWrap, model.ErrInvalidRequest)
		})

		Convey("A missing input file fails", func() {
			_, err := run("", "quote", "--rate-file", path, filepath.Join(t.TempDir(), "nope.json"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestReconcile(t *testing.T) {
	t.Setenv("TARIFFA_RATE_STORE", "memory")
	path := writeRates(t)

	Convey("Given a batch with a priced, a missing and a duplicate item", t, func() {
		batch := `{"items":[
{"item_id":"a","type":"canone","client_id":"c1","service_point_id":"p1","start_date":"2024-03-01","end_date":"2024-03-31"},
{"item_id":"b","type":"canone","client_id":"c9","service_point_id":"p1","start_date":"2024-03-01","end_date":"2024-03-31"},
{"item_id":"a","type":"canone","client_id":"c1","service_point_id":"p1","start_date":"2024-03-01","end_date":"2024-03-31"}]}`

		out, err := run(batch, "reconcile", "--rate-file", path)
		So(err, ShouldBeNil)

		var report model.Report
		So(json.Unmarshal([]byte(out), &report), ShouldBeNil)

		Convey("Then the completed report lists every line", func() {
			So(report.Done, ShouldBeTrue)
			So(report.Submitted, ShouldEqual, 3)
			So(report.Accepted, ShouldEqual, 2)
			So(report.Lines, ShouldHaveLength, 3)
			So(report.Missing, ShouldContain, "b")
		})
	})
}

func TestHolidays(t *testing.T) {
	Convey("Given the italian calendar", t, func() {
		Convey("text output lists one holiday per line", func() {
			out, err := run("", "holidays", "--year", "2024")
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(out), "\n")
			So(lines, ShouldHaveLength, 12)
			So(lines[0], ShouldStartWith, "2024-01-01")
			So(out, ShouldContainSubstring, "Pasqua")
		})

		Convey("json output carries dates and names", func() {
			out, err := run("", "holidays", "-y", "2024", "-f", "json")
			So(err, ShouldBeNil)
			var days []holidayLine
			So(json.Unmarshal([]byte(out), &days), ShouldBeNil)
			So(days, ShouldContain, holidayLine{Date: "2024-03-31", Name: "Pasqua"})
		})

		Convey("an unknown format fails", func() {
			_, err := run("", "holidays", "--format", "xml")
			So(err, ShouldNotBeNil)
		})
	})
}

const twoRates = `rate_cards:
  - id: pia-c1
    client_id: c1
    kind: piantonamento
    client_rate: "15"
    supplier_rate: "11"
    location_id: p1
    valid_from: "2024-01-01"
    valid_to: "2024-12-31"
  - id: fee-c1
    client_id: c1
    kind: canone
    client_rate: "300"
    supplier_rate: "250"
    valid_from: "2024-01-01"
`

func TestRates(t *testing.T) {
	t.Setenv("TARIFFA_RATE_STORE", "memory")
	path := filepath.Join(t.TempDir(), "two.yaml")
	if err := os.WriteFile(path, []byte(twoRates), 0o600); err != nil {
		t.Fatal(err)
	}

	Convey("Given a file with two rate cards", t, func() {
		Convey("list prints them ordered by id", func() {
			out, err := run("", "rates", "list", path)
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(out), "\n")
			So(lines, ShouldHaveLength, 3)
			So(lines[0], ShouldStartWith, "ID")
			So(lines[1], ShouldStartWith, "fee-c1")
			So(lines[1], ShouldContainSubstring, "2024-01-01..")
			So(lines[2], ShouldStartWith, "pia-c1")
			So(lines[2], ShouldContainSubstring, "2024-01-01..2024-12-31")
		})

		Convey("list reads --rate-file and prints json", func() {
			out, err := run("", "rates", "list", "--rate-file", path, "--format", "json")
			So(err, ShouldBeNil)

			var cards []model.RateCardEntry
			So(json.Unmarshal([]byte(out), &cards), ShouldBeNil)
			So(cards, ShouldHaveLength, 2)
			So(cards[0].ID, ShouldEqual, "fee-c1")
			So(cards[1].LocationID, ShouldEqual, "p1")
		})

		Convey("list without a file fails", func() {
			_, err := run("", "rates", "list")
			So(err, ShouldNotBeNil)
		})

		Convey("sync writes them to the configured store", func() {
			out, err := run("", "rates", "sync", path)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "synced 2 rate cards to memory\n")
		})

		Convey("sync rejects an invalid card", func() {
			bad := filepath.Join(t.TempDir(), "bad.yaml")
			So(os.WriteFile(bad, []byte(strings.Replace(twoRates, "client_id: c1", "client_id: \"\"", 1)), 0o600), ShouldBeNil)

			_, err := run("", "rates", "sync", bad)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRatesSyncThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("TARIFFA_RATE_STORE", "memory")
	t.Setenv("TARIFFA_REDIS_ADDR", mr.Addr())
	path := filepath.Join(t.TempDir(), "two.yaml")
	if err := os.WriteFile(path, []byte(twoRates), 0o600); err != nil {
		t.Fatal(err)
	}

	Convey("Given a redis cache holding a stale lookup", t, func() {
		So(mr.Set("tariffa:rates:c1|piantonamento|p1||2024-06-01", "[]"), ShouldBeNil)

		Convey("sync writes through the cache and drops cached lookups", func() {
			out, err := run("", "rates", "sync", path)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "synced 2 rate cards to redis+memory\n")
			So(mr.Exists("tariffa:rates:c1|piantonamento|p1||2024-06-01"), ShouldBeFalse)
		})
	})
}
