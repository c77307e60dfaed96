// Package cmd - holidays command
package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	app "github.com/okian/tariffa/internal/app"
)

var (
	holidayYear   int
	holidayFormat string
)

type holidayLine struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// holidaysCmd lists the public holidays of a year
var holidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "List the public holidays of a year",
	Long: `List the public holidays that price at the holiday rate.

Examples:
  tariffa holidays
  tariffa holidays --year 2025 --format json`,
	Args: cobra.NoArgs,
	RunE: runHolidays,
}

func init() {
	holidaysCmd.Flags().IntVarP(&holidayYear, "year", "y", 0, "calendar year (default current year)")
	holidaysCmd.Flags().StringVarP(&holidayFormat, "format", "f", "text", "output format (text, json)")
}

func runHolidays(cmd *cobra.Command, _ []string) error {
	year := holidayYear
	if year == 0 {
		year = time.Now().Year()
	}
	if holidayFormat != "text" && holidayFormat != "json" {
		return fmt.Errorf("unknown format %q", holidayFormat)
	}

	return withService(cmd.Context(), func(_ context.Context, svc *app.Service) error {
		days, err := svc.Holidays(year)
		if err != nil {
			return err
		}
		lines := make([]holidayLine, 0, len(days))
		for _, d := range days {
			lines = append(lines, holidayLine{Date: d.Date.Format("2006-01-02"), Name: d.Name})
		}
		if holidayFormat == "json" {
			return printJSON(cmd, lines)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, l := range lines {
			fmt.Fprintf(tw, "%s\t%s\n", l.Date, l.Name)
		}
		return tw.Flush()
	})
}
