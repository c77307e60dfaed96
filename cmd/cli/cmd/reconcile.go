// Package cmd - reconcile command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	app "github.com/okian/tariffa/internal/app"
	"github.com/okian/tariffa/internal/domain/model"
	"github.com/okian/tariffa/internal/domain/types"
)

var reconcileTimeout time.Duration

// reconcileCmd prices a batch of items and prints the run report
var reconcileCmd = &cobra.Command{
	Use:   "reconcile [file]",
	Short: "Price a batch of service requests",
	Long: `Read {"items":[...]} from a file (or stdin), price every item through the
worker pool and print the completed report with totals and missing tariffs.

Examples:
  tariffa reconcile batch.json
  tariffa reconcile --timeout 2m < batch.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().DurationVarP(&reconcileTimeout, "timeout", "t", time.Minute, "maximum time to wait for the report")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	var req types.ReconciliationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", model.ErrInvalidRequest, err)
	}

	return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
		ack, err := svc.SubmitReconciliation(ctx, req.ModelItems())
		if err != nil {
			return err
		}
		waitCtx, cancel := context.WithTimeout(ctx, reconcileTimeout)
		defer cancel()
		report, err := svc.Wait(waitCtx, ack.RunID)
		if err != nil {
			return fmt.Errorf("waiting for run %s: %w", ack.RunID, err)
		}
		return printJSON(cmd, report)
	})
}
