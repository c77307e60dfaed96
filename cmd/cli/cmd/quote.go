// Package cmd - quote command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	app "github.com/okian/tariffa/internal/app"
	"github.com/okian/tariffa/internal/domain/model"
	"github.com/okian/tariffa/internal/domain/types"
)

// quoteCmd prices a single service request
var quoteCmd = &cobra.Command{
	Use:   "quote [file]",
	Short: "Price one service request",
	Long: `Read a service request as JSON from a file (or stdin) and print the quote.

A request without an applicable rate card prints a null result and exits 0.
Invalid requests exit 1.

Examples:
  tariffa quote request.json
  echo '{"type":"canone",...}' | tariffa quote -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuote,
}

func runQuote(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	var req types.QuoteRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", model.ErrInvalidRequest, err)
	}

	return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
		resp, err := svc.Quote(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	})
}
