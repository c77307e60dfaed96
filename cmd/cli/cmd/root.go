// Package cmd provides the CLI commands for tariffa.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	app "github.com/okian/tariffa/internal/app"
	"github.com/okian/tariffa/internal/config"
	"github.com/okian/tariffa/pkg/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

var (
	cfgFile  string
	rateFile string
	verbose  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tariffa",
	Short: "Price security services against client rate cards",
	Long: `tariffa computes billable quantities and amounts for piantonamento,
ispezioni, intervento and canone services.

Requests are priced in process against the configured rate store, the same
way the HTTP service does.

Examples:
  tariffa quote request.json
  tariffa quote --rate-file rates.yaml < request.json
  tariffa reconcile batch.json
  tariffa holidays --year 2025
  tariffa rates sync rates.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (overrides TARIFFA_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&rateFile, "rate-file", "", "YAML rate cards; selects the memory rate store")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(holidaysCmd)
	rootCmd.AddCommand(ratesCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	if err := logger.Init("console"); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		return
	}
	// stdout carries command output; keep it quiet unless asked
	level := "error"
	if verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)
}

// loadConfig layers the command line flags over the usual config sources.
func loadConfig(ctx context.Context) (*config.Config, error) {
	if cfgFile != "" {
		if err := os.Setenv("TARIFFA_CONFIG", cfgFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if rateFile != "" {
		cfg.RateStore = config.RateStoreMemory
		cfg.RateFile = rateFile
	}
	return cfg, nil
}

// withService runs fn against a started service and stops it afterwards.
func withService(ctx context.Context, fn func(context.Context, *app.Service) error) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log := logger.Get().Named("cli")

	rates, closeRates, err := app.OpenRateStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeRates() }()

	svc := app.New(append(app.OptionsFromConfig(cfg), app.WithRateStore(rates), app.WithLogger(log))...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop(ctx)

	return fn(ctx, svc)
}

// readInput reads the named file, or stdin when the name is empty or "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return b, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tariffa version %s\n", version)
	},
}
