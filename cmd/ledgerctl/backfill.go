package main

import (
	"fmt"
	"time"

	"github.com/SscSPs/multicurrency_ledger/internal/core/services"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type backfillFlags struct {
	Limit         int
	Delay         time.Duration
	RetryDeferred bool
}

func newBackfillCmd(current func() *app) *cobra.Command {
	flags := &backfillFlags{}

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Value transactions stored without a USD amount",
		Long: `Scan transactions missing amountUsd or exchangeRateUsed, resolve one
exchange quote per distinct date and store the resulting valuation.

Dates with no quote within the fallback window are listed and left out of
later runs for BACKFILL_DEFERRAL. Pass --retry-deferred to try them now.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			delay := a.cfg.BackfillDateDelay
			if cmd.Flags().Changed("delay") {
				delay = flags.Delay
			}
			options := []services.BackfillOption{
				services.WithBatchLimit(a.cfg.BackfillBatchLimit),
				services.WithDateDelay(delay),
				services.WithDeferral(a.cfg.BackfillDeferral),
			}
			if flags.RetryDeferred {
				options = append(options, services.WithRetryDeferred())
			}
			svc := services.NewBackfillService(a.repos.TransactionRepo, a.services.Rates, options...)

			spinner, _ := pterm.DefaultSpinner.Start("Backfilling valuations...")
			report, err := svc.RunBackfill(cmd.Context(), flags.Limit)
			if err != nil {
				spinner.Fail("Backfill failed")
				return fmt.Errorf("backfill failed: %w", err)
			}
			spinner.Success("Backfill finished")

			data := pterm.TableData{
				{"Scanned", "Updated", "Skipped dates"},
				{fmt.Sprint(report.Scanned), fmt.Sprint(report.Updated), fmt.Sprint(len(report.SkippedDates))},
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
				return err
			}
			for _, d := range report.SkippedDates {
				pterm.Warning.Printf("No exchange quote for %s\n", d)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 0, "maximum rows to scan (0 uses the configured batch limit)")
	cmd.Flags().DurationVar(&flags.Delay, "delay", 0, "pause between provider lookups")
	cmd.Flags().BoolVar(&flags.RetryDeferred, "retry-deferred", false, "include dates deferred by earlier runs")

	return cmd
}
