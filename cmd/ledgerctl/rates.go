package main

import (
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newRatesCmd(current func() *app) *cobra.Command {
	ratesCmd := &cobra.Command{
		Use:   "rates",
		Short: "Inspect exchange quotes",
	}
	ratesCmd.AddCommand(newRatesGetCmd(current))
	ratesCmd.AddCommand(newRatesCurrentCmd(current))
	return ratesCmd
}

func newRatesGetCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get YYYY-MM-DD",
		Short: "Resolve the quote in effect on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := domain.ParseDate(args[0])
			if err != nil {
				return err
			}
			quote, err := current().services.Rates.ResolveQuote(cmd.Context(), date)
			if err != nil {
				return err
			}
			if quote == nil {
				pterm.Warning.Printf("No exchange quote within the fallback window of %s\n", date)
				return nil
			}
			return renderQuote(quote)
		},
	}
}

func newRatesCurrentCmd(current func() *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show today's quote",
		RunE: func(cmd *cobra.Command, args []string) error {
			quote, err := current().services.Rates.CurrentQuote(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			if quote == nil {
				pterm.Warning.Println("No exchange quote available")
				return nil
			}
			return renderQuote(quote)
		},
	}
	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "fetch from the provider even if today's quote is cached")
	return cmd
}

func renderQuote(q *domain.ExchangeQuote) error {
	usdPerEur := "-"
	if v, ok := q.USDPerEUR(); ok {
		usdPerEur = v.StringFixed(4)
	}
	data := pterm.TableData{
		{"Date", "Source date", "VES/USD", "VES/EUR", "USD/EUR", "Fetched"},
		{
			q.Date.String(),
			q.SourceDate.String(),
			q.VESPerUSD.String(),
			q.VESPerEUR.String(),
			usdPerEur,
			q.FetchedAt.Format("2006-01-02 15:04:05 MST"),
		},
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
