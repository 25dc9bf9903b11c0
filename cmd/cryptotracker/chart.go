package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/michischmidt/crypto-tracker/pkg/fallback"
	"github.com/michischmidt/crypto-tracker/pkg/models"
)

func newChartCmd(configPath *string) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "chart <coin-id>",
		Short: "Show daily prices for a coin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := models.ParsePeriod(period)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res, err := a.svc.MarketSeries(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			if res.Err != nil {
				return res.Err
			}
			if res.Outcome == fallback.Stale {
				fmt.Fprintf(os.Stderr, "note: showing cached data from %s\n", res.CachedAt.UTC().Format("2006-01-02T15:04:05"))
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tPRICE")
			for _, pt := range res.Data {
				fmt.Fprintf(w, "%s\t%.2f\n", pt.Date, pt.Price)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", string(models.PeriodWeek), "time period: 1W, 1M or 1Y")
	return cmd
}
