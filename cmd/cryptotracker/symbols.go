package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSymbolsCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List top coins by market cap",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res := a.svc.TopCoins(cmd.Context())
			if res.Err != nil {
				return res.Err
			}

			coins := res.Data
			if limit > 0 && len(coins) > limit {
				coins = coins[:limit]
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tID\tSYMBOL\tNAME")
			for i, c := range coins {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, c.ID, c.Symbol, c.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of coins to show (0 for all)")
	return cmd
}
