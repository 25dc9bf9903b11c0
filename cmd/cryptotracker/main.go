package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

const defaultConfigPath = "crypto-tracker.yaml"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "cryptotracker",
		Short:         "Cached cryptocurrency prices with offline fallback",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")

	root.AddCommand(
		newSymbolsCmd(&configPath),
		newChartCmd(&configPath),
		newCacheCmd(&configPath),
		newServeCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
