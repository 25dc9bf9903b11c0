package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	cachepkg "github.com/michischmidt/crypto-tracker/pkg/cache"
	"github.com/michischmidt/crypto-tracker/pkg/models"
)

func newCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the local data cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			entries, err := a.entries()
			if err != nil {
				return err
			}
			var fresh, size int
			for _, e := range entries {
				size += e.Size
				if e.Fresh {
					fresh++
				}
			}
			fmt.Printf("Entries: %d\nFresh:   %d\nStale:   %d\nBytes:   %d\nMax age: %s\n",
				len(entries), fresh, len(entries)-fresh, size, a.cfg.Cache.MaxAge)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cached records",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			entries, err := a.entries()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("Cache is empty.")
				return nil
			}
			now := time.Now()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tWRITTEN\tAGE\tFRESH\tBYTES")
			for _, e := range entries {
				written, age := "-", "-"
				if !e.WrittenAt.IsZero() {
					written = e.WrittenAt.Format("2006-01-02T15:04:05")
					age = now.Sub(e.WrittenAt).Truncate(time.Second).String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\n", e.Key, written, age, e.Fresh, e.Size)
			}
			return w.Flush()
		},
	}

	var (
		key       string
		prefix    string
		staleOnly bool
	)
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached records",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if key != "" {
				if err := a.store.Delete(key); err != nil {
					return err
				}
				fmt.Printf("Cleared %s.\n", key)
				return nil
			}

			entries, err := a.entries()
			if err != nil {
				return err
			}
			var n int
			for _, e := range entries {
				if prefix != "" && !strings.HasPrefix(e.Key, prefix) {
					continue
				}
				if staleOnly && e.Fresh {
					continue
				}
				if err := a.store.Delete(e.Key); err != nil {
					return err
				}
				n++
			}
			if staleOnly {
				fmt.Printf("Stale cache entries cleared: %d.\n", n)
			} else {
				fmt.Printf("Cache entries cleared: %d.\n", n)
			}
			return nil
		},
	}
	clearCmd.Flags().StringVar(&key, "key", "", "clear a single key")
	clearCmd.Flags().StringVar(&prefix, "prefix", "", "only clear keys with this prefix")
	clearCmd.Flags().BoolVar(&staleOnly, "stale", false, "only clear stale entries")

	cmd.AddCommand(statsCmd, listCmd, clearCmd)
	return cmd
}

// entries lists the symbols and series records of the configured namespace.
func (a *app) entries() ([]models.CacheEntry, error) {
	c := cachepkg.New[json.RawMessage](a.store, cachepkg.Options{
		Namespace: a.cfg.Namespace,
		MaxAge:    a.cfg.Cache.MaxAge,
		Logger:    a.log,
	})
	return c.Entries(a.svc.OwnsKey)
}
