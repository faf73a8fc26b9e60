package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/sfsbridge/core/factory"
	"github.com/kilianp07/sfsbridge/infra/diag"
)

var (
	diagStore string
	diagPath  string
	diagLimit int
)

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "List the most recent broker connection attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := diag.Open(factory.ModuleConfig{Type: diagStore, Conf: map[string]any{"path": diagPath}})
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		recs, err := diag.Recent(context.Background(), store, diagLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tBROKER\tCLIENT\tRESULT\tCODE\tERROR")
		for _, r := range recs {
			result := "failed"
			if r.Success {
				result = "connected"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				r.Time.Format(time.RFC3339), r.Subject, r.ClientID, result, r.Code, r.Error)
		}
		return w.Flush()
	},
}

func init() {
	diagCmd.Flags().StringVar(&diagStore, "store", "sqlite", "diagnostics store type (sqlite or jsonl)")
	diagCmd.Flags().StringVar(&diagPath, "path", "diagnostics.db", "diagnostics store location")
	diagCmd.Flags().IntVarP(&diagLimit, "limit", "n", 10, "number of attempts to show")
	rootCmd.AddCommand(diagCmd)
}
