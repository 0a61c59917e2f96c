package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-rank/internal/duckdb"
)

func newLookupCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:     "lookup <gene>",
		Short:   "Show recorded statistics for a gene",
		Long:    "Print the statistics and group of a gene for every run recorded with --db.",
		Example: `  vibe-rank lookup --db runs.duckdb CD274`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = viper.GetString("db")
			}
			return runLookup(cmd.OutOrStdout(), dbPath, args[0])
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB database written by vibe-rank --db")

	return cmd
}

func runLookup(w io.Writer, dbPath, gene string) error {
	if dbPath == "" {
		return fmt.Errorf("no database given, use --db")
	}
	// Open would create an empty database at a mistyped path.
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("open result database: %w", err)
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.LookupGene(gene)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintf(w, "No recorded statistics for %s\n", gene)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tMED\tP\tFDR\tGROUP\tPOSITION")
	for _, rec := range recs {
		group, position := "-", "-"
		if rec.Direction != "" {
			group = string(rec.Direction)
			position = strconv.Itoa(rec.Position)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.2e\t%.2e\t%s\t%s\n",
			rec.RunID,
			rec.StartedAt.Format(time.RFC3339),
			rec.Stat.Median, rec.Stat.PValue, rec.Stat.FDR,
			group, position)
	}
	return tw.Flush()
}
