package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/sommelier/searchbench"
	"github.com/sommelier/searchbench/types"
)

var historyCount int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored runs, newest first",
	Long: `The history subcommand reads the runs kept by the storage
of the config file and prints, for each run, its time, the
worst endpoint status and the mean latency of every
endpoint.

Example:

  $ searchbench history -c searchbench.json -n 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := loadBench(cmd)
		if err != nil {
			return err
		}
		reader, ok := b.Storage.(searchbench.StorageReader)
		if !ok {
			if b.Storage == nil {
				return errors.New("no storage configured")
			}
			return fmt.Errorf("%s storage cannot be read back", b.Storage.Type())
		}
		return printHistory(cmd.OutOrStdout(), reader, historyCount)
	},
}

func printHistory(w io.Writer, reader searchbench.StorageReader, count int) error {
	index, err := reader.GetIndex()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if index[names[i]] == index[names[j]] {
			return names[i] > names[j]
		}
		return index[names[i]] > index[names[j]]
	})
	if count > 0 && len(names) > count {
		names = names[:count]
	}

	for _, name := range names {
		results, err := reader.Fetch(name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		ts := time.Unix(0, index[name]).UTC().Format(time.RFC3339)
		fmt.Fprintf(w, "%s  %s  %s\n", ts, name, types.WorstStatus(results))
		for _, r := range results {
			mean := "no successful samples"
			if stats, err := r.ComputeStats(); err == nil {
				mean = "mean " + types.FormatSeconds(stats.Mean)
			}
			fmt.Fprintf(w, "  %-24s %s\n", r.Title, mean)
		}
	}
	return nil
}

func init() {
	historyCmd.Flags().IntVarP(&historyCount, "count", "n", 10, "Number of runs to list (0 for all)")
	RootCmd.AddCommand(historyCmd)
}
