package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/illenko/redisdoctor/internal/analyzer"
	"github.com/illenko/redisdoctor/internal/render"
	"github.com/illenko/redisdoctor/internal/snapshot"
)

var compareCmd = &cobra.Command{
	Use:   "compare <previous.json> <current.json>",
	Short: "Diff two saved snapshots",
	Long: `Compares two snapshot files written with --snapshot-out and prints
the per-metric deltas without connecting to any server.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	previous, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}
	current, err := snapshot.Load(args[1])
	if err != nil {
		return err
	}

	deltas := analyzer.ComputeDeltas(current, previous)
	if len(deltas) == 0 {
		fmt.Println("no comparable metrics found")
		return nil
	}
	return render.New(os.Stdout, jsonOut).Deltas(deltas)
}
