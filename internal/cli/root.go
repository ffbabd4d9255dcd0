package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile        string
	verbose        bool
	jsonOut        bool
	connectionName string

	flagAddr     string
	flagPassword string
	flagDB       int

	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "redisdoctor",
	Short: "Redis health diagnostics",
	Long: `redisdoctor is a read-only diagnostic tool for Redis and
Redis-compatible servers. It runs a set of health checks against a live
instance and reports findings ranked by severity.

It helps you understand:
- Memory pressure, fragmentation and eviction policy
- Cache hit rate and slow commands
- Connection pool usage
- Keyspace composition: types, sizes, TTLs and prefix hot spots
- Replication and persistence health`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the CLI and returns the process exit code: 0 healthy,
// 1 warnings (or a run error), 2 critical findings.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./redisdoctor.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "emit machine-readable JSON instead of the terminal report")
	rootCmd.PersistentFlags().StringVarP(&connectionName, "connection", "n", "", "named connection from the config file")
	rootCmd.PersistentFlags().StringVarP(&flagAddr, "addr", "a", "", "server address (host:port), overrides config")
	rootCmd.PersistentFlags().StringVar(&flagPassword, "password", "", "server password, overrides config")
	rootCmd.PersistentFlags().IntVar(&flagDB, "db", 0, "logical database")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(compareCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("redisdoctor v0.1.0")
	},
}
