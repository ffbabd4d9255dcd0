package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new config file",
	Long:  `Creates a new redisdoctor.yaml file with default settings in the current directory.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := "redisdoctor.yaml"

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("redisdoctor.yaml already exists, remove it first or use a different directory")
	}

	defaultConfig := `# redisdoctor configuration

connection:
  addr: localhost:6379
  # username: ""
  # password: ""
  # db: 0
  # tls: false

# Named connections, picked with --connection <name>
connections:
  # prod:
  #   addr: redis.prod.internal:6379
  #   tls: true
  # staging:
  #   addr: redis.staging.internal:6379

sampling:
  sample_size: 1000  # keys fetched per analysis
  skip: false        # disable keyspace sampling entirely

watch:
  interval: 5s
  # metrics_addr: ":9121"  # expose Prometheus metrics while watching

timeouts:
  dial: 10s
  command: 5s

# Uncomment to override the built-in thresholds
# thresholds:
#   memory_utilization_warn_pct: 75
#   memory_utilization_crit_pct: 90
#   hit_rate_warn_pct: 80
#   hit_rate_crit_pct: 50
#   no_ttl_warn_pct: 50
`

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Println("Created redisdoctor.yaml")
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit redisdoctor.yaml with your server address")
	fmt.Println("  2. Run: redisdoctor check")
	fmt.Println("  3. Run: redisdoctor watch")

	return nil
}
