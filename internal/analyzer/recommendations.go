package analyzer

import (
	"regexp"

	"github.com/illenko/redisdoctor/pkg/models"
)

type recommendationRule struct {
	pattern *regexp.Regexp
	title   string
	actions []string
}

// The static rule table. Both the table order and the finding order are
// deterministic so the rendered list is reproducible run to run.
var recommendationRules = []recommendationRule{
	{
		pattern: regexp.MustCompile(`memory utilization at`),
		title:   "Reduce memory pressure",
		actions: []string{
			"Review the largest keys and prefix groups in the key patterns section",
			"Consider a less strict maxmemory-policy such as allkeys-lru for cache workloads",
			"Scale the instance up, or shard the keyspace across instances",
		},
	},
	{
		pattern: regexp.MustCompile(`maxmemory is not set`),
		title:   "Set a memory limit",
		actions: []string{
			"Set maxmemory to roughly 80% of the memory available to the process",
			"Pick a maxmemory-policy that matches the workload before the limit is hit",
		},
	},
	{
		pattern: regexp.MustCompile(`fragmentation ratio`),
		title:   "Address memory fragmentation",
		actions: []string{
			"Enable activedefrag if the server supports it",
			"Restart the instance during a low-traffic window to compact memory",
		},
	},
	{
		pattern: regexp.MustCompile(`cache hit rate`),
		title:   "Improve cache hit rate",
		actions: []string{
			"Check for keys expiring earlier than the access pattern needs",
			"Verify clients read the keys they write (look for typo'd key names)",
			"Increase memory if evictions are forcing hot keys out",
		},
	},
	{
		pattern: regexp.MustCompile(`slowlog contains`),
		title:   "Investigate slow commands",
		actions: []string{
			"Inspect SLOWLOG GET for O(N) commands over large collections",
			"Replace KEYS, SMEMBERS and full-range queries with SCAN-based variants",
		},
	},
	{
		pattern: regexp.MustCompile(`client connections in use|connections rejected`),
		title:   "Raise connection capacity",
		actions: []string{
			"Audit clients for missing connection pooling",
			"Raise maxclients if the host has file-descriptor headroom",
		},
	},
	{
		pattern: regexp.MustCompile(`blocked on blocking commands`),
		title:   "Review blocking command usage",
		actions: []string{
			"Check consumers of BLPOP/BRPOP/WAIT for stuck workers",
			"Set client timeouts so abandoned blocking calls release their slot",
		},
	},
	{
		pattern: regexp.MustCompile(`have no TTL`),
		title:   "Expire transient keys",
		actions: []string{
			"Add TTLs to cache and session keys so memory reclaims itself",
			"Use the prefix breakdown to find the namespaces holding permanent keys",
		},
	},
	{
		pattern: regexp.MustCompile(`replica .* is |link to the master is down|lags .* behind|no traffic from master`),
		title:   "Restore replication health",
		actions: []string{
			"Check network connectivity and replica logs",
			"Verify repl-backlog-size is large enough to survive brief disconnects",
		},
	},
	{
		pattern: regexp.MustCompile(`RDB background save failed|AOF write failed|no persistence configured`),
		title:   "Fix persistence",
		actions: []string{
			"Check disk space and write permissions on the persistence directory",
			"Enable AOF or RDB snapshots if the dataset must survive restarts",
		},
	},
	{
		pattern: regexp.MustCompile(`check failed:`),
		title:   "Investigate failed checks",
		actions: []string{
			"Re-run with --verbose to see the underlying command errors",
			"Confirm the user has permission for INFO, SCAN, CONFIG and SLOWLOG",
		},
	},
}

// BuildRecommendations flattens findings in section order and maps them
// through the rule table. Each rule fires at most once per report.
func BuildRecommendations(sections []*models.Section) []models.Recommendation {
	seen := make(map[string]struct{})
	var out []models.Recommendation

	for _, section := range sections {
		for _, finding := range section.Findings {
			for _, rule := range recommendationRules {
				if !rule.pattern.MatchString(finding.Message) {
					continue
				}
				if _, dup := seen[rule.title]; dup {
					continue
				}
				seen[rule.title] = struct{}{}
				out = append(out, models.Recommendation{
					Title:   rule.title,
					Actions: rule.actions,
				})
			}
		}
	}
	return out
}
