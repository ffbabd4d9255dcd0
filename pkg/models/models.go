package models

import "time"

// Severity is the outcome level of a finding or a whole section.
// Ordering is total: Critical > Warning > OK.
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Max returns the more severe of the two.
func (s Severity) Max(other Severity) Severity {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

type Finding struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Section is the result bundle of one health check.
type Section struct {
	Title    string             `json:"title"`
	Status   Severity           `json:"status"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
	Details  map[string]string  `json:"details,omitempty"`
	Findings []Finding          `json:"findings,omitempty"`

	// Sample carries keyspace sampling aggregates; only the key
	// patterns section populates it.
	Sample *SampleSummary `json:"sample,omitempty"`
}

// AddFinding appends a finding and raises the section status when needed.
func (s *Section) AddFinding(severity Severity, message string) {
	s.Findings = append(s.Findings, Finding{Message: message, Severity: severity})
	s.Status = s.Status.Max(severity)
}

type Summary struct {
	WarningCount  int `json:"warning_count"`
	CriticalCount int `json:"critical_count"`
}

type Report struct {
	Timestamp      time.Time `json:"timestamp"`
	ServerIdentity string    `json:"server_identity"`

	Memory      Section  `json:"memory"`
	Performance Section  `json:"performance"`
	Connections Section  `json:"connections"`
	KeyPatterns *Section `json:"key_patterns,omitempty"`
	Replication Section  `json:"replication"`

	Summary Summary `json:"summary"`
}

// Sections returns the present sections in fixed display order.
func (r *Report) Sections() []*Section {
	out := []*Section{&r.Memory, &r.Performance, &r.Connections}
	if r.KeyPatterns != nil {
		out = append(out, r.KeyPatterns)
	}
	out = append(out, &r.Replication)
	return out
}

// Status is the overall severity of the report.
func (r *Report) Status() Severity {
	status := SeverityOK
	for _, s := range r.Sections() {
		status = status.Max(s.Status)
	}
	return status
}

// SampledKey is one of the largest keys seen during sampling.
type SampledKey struct {
	Key       string `json:"key"`
	Type      string `json:"type"`
	SizeBytes int64  `json:"size_bytes"`
}

type PrefixGroup struct {
	Prefix     string `json:"prefix"`
	KeyCount   int    `json:"key_count"`
	TotalBytes int64  `json:"total_bytes"`
}

// TTL bucket labels, fixed and exhaustive: every sampled key lands in
// exactly one.
const (
	TTLBucketNone   = "no_expiry"
	TTLBucketHour   = "under_1h"
	TTLBucketDay    = "1h_to_1d"
	TTLBucketWeek   = "1d_to_7d"
	TTLBucketLonger = "over_7d"
)

// SampleSummary holds the bounded aggregates of one keyspace sampling run.
type SampleSummary struct {
	TotalKeys    int64            `json:"total_keys"`
	SampledKeys  int              `json:"sampled_keys"`
	TypeCounts   map[string]int   `json:"type_counts,omitempty"`
	TypeBytes    map[string]int64 `json:"type_bytes,omitempty"`
	Encodings    map[string]int   `json:"encodings,omitempty"`
	TTLBuckets   map[string]int   `json:"ttl_buckets,omitempty"`
	TopKeys      []SampledKey     `json:"top_keys,omitempty"`
	PrefixGroups []PrefixGroup    `json:"prefix_groups,omitempty"`
}

// Direction of a metric between two snapshots.
type Direction string

const (
	DirectionUp        Direction = "up"
	DirectionDown      Direction = "down"
	DirectionUnchanged Direction = "unchanged"
)

type DeltaRow struct {
	Label         string    `json:"label"`
	Previous      float64   `json:"previous"`
	Current       float64   `json:"current"`
	Direction     Direction `json:"direction"`
	IsImprovement bool      `json:"is_improvement"`
}

type Recommendation struct {
	Title   string   `json:"title"`
	Actions []string `json:"actions"`
}
