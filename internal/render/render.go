// Package render turns a completed report into terminal output: a
// severity-colored human view, or a plain JSON document for machine
// consumption.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/illenko/redisdoctor/pkg/models"
)

var (
	colorOK      = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6C7A89")

	styleTitle   = lipgloss.NewStyle().Bold(true)
	styleOK      = lipgloss.NewStyle().Foreground(colorOK)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning)
	styleError   = lipgloss.NewStyle().Foreground(colorError)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleHeader  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

type Renderer struct {
	out      io.Writer
	jsonMode bool
}

func New(out io.Writer, jsonMode bool) *Renderer {
	return &Renderer{out: out, jsonMode: jsonMode}
}

type document struct {
	*models.Report
	Deltas          []models.DeltaRow       `json:"deltas,omitempty"`
	Recommendations []models.Recommendation `json:"recommendations,omitempty"`
}

// Report emits the full analysis result in the active output form.
func (r *Renderer) Report(report *models.Report, deltas []models.DeltaRow, recs []models.Recommendation) error {
	if r.jsonMode {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(document{Report: report, Deltas: deltas, Recommendations: recs})
	}

	fmt.Fprintln(r.out, styleHeader.Render(fmt.Sprintf("redisdoctor  %s  %s",
		report.ServerIdentity, report.Timestamp.Format("2006-01-02 15:04:05"))))
	fmt.Fprintln(r.out)

	for _, section := range report.Sections() {
		r.section(section)
	}
	if len(deltas) > 0 {
		r.deltas(deltas)
	}
	if len(recs) > 0 {
		r.recommendations(recs)
	}

	status := report.Status()
	fmt.Fprintf(r.out, "%s  %d warning(s), %d critical(s)\n",
		severityStyle(status).Render(strings.ToUpper(string(status))),
		report.Summary.WarningCount, report.Summary.CriticalCount)
	return nil
}

func (r *Renderer) section(s *models.Section) {
	fmt.Fprintf(r.out, "%s %s\n", severityIcon(s.Status), styleTitle.Render(s.Title))

	names := make([]string, 0, len(s.Metrics))
	for name := range s.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(r.out, "    %-26s %s\n", name, formatMetric(name, s.Metrics[name]))
	}
	for name, value := range s.Details {
		fmt.Fprintf(r.out, "    %-26s %s\n", name, styleMuted.Render(value))
	}
	for _, f := range s.Findings {
		fmt.Fprintf(r.out, "    %s %s\n", severityIcon(f.Severity), severityStyle(f.Severity).Render(f.Message))
	}
	if s.Sample != nil {
		r.sample(s.Sample)
	}
	fmt.Fprintln(r.out)
}

func (r *Renderer) sample(sample *models.SampleSummary) {
	if sample.SampledKeys == 0 {
		return
	}
	fmt.Fprintf(r.out, "    sampled %d of %d keys\n", sample.SampledKeys, sample.TotalKeys)

	if len(sample.TypeCounts) > 0 {
		fmt.Fprintln(r.out, styleMuted.Render("    by type:"))
		for _, name := range sortedKeys(sample.TypeCounts) {
			fmt.Fprintf(r.out, "      %-12s %6d keys  %10s\n",
				name, sample.TypeCounts[name], humanize.IBytes(uint64(sample.TypeBytes[name])))
		}
	}
	if len(sample.TTLBuckets) > 0 {
		fmt.Fprintln(r.out, styleMuted.Render("    by TTL:"))
		for _, bucket := range []string{
			models.TTLBucketNone, models.TTLBucketHour, models.TTLBucketDay,
			models.TTLBucketWeek, models.TTLBucketLonger,
		} {
			if n, ok := sample.TTLBuckets[bucket]; ok {
				fmt.Fprintf(r.out, "      %-12s %6d keys\n", bucket, n)
			}
		}
	}
	if len(sample.TopKeys) > 0 {
		fmt.Fprintln(r.out, styleMuted.Render("    largest keys:"))
		for _, k := range sample.TopKeys {
			fmt.Fprintf(r.out, "      %-40s %-8s %10s\n",
				truncate(k.Key, 40), k.Type, humanize.IBytes(uint64(k.SizeBytes)))
		}
	}
	if len(sample.PrefixGroups) > 0 {
		fmt.Fprintln(r.out, styleMuted.Render("    by prefix:"))
		for _, g := range sample.PrefixGroups {
			fmt.Fprintf(r.out, "      %-24s %6d keys  %10s\n",
				truncate(g.Prefix, 24), g.KeyCount, humanize.IBytes(uint64(g.TotalBytes)))
		}
	}
}

// Deltas emits a standalone comparison table (compare mode).
func (r *Renderer) Deltas(rows []models.DeltaRow) error {
	if r.jsonMode {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	r.deltas(rows)
	return nil
}

func (r *Renderer) deltas(rows []models.DeltaRow) {
	fmt.Fprintln(r.out, styleTitle.Render("Changes since baseline"))
	for _, row := range rows {
		arrow := "→"
		style := styleMuted
		switch row.Direction {
		case models.DirectionUp:
			arrow = "↑"
		case models.DirectionDown:
			arrow = "↓"
		}
		if row.Direction != models.DirectionUnchanged {
			if row.IsImprovement {
				style = styleOK
			} else {
				style = styleWarning
			}
		}
		fmt.Fprintf(r.out, "    %-24s %14s %s %s\n",
			row.Label,
			formatMetric(row.Label, row.Previous),
			style.Render(arrow),
			style.Render(formatMetric(row.Label, row.Current)))
	}
	fmt.Fprintln(r.out)
}

func (r *Renderer) recommendations(recs []models.Recommendation) {
	fmt.Fprintln(r.out, styleTitle.Render("Recommendations"))
	for _, rec := range recs {
		fmt.Fprintf(r.out, "    • %s\n", rec.Title)
		for _, action := range rec.Actions {
			fmt.Fprintf(r.out, "        - %s\n", action)
		}
	}
	fmt.Fprintln(r.out)
}

func severityIcon(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return styleError.Render("✗")
	case models.SeverityWarning:
		return styleWarning.Render("⚠")
	default:
		return styleOK.Render("✓")
	}
}

func severityStyle(s models.Severity) lipgloss.Style {
	switch s {
	case models.SeverityCritical:
		return styleError
	case models.SeverityWarning:
		return styleWarning
	default:
		return styleOK
	}
}

// formatMetric picks a human unit from the metric name.
func formatMetric(name string, value float64) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "bytes") || strings.Contains(lower, "memory") && !strings.Contains(lower, "%"):
		return humanize.IBytes(uint64(value))
	case strings.Contains(lower, "pct") || strings.Contains(lower, "%"):
		return fmt.Sprintf("%.1f%%", value)
	case strings.Contains(lower, "ratio"):
		return fmt.Sprintf("%.2f", value)
	default:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%.2f", value)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
