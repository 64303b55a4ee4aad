package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/afero"

	"github.com/ppiankov/quakelink/internal/model"
	"github.com/ppiankov/quakelink/internal/pipeline"
)

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#0550AE", Dark: "#58A6FF"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"}

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Align(lipgloss.Center)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	warnStyle   = cellStyle.Foreground(colorWarn)
	rule        = strings.Repeat("═", 59)
)

func printHeader(w io.Writer, cfg *model.Config, plan pipeline.Plan) {
	var passes []string
	if plan.Dates {
		passes = append(passes, "dates")
	}
	for _, k := range plan.Kinds() {
		passes = append(passes, string(k))
	}

	target := cfg.Graph.Endpoint
	if cfg.Graph.Backend == "sqlite" {
		target = cfg.Graph.Path
	}

	fmt.Fprintf(w, "\n%s\n  Quakelink Match\n%s\n\n", rule, rule)
	fmt.Fprintf(w, "  Graph:        %s (%s)\n", target, cfg.Graph.Backend)
	fmt.Fprintf(w, "  Passes:       %s\n", strings.Join(passes, ", "))
	fmt.Fprintf(w, "  Enrichment:   %v (cache reads: %v)\n", plan.Enrich, plan.UseCache)
	fmt.Fprintf(w, "\n")
}

// renderSummary prints the per-pass counts as a table
func renderSummary(w io.Writer, r *model.RunReport) {
	fmt.Fprintf(w, "\n%s\n  Run %s\n%s\n\n", rule, r.RunID, rule)

	if d := r.Dates; d != nil {
		fmt.Fprintf(w, "  Dates:  %d seen, %d normalized, %d unchanged, %d unparsable, %d failed\n\n",
			d.Seen, d.Normalized, d.Unchanged, d.Unparsable, d.Failed)
	}

	if len(r.Passes) > 0 {
		rows := make([][]string, 0, len(r.Passes))
		for _, p := range r.Passes {
			rows = append(rows, []string{
				string(p.Kind),
				itoa(p.Candidates),
				itoa(p.Enriched),
				itoa(p.NotFound),
				itoa(p.Pairs),
				itoa(p.Identical),
				itoa(p.CloseMatch),
				itoa(p.Written),
				itoa(p.Failed),
				p.Duration.Round(1e6).String(),
			})
		}

		t := table.New().
			Headers("Kind", "Candidates", "Enriched", "Not found", "Pairs", "Identical", "Close", "Written", "Failed", "Time").
			Rows(rows...).
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 8 && rows[row][col] != "0" {
					return warnStyle
				}
				return cellStyle
			})
		fmt.Fprintln(w, t.String())
	}

	written, failed := r.Totals()
	fmt.Fprintf(w, "\n  Written:  %d\n  Failed:   %d\n  Elapsed:  %s\n",
		written, failed, r.FinishedAt.Sub(r.StartedAt).Round(1e6))
	if r.Aborted != "" {
		fmt.Fprintf(w, "  Aborted:  %s\n", r.Aborted)
	}
	fmt.Fprintln(w)
}

func itoa(n int) string { return strconv.Itoa(n) }

// writeReportJSON writes the run report to path, creating parent directories
func writeReportJSON(fs afero.Fs, path string, r *model.RunReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	return afero.WriteFile(fs, path, data, 0o644)
}
