package model

import "time"

// RunReport summarizes one matching run
type RunReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Dates      *DatePass     `json:"dates,omitempty"`
	Passes     []PassSummary `json:"passes"`
	Aborted    string        `json:"aborted,omitempty"`
}

// DatePass counts the outcome of the date-normalization pass
type DatePass struct {
	Seen       int `json:"seen"`
	Normalized int `json:"normalized"`
	// Unchanged values were already normalized and left alone.
	Unchanged  int `json:"unchanged"`
	Unparsable int `json:"unparsable"`
	Failed     int `json:"failed"`
}

// PassSummary counts what happened during one entity-kind pass
type PassSummary struct {
	Kind       Kind          `json:"kind"`
	Candidates int           `json:"candidates"`
	Enriched   int           `json:"enriched"`
	NotFound   int           `json:"not_found"`
	LinkFailed int           `json:"link_failed"`
	Pairs      int           `json:"pairs"`
	Identical  int           `json:"identical"`
	CloseMatch int           `json:"close_match"`
	Written    int           `json:"written"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

// Totals sums written and failed assertions across passes
func (r *RunReport) Totals() (written, failed int) {
	for _, p := range r.Passes {
		written += p.Written
		failed += p.Failed
	}
	return written, failed
}
