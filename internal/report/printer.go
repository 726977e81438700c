// Package report prints merge request outcomes as they happen.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/redhat-data-and-ai/gitlab-util/internal/mergerequest"
)

// Format selects how outcomes are written
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Outcome statuses used in JSON output
const (
	StatusCreated = "created"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusDryRun  = "dry-run"
)

// ParseFormat accepts "text" or "json", case-insensitive. Empty means text.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatText):
		return FormatText, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", value)
	}
}

// Record is the JSON shape of one outcome, written one object per line
type Record struct {
	TargetBranch string `json:"target_branch"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	ID           int    `json:"id,omitempty"`
	Link         string `json:"link,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SummaryRecord is the JSON shape of the closing summary line
type SummaryRecord struct {
	Created int `json:"created"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	DryRun  int `json:"dry_run,omitempty"`
}

// Printer writes outcomes to out. It implements mergerequest.Reporter.
type Printer struct {
	out    io.Writer
	format Format
}

var _ mergerequest.Reporter = (*Printer)(nil)

// NewPrinter creates a printer; an unknown format falls back to text
func NewPrinter(out io.Writer, format Format) *Printer {
	if format != FormatJSON {
		format = FormatText
	}
	return &Printer{out: out, format: format}
}

// Report writes a single outcome
func (p *Printer) Report(outcome mergerequest.BranchOutcome) error {
	if p.format == FormatJSON {
		return p.writeJSON(NewRecord(outcome))
	}

	var line string
	switch {
	case outcome.Succeeded():
		line = fmt.Sprintf("[%s] merge request %d created: %s", outcome.TargetBranch, outcome.Result.ID, outcome.Result.Link)
	case outcome.DryRun:
		line = fmt.Sprintf("[%s] dry run: would create %q", outcome.TargetBranch, outcome.Title)
	case outcome.Skipped:
		line = fmt.Sprintf("[%s] skipped", outcome.TargetBranch)
	default:
		line = fmt.Sprintf("[%s] failed: %v", outcome.TargetBranch, outcome.Err)
	}

	_, err := fmt.Fprintln(p.out, line)
	return err
}

// Summary writes totals for the batch. Nothing is written for an empty batch.
func (p *Printer) Summary(batch *mergerequest.Batch) error {
	if batch == nil || len(batch.Outcomes) == 0 {
		return nil
	}

	summary := SummaryRecord{
		Created: len(batch.Results()),
		Failed:  len(batch.Failed()),
		Skipped: len(batch.Skipped()),
	}
	for _, outcome := range batch.Outcomes {
		if outcome.DryRun {
			summary.DryRun++
		}
	}

	if p.format == FormatJSON {
		return p.writeJSON(struct {
			Summary SummaryRecord `json:"summary"`
		}{summary})
	}

	line := fmt.Sprintf("%d created, %d failed, %d skipped", summary.Created, summary.Failed, summary.Skipped)
	if summary.DryRun > 0 {
		line = fmt.Sprintf("%s, %d dry run", line, summary.DryRun)
	}
	_, err := fmt.Fprintln(p.out, line)
	return err
}

// NewRecord converts an outcome to its JSON shape
func NewRecord(outcome mergerequest.BranchOutcome) Record {
	record := Record{
		TargetBranch: outcome.TargetBranch,
		Title:        outcome.Title,
	}

	switch {
	case outcome.Succeeded():
		record.Status = StatusCreated
		record.ID = outcome.Result.ID
		record.Link = outcome.Result.Link
	case outcome.DryRun:
		record.Status = StatusDryRun
	case outcome.Skipped:
		record.Status = StatusSkipped
	default:
		record.Status = StatusFailed
		if outcome.Err != nil {
			record.Error = outcome.Err.Error()
		}
	}
	return record
}

func (p *Printer) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')
	_, err = p.out.Write(data)
	return err
}
