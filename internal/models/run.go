package models

import "time"

// StageSummary aggregates per-record outcomes for one pipeline stage.
type StageSummary struct {
	Stage     string   `json:"stage"`
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Errors    int      `json:"errors"`
	Messages  []string `json:"messages,omitempty"`
}

// Add folds another summary for the same stage into this one.
func (s *StageSummary) Add(other StageSummary) {
	s.Processed += other.Processed
	s.Created += other.Created
	s.Updated += other.Updated
	s.Skipped += other.Skipped
	s.Errors += other.Errors
	s.Messages = append(s.Messages, other.Messages...)
}

// RunSummary is the consolidated result of one orchestrated ingestion run.
// It is the unit surfaced to operational logging and to triggering callers.
type RunSummary struct {
	RunID         string         `json:"runId"`
	JobType       string         `json:"jobType"`
	Season        string         `json:"season"`
	Stages        []StageSummary `json:"stages"`
	SkippedStages []string       `json:"skippedStages,omitempty"`
	TotalAPICalls int            `json:"totalApiCalls"`
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
	StartedAt     time.Time      `json:"startedAt"`
	CompletedAt   time.Time      `json:"completedAt"`
}

// Totals folds every stage into one run-level summary. Per-record messages
// are not carried over.
func (r *RunSummary) Totals() StageSummary {
	var total StageSummary
	for _, stage := range r.Stages {
		total.Add(stage)
	}
	total.Messages = nil
	return total
}

// Stage returns the summary for a named stage, nil when absent.
func (r *RunSummary) Stage(name string) *StageSummary {
	for i := range r.Stages {
		if r.Stages[i].Stage == name {
			return &r.Stages[i]
		}
	}
	return nil
}
