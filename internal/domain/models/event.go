package models

import "time"

// OutcomeEvent is the audit record published for every invocation.
type OutcomeEvent struct {
	ID          string      `json:"id"`
	Kind        Kind        `json:"kind"`
	Params      []Param     `json:"params"`
	Outcome     string      `json:"outcome"`
	FailureKind FailureKind `json:"failure_kind,omitempty"`
	Detail      string      `json:"detail,omitempty"`
	Cached      bool        `json:"cached"`
	DurationMs  int64       `json:"duration_ms"`
	At          time.Time   `json:"at"`
}
