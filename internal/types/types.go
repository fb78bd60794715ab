package types

import (
	"time"
)

type RunKind string

const (
	RunExport RunKind = "export"
	RunImport RunKind = "import"
)

type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one line of the local clone history.
type RunRecord struct {
	ID          int64     `json:"id" yaml:"id"`
	Kind        RunKind   `json:"kind" yaml:"kind"`
	CloneID     string    `json:"clone_id" yaml:"clone_id"`
	Host        string    `json:"host" yaml:"host"`
	TenantID    string    `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty"`
	Identifiers int       `json:"identifiers" yaml:"identifiers"`
	Files       int       `json:"files" yaml:"files"`
	Skipped     int       `json:"skipped" yaml:"skipped"`
	Status      RunStatus `json:"status" yaml:"status"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time `json:"finished_at" yaml:"finished_at"`
}
