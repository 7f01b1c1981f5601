package verify

import "context"

type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusPartial Status = "partial"
)

// Result is the outcome of one verification run against a work item.
type Result struct {
	Status  Status            `json:"status"`
	Summary string            `json:"summary,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Runner is the external verification collaborator. An error return means
// the run itself failed and is recorded as a terminal processing failure;
// a failed verification is a Result with StatusFailed, not an error.
type Runner interface {
	Run(ctx context.Context, projectName string, workItemNumber int, workspaceRoot string) (*Result, error)
}
