package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPRunner dispatches verification runs to an external service over
// HTTP. The actual build/test logic lives behind that service.
type HTTPRunner struct {
	client *http.Client
	url    string
}

func NewHTTPRunner(url string, timeout time.Duration) *HTTPRunner {
	return &HTTPRunner{
		client: &http.Client{
			Timeout: timeout,
		},
		url: url,
	}
}

type runRequest struct {
	ProjectName    string `json:"project_name"`
	WorkItemNumber int    `json:"work_item_number"`
	WorkspaceRoot  string `json:"workspace_root"`
}

func (r *HTTPRunner) Run(ctx context.Context, projectName string, workItemNumber int, workspaceRoot string) (*Result, error) {
	body, err := json.Marshal(runRequest{
		ProjectName:    projectName,
		WorkItemNumber: workItemNumber,
		WorkspaceRoot:  workspaceRoot,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "HookPipe/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("verification service returned %d: %s", resp.StatusCode, string(snippet))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode verification result: %w", err)
	}
	switch result.Status {
	case StatusPassed, StatusFailed, StatusPartial:
	default:
		return nil, fmt.Errorf("verification service returned unknown status %q", result.Status)
	}
	return &result, nil
}
