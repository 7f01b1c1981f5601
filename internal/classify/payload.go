package classify

import (
	"encoding/json"
	"strings"
)

// Payload is the narrow projection of a GitHub webhook body the pipeline
// needs. Everything else in the delivery is ignored here and preserved
// verbatim on the stored event.
type Payload struct {
	Repository struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"repository"`
	Issue *struct {
		Number int `json:"number"`
	} `json:"issue"`
	PullRequest *struct {
		Number int `json:"number"`
	} `json:"pull_request"`
	Comment *struct {
		Body string `json:"body"`
		User struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"comment"`
}

func ParsePayload(raw []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// OwnerRepo splits the repository full name ("owner/repo"). ok is false
// when the payload carries no usable full name.
func (p *Payload) OwnerRepo() (owner, repo string, ok bool) {
	parts := strings.SplitN(p.Repository.FullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
