package classify

import "strings"

// EventTypeIssueComment is the origin event type for comments on issues
// and pull requests.
const EventTypeIssueComment = "issue_comment"

// completionPhrases gate the trigger decision: a comment only dispatches
// verification when its lowercased body contains one of these.
var completionPhrases = []string{
	"✅ implementation complete",
	"implementation complete",
	"pr created",
	"pull request created",
	"work completed",
}

// Result is the classification of one delivery. ProjectName is nil when
// the repository is not mapped to a project; such events are stored but
// never dispatched.
type Result struct {
	ProjectName    *string
	WorkItemNumber *int
	Trigger        bool
}

// Classifier maps raw deliveries to projects and decides whether an event
// should trigger verification. The trigger policy is deliberately
// conservative: only issue comments from allow-listed automation accounts
// containing a completion phrase qualify.
type Classifier struct {
	projects       map[string]string
	allowedAuthors map[string]struct{}
}

func NewClassifier(projects map[string]string, allowedAuthors []string) *Classifier {
	authors := make(map[string]struct{}, len(allowedAuthors))
	for _, a := range allowedAuthors {
		authors[a] = struct{}{}
	}
	return &Classifier{
		projects:       projects,
		allowedAuthors: authors,
	}
}

func (c *Classifier) Classify(eventType string, p *Payload) Result {
	var res Result

	if name, ok := c.projects[p.Repository.Name]; ok {
		res.ProjectName = &name
	}

	if p.Issue != nil {
		n := p.Issue.Number
		res.WorkItemNumber = &n
	} else if p.PullRequest != nil {
		n := p.PullRequest.Number
		res.WorkItemNumber = &n
	}

	res.Trigger = c.shouldTrigger(eventType, p)
	return res
}

func (c *Classifier) shouldTrigger(eventType string, p *Payload) bool {
	if eventType != EventTypeIssueComment || p.Comment == nil {
		return false
	}
	if _, ok := c.allowedAuthors[p.Comment.User.Login]; !ok {
		return false
	}
	body := strings.ToLower(p.Comment.Body)
	for _, phrase := range completionPhrases {
		if strings.Contains(body, phrase) {
			return true
		}
	}
	return false
}
