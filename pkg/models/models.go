// Package models defines data structures shared across the application.
package models

// Event is a single GitHub webhook delivery, decoded once at the HTTP
// boundary. Business logic only ever sees this struct, never the raw payload.
type Event struct {
	// Action is the webhook action: opened, edited, closed, reopened or
	// labeled for issue events, created/edited/deleted for comment events.
	// Empty when the delivery is not an issue action at all.
	Action string `json:"action"`

	// Sender is the GitHub account that triggered the delivery.
	Sender User `json:"sender"`

	// Repository identifies the repository the event originated from.
	Repository Repository `json:"repository"`

	// Issue is the issue the event concerns. Nil for deliveries that do not
	// carry an issue (e.g. ping events).
	Issue *GitHubIssue `json:"issue"`

	// Comment is set for issue_comment deliveries.
	Comment *Comment `json:"comment"`

	// Label is set for labeled/unlabeled deliveries and names the label
	// that was applied or removed.
	Label *Label `json:"label"`
}

// User is a GitHub account reference.
type User struct {
	Login string `json:"login"`
}

// Repository identifies a GitHub repository.
type Repository struct {
	Name  string `json:"name"`
	Owner User   `json:"owner"`
}

// Label is a GitHub issue label.
type Label struct {
	Name string `json:"name"`
}

// Comment is a comment on a GitHub issue.
type Comment struct {
	Body string `json:"body"`
	User User   `json:"user"`
}

// GitHubIssue represents a GitHub issue with its essential fields.
type GitHubIssue struct {
	// Number is the issue number in GitHub (e.g., 42)
	Number int `json:"number"`

	// Title is the issue's title or summary
	Title string `json:"title"`

	// Body is the full markdown body of the issue
	Body string `json:"body"`

	// HTMLURL is the canonical browser URL of the issue. It is embedded in
	// the Jira ticket description and is the sole linkage between the two.
	HTMLURL string `json:"html_url"`

	// User is the issue author
	User User `json:"user"`

	// State is the current state of the issue ("open" or "closed")
	State string `json:"state"`

	// StateReason is set when the issue was closed ("completed",
	// "not_planned" or "reopened")
	StateReason string `json:"state_reason"`

	// Labels is the set of labels currently attached to the issue
	Labels []Label `json:"labels"`

	// PullRequest is non-nil when this "issue" is actually a pull request.
	// The issues API returns PRs too; we never sync those.
	PullRequest *PullRequestLinks `json:"pull_request"`
}

// PullRequestLinks marks an issue payload as belonging to a pull request.
type PullRequestLinks struct {
	URL string `json:"url"`
}

// LabelNames returns the issue's label names in payload order.
func (i *GitHubIssue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}

// JiraTicket represents a Jira ticket with its key properties.
type JiraTicket struct {
	// ID is Jira's internal issue ID (e.g., "10042")
	ID string

	// Key is the full Jira ticket identifier (e.g., "ABC-123")
	Key string

	// Summary is the ticket's summary field
	Summary string

	// Description is the full body text of the ticket
	Description string

	// Type is the Jira issue type (e.g., "Bug", "Story", "Task")
	Type string

	// Status is the name of the ticket's current workflow status
	Status string

	// Components is the names of the components currently set on the ticket
	Components []string
}
