package jira

import (
	"strings"
	"testing"

	jira "github.com/andygrunwald/go-jira"
)

func TestEscapeJQL(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain value",
			input:    "This issue was created from GitHub Issue https://github.com/org/repo/issues/1",
			expected: "This issue was created from GitHub Issue https://github.com/org/repo/issues/1",
		},
		{
			name:     "Embedded quotes",
			input:    `a "quoted" value`,
			expected: `a \"quoted\" value`,
		},
		{
			name:     "Backslashes escaped before quotes",
			input:    `back\slash "x"`,
			expected: `back\\slash \"x\"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := escapeJQL(tc.input); got != tc.expected {
				t.Errorf("escapeJQL(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestBrowseURL(t *testing.T) {
	client := &Client{BaseURL: "https://example.atlassian.net"}

	got := client.BrowseURL("PROJ-42")
	want := "https://example.atlassian.net/browse/PROJ-42"
	if got != want {
		t.Errorf("BrowseURL = %q, want %q", got, want)
	}
}

func TestToModel(t *testing.T) {
	issue := &jira.Issue{
		ID:  "10042",
		Key: "PROJ-42",
		Fields: &jira.IssueFields{
			Summary:     "Something broke",
			Description: "Details about the breakage",
			Type:        jira.IssueType{Name: "Bug"},
			Status:      &jira.Status{Name: "To Do"},
			Components: []*jira.Component{
				{Name: "api"},
				{Name: "backend"},
			},
		},
	}

	ticket := toModel(issue)

	if ticket.ID != "10042" || ticket.Key != "PROJ-42" {
		t.Errorf("Unexpected identifiers: ID=%q Key=%q", ticket.ID, ticket.Key)
	}
	if ticket.Summary != "Something broke" {
		t.Errorf("Unexpected summary: %q", ticket.Summary)
	}
	if ticket.Type != "Bug" {
		t.Errorf("Unexpected type: %q", ticket.Type)
	}
	if ticket.Status != "To Do" {
		t.Errorf("Unexpected status: %q", ticket.Status)
	}
	if len(ticket.Components) != 2 || ticket.Components[0] != "api" || ticket.Components[1] != "backend" {
		t.Errorf("Unexpected components: %v", ticket.Components)
	}
}

func TestToModelWithoutFields(t *testing.T) {
	ticket := toModel(&jira.Issue{ID: "1", Key: "PROJ-1"})

	if ticket.Key != "PROJ-1" {
		t.Errorf("Unexpected key: %q", ticket.Key)
	}
	if ticket.Summary != "" || ticket.Status != "" {
		t.Errorf("Expected zero fields, got summary=%q status=%q", ticket.Summary, ticket.Status)
	}
}

func TestBuildIssueFields(t *testing.T) {
	fields := buildIssueFields(TicketFields{
		ProjectKey:  "PROJ",
		Summary:     "Crash on startup",
		Description: "stack trace attached",
		Type:        "Task",
		Components:  []string{"api", "backend"},
	})

	if fields.Project.Key != "PROJ" {
		t.Errorf("Unexpected project key: %q", fields.Project.Key)
	}
	if fields.Summary != "Crash on startup" {
		t.Errorf("Unexpected summary: %q", fields.Summary)
	}
	if fields.Type.Name != "Task" {
		t.Errorf("Unexpected type: %q", fields.Type.Name)
	}
	if fields.Parent != nil {
		t.Errorf("Expected no parent, got %v", fields.Parent)
	}
	if len(fields.Components) != 2 || fields.Components[0].Name != "api" || fields.Components[1].Name != "backend" {
		t.Errorf("Unexpected components: %v", fields.Components)
	}
}

func TestBuildIssueFieldsWithEpic(t *testing.T) {
	fields := buildIssueFields(TicketFields{
		ProjectKey: "PROJ",
		Summary:    "Child work item",
		Type:       "Story",
		EpicKey:    "PROJ-100",
	})

	if fields.Parent == nil || fields.Parent.Key != "PROJ-100" {
		t.Errorf("Expected parent PROJ-100, got %v", fields.Parent)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("WEBHOOK_SECRET", "test-secret")
	t.Setenv("JIRA_URL", "")
	t.Setenv("JIRA_USERNAME", "test@example.com")
	t.Setenv("JIRA_TOKEN", "test-token")

	_, err := NewClient()
	if err == nil {
		t.Fatal("Expected error when JIRA_URL is unset, got nil")
	}
	if !strings.Contains(err.Error(), "JIRA_URL") {
		t.Errorf("Error should mention JIRA_URL: %v", err)
	}
}
