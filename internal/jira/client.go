// Package jira provides functionality for interacting with the Jira API.
package jira

import (
	"fmt"
	"strings"

	jira "github.com/andygrunwald/go-jira"

	"github.com/issuesync/bridge/internal/config"
	"github.com/issuesync/bridge/internal/logging"
	"github.com/issuesync/bridge/pkg/models"
)

// DefaultIssueType is used when no label maps to a Jira issue type.
const DefaultIssueType = "Bug"

// Client handles interactions with the Jira API.
type Client struct {
	client *jira.Client

	// BaseURL is the browse-facing Jira URL, used to build ticket permalinks.
	BaseURL string
}

// TicketFields carries everything needed to create or update a ticket.
type TicketFields struct {
	ProjectKey  string
	Summary     string
	Description string
	Type        string
	EpicKey     string
	Components  []string
}

// NewClient creates a new Jira client from environment configuration.
func NewClient() (*Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.ValidateJiraConfig(cfg); err != nil {
		return nil, err
	}

	logging.Info("jira configuration",
		"url", cfg.Jira.URL,
		"username", cfg.Jira.Username,
		"token", logging.MaskSensitive(cfg.Jira.Token))

	// Create Jira authentication transport
	tp := jira.BasicAuthTransport{
		Username: cfg.Jira.Username,
		Password: cfg.Jira.Token,
	}

	client, err := jira.NewClient(tp.Client(), cfg.Jira.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	return &Client{
		client:  client,
		BaseURL: strings.TrimRight(cfg.Jira.URL, "/"),
	}, nil
}

// BrowseURL returns the permalink for a ticket key.
func (c *Client) BrowseURL(key string) string {
	return fmt.Sprintf("%s/browse/%s", c.BaseURL, key)
}

// escapeJQL escapes a value for embedding inside a quoted JQL string.
func escapeJQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// FindTicketByMarker searches the project for the ticket whose description
// contains the marker string. The JQL text match is not guaranteed to be
// literal, so every hit is re-verified by substring before being trusted.
// The first verified hit is canonical; additional hits are logged but the
// system does not de-duplicate them.
func (c *Client) FindTicketByMarker(projectKey, marker string) (*models.JiraTicket, error) {
	jql := fmt.Sprintf(`project = "%s" AND description ~ "\"%s\""`, escapeJQL(projectKey), escapeJQL(marker))

	issues, resp, err := c.client.Issue.Search(jql, &jira.SearchOptions{
		MaxResults: 2,
		Fields:     []string{"summary", "description", "issuetype", "status", "components"},
	})
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, fmt.Errorf("failed to search jira issues: %v (status: %d)", err, status)
	}

	var matches []models.JiraTicket
	for _, issue := range issues {
		// The backend search may be fuzzy. Only a literal occurrence of the
		// marker links a ticket to the source issue.
		if !strings.Contains(issue.Fields.Description, marker) {
			continue
		}
		matches = append(matches, toModel(&issue))
	}

	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		logging.Warn("multiple jira tickets carry the same marker, using the first",
			"marker", marker,
			"first", matches[0].Key,
			"count", len(matches))
	}

	return &matches[0], nil
}

// toModel converts a go-jira issue to our internal model.
func toModel(issue *jira.Issue) models.JiraTicket {
	ticket := models.JiraTicket{
		ID:  issue.ID,
		Key: issue.Key,
	}
	if issue.Fields != nil {
		ticket.Summary = issue.Fields.Summary
		ticket.Description = issue.Fields.Description
		ticket.Type = issue.Fields.Type.Name
		if issue.Fields.Status != nil {
			ticket.Status = issue.Fields.Status.Name
		}
		for _, component := range issue.Fields.Components {
			ticket.Components = append(ticket.Components, component.Name)
		}
	}
	return ticket
}

// buildIssueFields assembles the go-jira field struct for create and update.
func buildIssueFields(fields TicketFields) *jira.IssueFields {
	issueFields := &jira.IssueFields{
		Project: jira.Project{
			Key: fields.ProjectKey,
		},
		Summary:     fields.Summary,
		Description: fields.Description,
		Type: jira.IssueType{
			Name: fields.Type,
		},
	}

	if fields.EpicKey != "" {
		issueFields.Parent = &jira.Parent{Key: fields.EpicKey}
	}

	for _, name := range fields.Components {
		issueFields.Components = append(issueFields.Components, &jira.Component{Name: name})
	}

	return issueFields
}

// CreateTicket creates a Jira ticket and returns its key and ID.
func (c *Client) CreateTicket(fields TicketFields) (*models.JiraTicket, error) {
	jiraIssue := &jira.Issue{
		Fields: buildIssueFields(fields),
	}

	newIssue, resp, err := c.client.Issue.Create(jiraIssue)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, fmt.Errorf("failed to create jira ticket: %v (status: %d)", err, status)
	}

	logging.Info("created jira ticket",
		"key", newIssue.Key,
		"project", fields.ProjectKey,
		"type", fields.Type)

	return &models.JiraTicket{
		ID:         newIssue.ID,
		Key:        newIssue.Key,
		Summary:    fields.Summary,
		Type:       fields.Type,
		Components: fields.Components,
	}, nil
}

// UpdateTicket replaces the ticket's summary, description, type and
// components with the given fields.
func (c *Client) UpdateTicket(key string, fields TicketFields) error {
	jiraIssue := &jira.Issue{
		Key:    key,
		Fields: buildIssueFields(fields),
	}

	_, resp, err := c.client.Issue.Update(jiraIssue)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return fmt.Errorf("failed to update jira ticket %s: %v (status: %d)", key, err, status)
	}

	logging.Info("updated jira ticket", "key", key)
	return nil
}

// TransitionTicket moves the ticket to the workflow status with the given
// name. The transition is looked up by its target status first, then by the
// transition's own name, both case-insensitively.
func (c *Client) TransitionTicket(key, statusName string) error {
	transitions, resp, err := c.client.Issue.GetTransitions(key)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return fmt.Errorf("failed to list transitions for %s: %v (status: %d)", key, err, status)
	}

	var transitionID string
	for _, t := range transitions {
		if strings.EqualFold(t.To.Name, statusName) || strings.EqualFold(t.Name, statusName) {
			transitionID = t.ID
			break
		}
	}
	if transitionID == "" {
		return fmt.Errorf("no transition to status %q available on %s", statusName, key)
	}

	_, err = c.client.Issue.DoTransition(key, transitionID)
	if err != nil {
		return fmt.Errorf("failed to transition %s to %q: %v", key, statusName, err)
	}

	logging.Info("transitioned jira ticket", "key", key, "status", statusName)
	return nil
}

// AddTicketComment appends a comment to the ticket.
func (c *Client) AddTicketComment(key, body string) error {
	_, resp, err := c.client.Issue.AddComment(key, &jira.Comment{Body: body})
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return fmt.Errorf("failed to add comment to %s: %v (status: %d)", key, err, status)
	}

	logging.Debug("added jira comment", "key", key)
	return nil
}

// GetProjectComponents returns the names of the components defined in the
// project. Configured components are intersected with this list before being
// set on a ticket, since Jira rejects unknown components.
func (c *Client) GetProjectComponents(projectKey string) ([]string, error) {
	project, resp, err := c.client.Project.Get(projectKey)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, fmt.Errorf("failed to get project %s: %v (status: %d)", projectKey, err, status)
	}

	names := make([]string, 0, len(project.Components))
	for _, component := range project.Components {
		names = append(names, component.Name)
	}
	return names, nil
}
