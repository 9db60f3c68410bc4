// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/issuesync/bridge/internal/config"
	"github.com/issuesync/bridge/internal/logging"
	"github.com/issuesync/bridge/pkg/models"
)

// Client encapsulates the GitHub API client.
type Client struct {
	client *github.Client
}

// ValidateSignature checks that a webhook payload was signed with the shared
// secret. signature is the value of the X-Hub-Signature-256 header. A missing
// or mismatched signature yields an error; the caller must reject the request.
func ValidateSignature(signature string, payload, secret []byte) error {
	if signature == "" {
		return fmt.Errorf("x-hub-signature-256 header is missing")
	}
	if err := github.ValidateSignature(signature, payload, secret); err != nil {
		return fmt.Errorf("request signature didn't match: %w", err)
	}
	return nil
}

// NewClient creates a new GitHub API client using configuration from environment variables.
// It initializes the client with the appropriate base URL, authenticates with the GitHub API,
// and tests the connection. It returns the configured client or an error if initialization fails.
func NewClient() (*Client, error) {
	config, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate GitHub configuration
	token := config.GitHub.Token
	if token == "" {
		return nil, fmt.Errorf("github token not found in configuration")
	}

	// Get domain from config, default to github.com
	domain := config.GitHub.Domain
	if domain == "" {
		domain = "github.com"
	}

	// Construct API URL based on domain
	var apiURL string
	if domain == "github.com" {
		apiURL = "https://api.github.com/"
	} else {
		apiURL = fmt.Sprintf("https://%s/api/v3/", domain)
	}

	logging.Info("github configuration",
		"domain", domain,
		"api_url", apiURL,
		"token", logging.MaskSensitive(token))

	// Create the oauth2 client
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	// Create GitHub client with custom base URL
	client := github.NewClient(tc)

	// If not using default GitHub.com, set custom API endpoint
	if domain != "github.com" {
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}

		client.BaseURL = parsedURL

		// For GitHub Enterprise, set the upload URL to the same endpoint
		client.UploadURL = parsedURL
	}

	// Test the token
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, resp, err := client.Users.Get(ctx, "")
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		logging.Error("failed to test github token",
			"error", err,
			"status_code", status)
		return nil, fmt.Errorf("error testing github token: %w", err)
	}

	logging.Info("github authentication successful",
		"username", *user.Login)

	return &Client{client: client}, nil
}

// splitRepository parses an "owner/repo" string.
func splitRepository(repository string) (string, string, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid repository format: %s, expected format: owner/repo", repository)
	}
	return parts[0], parts[1], nil
}

// GetIssue retrieves a single issue from a GitHub repository and converts it
// to our internal model. The repository should be in the format "owner/repo".
func (c *Client) GetIssue(repository string, issueNumber int) (models.GitHubIssue, error) {
	owner, repo, err := splitRepository(repository)
	if err != nil {
		return models.GitHubIssue{}, err
	}

	ctx := context.Background()

	issue, resp, err := c.client.Issues.Get(ctx, owner, repo, issueNumber)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		logging.Error("failed to get github issue",
			"repository", repository,
			"issue_number", issueNumber,
			"error", err,
			"status_code", status)
		return models.GitHubIssue{}, fmt.Errorf("failed to get GitHub issue: %v", err)
	}

	labels := make([]models.Label, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, models.Label{Name: label.GetName()})
	}

	result := models.GitHubIssue{
		Number:  issue.GetNumber(),
		Title:   issue.GetTitle(),
		Body:    issue.GetBody(),
		HTMLURL: issue.GetHTMLURL(),
		User:    models.User{Login: issue.GetUser().GetLogin()},
		State:   issue.GetState(),
		Labels:  labels,
	}
	if issue.PullRequestLinks != nil {
		result.PullRequest = &models.PullRequestLinks{URL: issue.PullRequestLinks.GetURL()}
	}

	return result, nil
}

// AddLabels adds one or more labels to a GitHub issue. If the labels don't exist
// in the repository, GitHub will automatically create them. The repository should be
// in the format "owner/repo". It returns an error if the operation fails.
func (c *Client) AddLabels(repository string, issueNumber int, labels ...string) error {
	owner, repo, err := splitRepository(repository)
	if err != nil {
		return err
	}

	ctx := context.Background()

	logging.Debug("adding labels", "labels", labels, "issue_number", issueNumber)

	// GitHub will automatically create labels that don't exist
	_, _, err = c.client.Issues.AddLabelsToIssue(ctx, owner, repo, issueNumber, labels)
	if err != nil {
		logging.Error("error adding labels to issue", "repository", repository, "issue_number", issueNumber, "error", err)
		return fmt.Errorf("failed to add labels to issue %s#%d: %v", repo, issueNumber, err)
	}

	logging.Debug("successfully added labels", "labels", labels, "repository", repository, "issue_number", issueNumber)
	return nil
}

// AddComment posts a comment on a GitHub issue. The repository should be in
// the format "owner/repo". It returns an error if the operation fails.
func (c *Client) AddComment(repository string, issueNumber int, body string) error {
	owner, repo, err := splitRepository(repository)
	if err != nil {
		return err
	}

	ctx := context.Background()

	logging.Debug("adding comment", "repository", repository, "issue_number", issueNumber)

	_, _, err = c.client.Issues.CreateComment(ctx, owner, repo, issueNumber, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		logging.Error("error adding comment to issue", "repository", repository, "issue_number", issueNumber, "error", err)
		return fmt.Errorf("failed to add comment to issue %s#%d: %v", repo, issueNumber, err)
	}

	return nil
}

// GetFileContents retrieves a file from the repository's default branch and
// returns its decoded contents. The repository should be in the format
// "owner/repo". A missing file is reported as an error.
func (c *Client) GetFileContents(repository, path string) ([]byte, error) {
	owner, repo, err := splitRepository(repository)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()

	fileContent, _, _, err := c.client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		logging.Debug("failed to fetch repository file",
			"repository", repository,
			"path", path,
			"error", err)
		return nil, fmt.Errorf("failed to fetch %s from %s: %v", path, repository, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("%s in %s is not a file", path, repository)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s from %s: %v", path, repository, err)
	}

	return []byte(content), nil
}
