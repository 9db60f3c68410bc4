package sync

import (
	"fmt"
	"strings"

	"github.com/issuesync/bridge/internal/config"
	"github.com/issuesync/bridge/pkg/models"
)

// markerTemplate is the fixed, parseable line embedded in every created
// ticket's description. Searching for it is the only linkage between a Jira
// ticket and its originating GitHub issue; no local mapping table exists.
const markerTemplate = "This issue was created from GitHub Issue %s"

// Marker builds the linkage line for an issue's canonical URL.
func Marker(htmlURL string) string {
	return fmt.Sprintf(markerTemplate, htmlURL)
}

// buildDescription assembles the ticket description: the marker line,
// author attribution, and (when description sync is on) the rendered issue
// body. The marker must stay at the top and must never be rewritten, or the
// relink search breaks.
func buildDescription(issue *models.GitHubIssue, cfg *config.SyncConfig, marker string, render func(string) string) string {
	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Reported by: %s", issue.User.Login)

	if cfg.SyncDescription && strings.TrimSpace(issue.Body) != "" {
		b.WriteString("\n\n----\n\n")
		b.WriteString(render(issue.Body))
	}

	return b.String()
}
