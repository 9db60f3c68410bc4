package sync

import (
	"fmt"
	"strings"

	"github.com/issuesync/bridge/internal/config"
	jiraclient "github.com/issuesync/bridge/internal/jira"
	"github.com/issuesync/bridge/internal/logging"
	"github.com/issuesync/bridge/internal/markup"
	"github.com/issuesync/bridge/pkg/models"
)

// TicketService is the subset of the Jira client the reconciler needs.
type TicketService interface {
	FindTicketByMarker(projectKey, marker string) (*models.JiraTicket, error)
	CreateTicket(fields jiraclient.TicketFields) (*models.JiraTicket, error)
	UpdateTicket(key string, fields jiraclient.TicketFields) error
	TransitionTicket(key, statusName string) error
	AddTicketComment(key, body string) error
	GetProjectComponents(projectKey string) ([]string, error)
	BrowseURL(key string) string
}

// SourceService is the subset of the GitHub client the reconciler needs.
type SourceService interface {
	GetIssue(repository string, issueNumber int) (models.GitHubIssue, error)
	AddLabels(repository string, issueNumber int, labels ...string) error
	AddComment(repository string, issueNumber int, body string) error
}

// Reconciler holds no state between invocations. The remote marker search is
// the sole idempotency mechanism: ticket existence is re-queried on every
// event, and the system keeps no local record of what it has created.
type Reconciler struct {
	Tickets TicketService
	Source  SourceService

	// Render converts GitHub markdown to Jira wiki markup, truncating
	// oversized bodies. Swappable in tests.
	Render func(string) string
}

// NewReconciler wires a reconciler with the default renderer.
func NewReconciler(tickets TicketService, source SourceService) *Reconciler {
	return &Reconciler{
		Tickets: tickets,
		Source:  source,
		Render:  markup.RenderBody,
	}
}

// Reconcile performs exactly one state transition for the event: create,
// update, transition or comment. Collaborator failures propagate to the
// caller; the event is processed at most once per delivery and redelivery
// policy belongs to the webhook sender.
func (r *Reconciler) Reconcile(event *models.Event, cfg *config.SyncConfig, intent Intent) (Outcome, error) {
	issue := event.Issue
	marker := Marker(issue.HTMLURL)

	ticket, err := r.Tickets.FindTicketByMarker(cfg.JiraProjectKey, marker)
	if err != nil {
		return Outcome{}, fmt.Errorf("idempotency search failed: %w", err)
	}

	if ticket == nil {
		// Never create a ticket for an issue that is already closed. This
		// covers both the closed action itself and any other event, such as
		// a comment, whose issue payload reports the closed state.
		if event.Action == "closed" || issue.State == "closed" {
			return Outcome{Kind: OutcomeNoAction, Message: MsgClosedNoTicket}, nil
		}
		return r.create(event, cfg, intent, marker)
	}

	switch event.Action {
	case "closed":
		target := cfg.StatusMapping.Closed
		message := MsgClosed
		if issue.StateReason == "not_planned" {
			target = cfg.StatusMapping.NotPlanned
			message = MsgClosedNotPlanned
		}
		if err := r.Tickets.TransitionTicket(ticket.Key, target); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: OutcomeTransitioned, Message: message, Ticket: ticket}, nil

	case "reopened":
		if err := r.Tickets.TransitionTicket(ticket.Key, cfg.StatusMapping.Opened); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: OutcomeTransitioned, Message: MsgReopened, Ticket: ticket}, nil

	case "edited":
		fields, err := r.buildFields(event, cfg, marker, ticket)
		if err != nil {
			return Outcome{}, err
		}
		if err := r.Tickets.UpdateTicket(ticket.Key, fields); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: OutcomeUpdated, Message: MsgUpdated, Ticket: ticket}, nil
	}

	// "labeled" events and qualifying comment events end up here.
	if intent.Kind == IntentComment && cfg.SyncComments && event.Comment != nil {
		if err := r.Tickets.AddTicketComment(ticket.Key, r.commentBody(event.Comment)); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: OutcomeCommentAdded, Message: MsgCommentAdded, Ticket: ticket}, nil
	}

	return Outcome{Kind: OutcomeNoAction, Message: MsgNoAction, Ticket: ticket}, nil
}

// create builds the ticket, then performs the optional follow-up writes:
// synced label, backlink comment on the GitHub issue, and for comment events
// the comment that triggered creation. Follow-up failures after a successful
// create are logged, not propagated: the mutating action of this delivery
// has happened, and a redelivery would find the ticket and not create twice.
func (r *Reconciler) create(event *models.Event, cfg *config.SyncConfig, intent Intent, marker string) (Outcome, error) {
	issue := event.Issue
	repository := event.Repository.Owner.Login + "/" + event.Repository.Name

	// The payload snapshot can be stale by the time the delivery is
	// processed. Re-read the issue so one that closed in the meantime never
	// gets a ticket.
	current, err := r.Source.GetIssue(repository, issue.Number)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to fetch issue %s#%d: %w", repository, issue.Number, err)
	}
	if current.State == "closed" {
		return Outcome{Kind: OutcomeNoAction, Message: MsgClosedNoTicket}, nil
	}

	fields, err := r.buildFields(event, cfg, marker, nil)
	if err != nil {
		return Outcome{}, err
	}

	ticket, err := r.Tickets.CreateTicket(fields)
	if err != nil {
		return Outcome{}, err
	}

	if cfg.AddSyncedLabel {
		if err := r.Source.AddLabels(repository, issue.Number, SyncedLabel); err != nil {
			logging.Error("ticket created but synced label could not be applied",
				"ticket", ticket.Key,
				"repository", repository,
				"issue_number", issue.Number,
				"error", err)
		}
	}

	if cfg.AddGitHubComment {
		body := fmt.Sprintf("Thank you for reporting your issue!\n\nThe corresponding Jira ticket was created: [%s](%s)",
			ticket.Key, r.Tickets.BrowseURL(ticket.Key))
		if err := r.Source.AddComment(repository, issue.Number, body); err != nil {
			logging.Error("ticket created but backlink comment could not be posted",
				"ticket", ticket.Key,
				"repository", repository,
				"issue_number", issue.Number,
				"error", err)
		}
	}

	outcome := Outcome{Kind: OutcomeCreated, Message: MsgCreated, Ticket: ticket}

	// A comment on an untracked open issue creates the ticket first, then
	// appends the comment that triggered it.
	if intent.Kind == IntentComment && cfg.SyncComments && event.Comment != nil {
		if err := r.Tickets.AddTicketComment(ticket.Key, r.commentBody(event.Comment)); err != nil {
			logging.Error("ticket created but triggering comment could not be appended",
				"ticket", ticket.Key,
				"error", err)
			return outcome, nil
		}
		outcome.Kind = OutcomeCommentAdded
		outcome.Message = MsgCreated + MsgCommentAdded
	}

	return outcome, nil
}

// buildFields computes the full ticket field set for a create or an in-place
// update. For updates the existing ticket's components are appended to, not
// replaced: components added manually in Jira survive an edit from GitHub.
func (r *Reconciler) buildFields(event *models.Event, cfg *config.SyncConfig, marker string, existing *models.JiraTicket) (jiraclient.TicketFields, error) {
	issue := event.Issue

	fields := jiraclient.TicketFields{
		ProjectKey:  cfg.JiraProjectKey,
		Summary:     issue.Title,
		Description: buildDescription(issue, cfg, marker, r.Render),
		Type:        cfg.TicketTypeFor(issue.LabelNames(), jiraclient.DefaultIssueType),
		EpicKey:     cfg.EpicKey,
	}

	var components []string
	if existing != nil {
		components = append(components, existing.Components...)
	}
	if len(cfg.Components) > 0 {
		available, err := r.Tickets.GetProjectComponents(cfg.JiraProjectKey)
		if err != nil {
			return jiraclient.TicketFields{}, err
		}
		for _, configured := range cfg.Components {
			if containsFold(available, configured) && !containsFold(components, configured) {
				components = append(components, configured)
			}
		}
	}
	fields.Components = components

	return fields, nil
}

// commentBody renders a GitHub comment as a Jira comment attributed to its
// author.
func (r *Reconciler) commentBody(comment *models.Comment) string {
	return fmt.Sprintf("GitHub user *%s* commented:\n\n%s", comment.User.Login, r.Render(comment.Body))
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
