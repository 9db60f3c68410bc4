// Package sync implements the event-classification and reconciliation engine:
// deciding whether an incoming GitHub event should be processed, and applying
// exactly one state transition against Jira.
package sync

import "github.com/issuesync/bridge/pkg/models"

// SyncedLabel is the label this service applies to GitHub issues it has
// synced. "labeled" deliveries for this label are never processed, which
// breaks the feedback loop the label would otherwise create.
const SyncedLabel = "synced-to-jira"

// IntentKind enumerates the single action derived from an event.
type IntentKind int

const (
	// IntentSkip means the event is not processed; Reason says why.
	IntentSkip IntentKind = iota
	// IntentCreateOrUpdate covers opened, edited and labeled issue events.
	IntentCreateOrUpdate
	// IntentTransition covers closed and reopened issue events.
	IntentTransition
	// IntentComment covers newly created issue comments.
	IntentComment
)

// Intent is the outcome of classification: exactly one is derived per event
// and exactly one is acted upon. It is never persisted.
type Intent struct {
	Kind IntentKind

	// Reason is the user-visible skip message. Empty unless Kind is IntentSkip.
	Reason string

	// ConfigProblem marks a skip caused by unusable repository settings.
	// These skips are additionally reported back to the user as a GitHub
	// comment, unlike ordinary gating skips.
	ConfigProblem bool
}

// OutcomeKind enumerates what the reconciler did.
type OutcomeKind int

const (
	// OutcomeNoAction means nothing was mutated.
	OutcomeNoAction OutcomeKind = iota
	// OutcomeCreated means a ticket was created.
	OutcomeCreated
	// OutcomeUpdated means an existing ticket was updated in place.
	OutcomeUpdated
	// OutcomeTransitioned means an existing ticket changed workflow status.
	OutcomeTransitioned
	// OutcomeCommentAdded means a comment was appended to a ticket.
	OutcomeCommentAdded
)

// Outcome is the single structured result of processing one event. Message
// is the only externally observed artifact.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Ticket  *models.JiraTicket
}

// Outcome and skip messages. These are part of the external contract: the
// HTTP response body carries them verbatim.
const (
	MsgNotIssueAction    = "Payload is not an issue action. Ignoring."
	MsgPullRequest       = "Action was triggered by a pull request comment. Ignoring."
	MsgBot               = "Action was triggered by bot. Ignoring."
	MsgCommentNotCreated = "Comment action is not created. Ignoring."
	MsgUnsupportedAction = "Unsupported issue action. Ignoring."
	MsgSyncedLabel       = "Label was added by this bot. Ignoring."
	MsgLabelNotAllowed   = "Issue is not labeled with the specified label"
	MsgDeferredOpen      = "Issue is already labeled; waiting for the labeled event."

	MsgCreated          = "Issue was created in Jira. "
	MsgUpdated          = "Updated existing Jira Issue"
	MsgClosed           = "Closed existing Jira Issue"
	MsgClosedNotPlanned = "Closed existing Jira Issue as not planned"
	MsgReopened         = "Reopened existing Jira Issue"
	MsgCommentAdded     = "New comment from GitHub was added to Jira"
	MsgNoAction         = "No action performed"
	MsgClosedNoTicket   = "Ticket doesn't exist and issue closed; ignoring"
)
