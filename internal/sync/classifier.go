package sync

import (
	"strings"

	"github.com/issuesync/bridge/internal/config"
	"github.com/issuesync/bridge/pkg/models"
)

// issueActions are the issue event actions this service reacts to.
var issueActions = map[string]bool{
	"opened":   true,
	"edited":   true,
	"closed":   true,
	"reopened": true,
	"labeled":  true,
}

// Classify inspects one event plus the resolved repository settings and
// decides whether to proceed and with which intent. It is a pure function:
// it only reads its arguments.
//
// cfg may be nil when resolution failed; cfgErr then carries the
// user-visible reason. Gating rules run in a fixed order and the first match
// wins, so a bot-triggered event is reported as such even when the
// repository settings are broken.
func Classify(event *models.Event, cfg *config.SyncConfig, cfgErr error, botLogin string) Intent {
	if event.Issue == nil || event.Action == "" {
		return Intent{Kind: IntentSkip, Reason: MsgNotIssueAction}
	}

	if event.Issue.PullRequest != nil {
		return Intent{Kind: IntentSkip, Reason: MsgPullRequest}
	}

	// Loop prevention: never react to our own writes.
	if event.Sender.Login == botLogin {
		return Intent{Kind: IntentSkip, Reason: MsgBot}
	}

	if event.Comment != nil && event.Action != "created" {
		return Intent{Kind: IntentSkip, Reason: MsgCommentNotCreated}
	}

	if event.Comment == nil && !issueActions[event.Action] {
		return Intent{Kind: IntentSkip, Reason: MsgUnsupportedAction}
	}

	// The synced label is applied by this service after creating a ticket;
	// the labeled delivery it causes must not be processed.
	if event.Action == "labeled" && event.Label != nil && strings.EqualFold(event.Label.Name, SyncedLabel) {
		return Intent{Kind: IntentSkip, Reason: MsgSyncedLabel}
	}

	if cfgErr != nil {
		return Intent{Kind: IntentSkip, Reason: cfgErr.Error(), ConfigProblem: true}
	}
	if err := cfg.Validate(); err != nil {
		return Intent{Kind: IntentSkip, Reason: err.Error(), ConfigProblem: true}
	}

	if !cfg.AllowsLabels(event.Issue.LabelNames()) {
		return Intent{Kind: IntentSkip, Reason: MsgLabelNotAllowed}
	}

	// Optional policy: an issue opened with labels already attached will be
	// followed by a separate labeled delivery, so processing can wait for it.
	if cfg.DeferLabelledOpen && event.Action == "opened" && len(event.Issue.Labels) > 0 {
		return Intent{Kind: IntentSkip, Reason: MsgDeferredOpen}
	}

	switch {
	case event.Comment != nil:
		return Intent{Kind: IntentComment}
	case event.Action == "closed" || event.Action == "reopened":
		return Intent{Kind: IntentTransition}
	default:
		return Intent{Kind: IntentCreateOrUpdate}
	}
}
