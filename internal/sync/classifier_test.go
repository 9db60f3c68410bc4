package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/issuesync/bridge/internal/config"
	"github.com/issuesync/bridge/pkg/models"
)

const testBotLogin = "syncronize-issues-to-jira[bot]"

func validSyncConfig() *config.SyncConfig {
	cfg := config.DefaultSyncConfig()
	cfg.JiraProjectKey = "PROJ"
	cfg.StatusMapping = config.StatusMapping{Opened: "To Do", Closed: "Done", NotPlanned: "Rejected"}
	return &cfg
}

func issueEvent(action string, labels ...string) *models.Event {
	issue := &models.GitHubIssue{
		Number:  42,
		Title:   "Something is broken",
		Body:    "It does not work",
		HTMLURL: "https://github.com/octocat/hello-world/issues/42",
		User:    models.User{Login: "octocat"},
		State:   "open",
	}
	for _, l := range labels {
		issue.Labels = append(issue.Labels, models.Label{Name: l})
	}
	return &models.Event{
		Action: action,
		Sender: models.User{Login: "octocat"},
		Repository: models.Repository{
			Name:  "hello-world",
			Owner: models.User{Login: "octocat"},
		},
		Issue: issue,
	}
}

func commentEvent(action, commenter string) *models.Event {
	event := issueEvent(action)
	event.Sender = models.User{Login: commenter}
	event.Comment = &models.Comment{
		Body: "me too",
		User: models.User{Login: commenter},
	}
	return event
}

func TestClassifyGating(t *testing.T) {
	tests := []struct {
		name       string
		event      *models.Event
		cfg        *config.SyncConfig
		wantReason string
	}{
		{
			name:       "No issue in payload",
			event:      &models.Event{Action: "opened"},
			cfg:        validSyncConfig(),
			wantReason: MsgNotIssueAction,
		},
		{
			name:       "No action in payload",
			event:      &models.Event{Issue: &models.GitHubIssue{Number: 1}},
			cfg:        validSyncConfig(),
			wantReason: MsgNotIssueAction,
		},
		{
			name: "Pull request comment",
			event: func() *models.Event {
				e := commentEvent("created", "octocat")
				e.Issue.PullRequest = &models.PullRequestLinks{URL: "https://api.github.com/repos/octocat/hello-world/pulls/42"}
				return e
			}(),
			cfg:        validSyncConfig(),
			wantReason: MsgPullRequest,
		},
		{
			name: "Sender is the bot",
			event: func() *models.Event {
				e := issueEvent("opened")
				e.Sender = models.User{Login: testBotLogin}
				return e
			}(),
			cfg:        validSyncConfig(),
			wantReason: MsgBot,
		},
		{
			name:       "Comment created by bot",
			event:      commentEvent("created", testBotLogin),
			cfg:        validSyncConfig(),
			wantReason: MsgBot,
		},
		{
			name:       "Comment edited",
			event:      commentEvent("edited", "octocat"),
			cfg:        validSyncConfig(),
			wantReason: MsgCommentNotCreated,
		},
		{
			name:       "Comment deleted",
			event:      commentEvent("deleted", "octocat"),
			cfg:        validSyncConfig(),
			wantReason: MsgCommentNotCreated,
		},
		{
			name:       "Unsupported issue action",
			event:      issueEvent("assigned"),
			cfg:        validSyncConfig(),
			wantReason: MsgUnsupportedAction,
		},
		{
			name: "Labeled with the synced label",
			event: func() *models.Event {
				e := issueEvent("labeled", SyncedLabel)
				e.Label = &models.Label{Name: SyncedLabel}
				return e
			}(),
			cfg:        validSyncConfig(),
			wantReason: MsgSyncedLabel,
		},
		{
			name: "Synced label with different case",
			event: func() *models.Event {
				e := issueEvent("labeled", "Synced-To-Jira")
				e.Label = &models.Label{Name: "Synced-To-Jira"}
				return e
			}(),
			cfg:        validSyncConfig(),
			wantReason: MsgSyncedLabel,
		},
		{
			name:  "Missing project key",
			event: issueEvent("opened"),
			cfg: func() *config.SyncConfig {
				cfg := validSyncConfig()
				cfg.JiraProjectKey = ""
				return cfg
			}(),
			wantReason: "Jira project key is not specified. Add the jira_project_key key to the settings file.",
		},
		{
			name:  "Missing status mapping",
			event: issueEvent("opened"),
			cfg: func() *config.SyncConfig {
				cfg := validSyncConfig()
				cfg.StatusMapping = config.StatusMapping{}
				return cfg
			}(),
			wantReason: "Status mapping is not specified. Add the status_mapping key to the settings file.",
		},
		{
			name:  "Label gate without matching label",
			event: issueEvent("opened", "enhancement"),
			cfg: func() *config.SyncConfig {
				cfg := validSyncConfig()
				cfg.Labels = []string{"bug"}
				return cfg
			}(),
			wantReason: MsgLabelNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := Classify(tt.event, tt.cfg, nil, testBotLogin)
			assert.Equal(t, IntentSkip, intent.Kind)
			assert.Equal(t, tt.wantReason, intent.Reason)
		})
	}
}

func TestClassifyBotWinsOverBrokenConfig(t *testing.T) {
	// Gating rules run in order: a bot-triggered event is reported as such
	// even when the repository settings could not be resolved at all.
	event := commentEvent("created", testBotLogin)
	intent := Classify(event, nil, config.ErrConfigNotFound, testBotLogin)
	assert.Equal(t, IntentSkip, intent.Kind)
	assert.Equal(t, MsgBot, intent.Reason)
	assert.False(t, intent.ConfigProblem)
}

func TestClassifyConfigResolutionFailure(t *testing.T) {
	event := issueEvent("opened")
	intent := Classify(event, nil, config.ErrConfigNotFound, testBotLogin)
	assert.Equal(t, IntentSkip, intent.Kind)
	assert.Equal(t, config.ErrConfigNotFound.Error(), intent.Reason)
	assert.True(t, intent.ConfigProblem)
}

func TestClassifyLabelGateCaseInsensitive(t *testing.T) {
	cfg := validSyncConfig()
	cfg.Labels = []string{"bug"}

	intent := Classify(issueEvent("opened", "Bug"), cfg, nil, testBotLogin)
	assert.Equal(t, IntentCreateOrUpdate, intent.Kind)
}

func TestClassifyIntents(t *testing.T) {
	cfg := validSyncConfig()

	tests := []struct {
		name  string
		event *models.Event
		want  IntentKind
	}{
		{name: "Opened", event: issueEvent("opened"), want: IntentCreateOrUpdate},
		{name: "Edited", event: issueEvent("edited"), want: IntentCreateOrUpdate},
		{name: "Labeled", event: func() *models.Event {
			e := issueEvent("labeled", "bug")
			e.Label = &models.Label{Name: "bug"}
			return e
		}(), want: IntentCreateOrUpdate},
		{name: "Closed", event: issueEvent("closed"), want: IntentTransition},
		{name: "Reopened", event: issueEvent("reopened"), want: IntentTransition},
		{name: "Comment created", event: commentEvent("created", "octocat"), want: IntentComment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := Classify(tt.event, cfg, nil, testBotLogin)
			assert.Equal(t, tt.want, intent.Kind)
			assert.Empty(t, intent.Reason)
		})
	}
}

func TestClassifyDeferLabelledOpen(t *testing.T) {
	cfg := validSyncConfig()
	cfg.DeferLabelledOpen = true

	// An opened issue that already carries labels waits for the labeled
	// delivery that follows.
	intent := Classify(issueEvent("opened", "bug"), cfg, nil, testBotLogin)
	assert.Equal(t, IntentSkip, intent.Kind)
	assert.Equal(t, MsgDeferredOpen, intent.Reason)

	// Without labels the opened event is processed immediately.
	intent = Classify(issueEvent("opened"), cfg, nil, testBotLogin)
	assert.Equal(t, IntentCreateOrUpdate, intent.Kind)

	// Policy off: labels at open time do not defer.
	cfg.DeferLabelledOpen = false
	intent = Classify(issueEvent("opened", "bug"), cfg, nil, testBotLogin)
	assert.Equal(t, IntentCreateOrUpdate, intent.Kind)
}
