// Package server exposes the webhook over HTTP.
package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/issuesync/bridge/internal/config"
	ghclient "github.com/issuesync/bridge/internal/github"
	"github.com/issuesync/bridge/internal/logging"
	"github.com/issuesync/bridge/internal/obs"
	"github.com/issuesync/bridge/internal/sync"
	"github.com/issuesync/bridge/pkg/models"
)

// Handler carries the webhook endpoint's dependencies as swappable
// functions, so tests can exercise the HTTP surface without any network.
type Handler struct {
	// Secret is the shared webhook secret deliveries are signed with.
	Secret []byte

	// BotLogin is the GitHub login this service writes as.
	BotLogin string

	// ResolveConfig fetches and resolves the repository's sync settings.
	ResolveConfig func(owner, repo string) (*config.SyncConfig, error)

	// Reconcile applies the classified intent against Jira.
	Reconcile func(event *models.Event, cfg *config.SyncConfig, intent sync.Intent) (sync.Outcome, error)

	// NotifyIssue posts a comment on the source issue. Used to tell users
	// about unusable sync settings; best-effort.
	NotifyIssue func(repository string, issueNumber int, body string) error
}

// Router builds the gin engine with the webhook and operational endpoints.
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/", h.handleWebhook)
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// Run serves the router on addr, blocking until the listener fails.
func (h *Handler) Run(addr string) error {
	logging.Info("listening", "addr", addr)
	return h.Router().Run(addr)
}

// handleWebhook processes one delivery synchronously end-to-end. Gating and
// configuration problems are success responses with an explanatory message;
// only signature failures and uncaught collaborator failures map to error
// statuses. The webhook sender owns redelivery policy.
func (h *Handler) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "failed to read request body"})
		return
	}

	signature := c.GetHeader("X-Hub-Signature-256")
	if err := ghclient.ValidateSignature(signature, body, h.Secret); err != nil {
		obs.SignatureRejectionsTotal.Inc()
		logging.Warn("rejected delivery", "error", err)
		c.JSON(http.StatusForbidden, gin.H{"msg": err.Error()})
		return
	}

	var event models.Event
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "payload is not valid JSON"})
		return
	}

	action := event.Action
	if action == "" {
		action = "none"
	}
	obs.EventsTotal.WithLabelValues(action).Inc()

	owner := event.Repository.Owner.Login
	repo := event.Repository.Name

	var cfg *config.SyncConfig
	var cfgErr error
	if owner != "" && repo != "" {
		cfg, cfgErr = h.ResolveConfig(owner, repo)
	} else {
		cfgErr = config.ErrConfigNotFound
	}

	intent := sync.Classify(&event, cfg, cfgErr, h.BotLogin)
	if intent.Kind == sync.IntentSkip {
		obs.OutcomesTotal.WithLabelValues("skip").Inc()
		logging.Info("event skipped",
			"repository", owner+"/"+repo,
			"action", event.Action,
			"reason", intent.Reason)

		// Broken settings are the user's problem to fix; tell them where.
		if intent.ConfigProblem && event.Issue != nil && h.NotifyIssue != nil {
			if err := h.NotifyIssue(owner+"/"+repo, event.Issue.Number, intent.Reason); err != nil {
				logging.Error("failed to report configuration problem on issue",
					"repository", owner+"/"+repo,
					"issue_number", event.Issue.Number,
					"error", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"msg": intent.Reason})
		return
	}

	outcome, err := h.Reconcile(&event, cfg, intent)
	if err != nil {
		obs.OutcomesTotal.WithLabelValues("error").Inc()
		logging.Error("reconciliation failed",
			"repository", owner+"/"+repo,
			"action", event.Action,
			"issue_number", event.Issue.Number,
			"error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Internal server error"})
		return
	}

	obs.OutcomesTotal.WithLabelValues(outcomeLabel(outcome.Kind)).Inc()
	logging.Info("event processed",
		"repository", owner+"/"+repo,
		"action", event.Action,
		"issue_number", event.Issue.Number,
		"outcome", outcome.Message)

	c.JSON(http.StatusOK, gin.H{"msg": outcome.Message})
}

func outcomeLabel(kind sync.OutcomeKind) string {
	switch kind {
	case sync.OutcomeCreated:
		return "created"
	case sync.OutcomeUpdated:
		return "updated"
	case sync.OutcomeTransitioned:
		return "transitioned"
	case sync.OutcomeCommentAdded:
		return "comment_added"
	default:
		return "no_action"
	}
}
