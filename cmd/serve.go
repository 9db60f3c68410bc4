package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/issuesync/bridge/internal/config"
	"github.com/issuesync/bridge/internal/github"
	"github.com/issuesync/bridge/internal/jira"
	"github.com/issuesync/bridge/internal/logging"
	"github.com/issuesync/bridge/internal/server"
	"github.com/issuesync/bridge/internal/sync"
)

// serveCmd starts the webhook server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Start the HTTP server that receives GitHub webhook deliveries.

Each delivery is verified against the shared webhook secret, classified
against the repository's .github/.jira_sync_config.yaml settings and, when it
qualifies, reconciled against Jira: a linked ticket is looked up by its
marker and exactly one of create, update, transition or comment is applied.

Required environment: GITHUB_TOKEN, WEBHOOK_SECRET, JIRA_URL, JIRA_USERNAME,
JIRA_TOKEN. Optional: GITHUB_DOMAIN, BOT_LOGIN, LISTEN_ADDR, LOG_LEVEL,
LOG_FORMAT.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if err := config.ValidateJiraConfig(cfg); err != nil {
			return err
		}

		// Initialize clients
		githubClient, err := github.NewClient()
		if err != nil {
			return fmt.Errorf("failed to initialize github client: %v", err)
		}

		jiraClient, err := jira.NewClient()
		if err != nil {
			return fmt.Errorf("failed to initialize jira client: %v", err)
		}

		resolver := &config.Resolver{
			Files:    githubClient,
			Defaults: config.DefaultSyncConfig(),
		}
		reconciler := sync.NewReconciler(jiraClient, githubClient)

		handler := &server.Handler{
			Secret:        []byte(cfg.Webhook.Secret),
			BotLogin:      cfg.Bot.Login,
			ResolveConfig: resolver.Resolve,
			Reconcile:     reconciler.Reconcile,
			NotifyIssue:   githubClient.AddComment,
		}

		addr, err := cmd.Flags().GetString("listen")
		if err != nil {
			return err
		}
		if addr == "" {
			addr = cfg.Server.ListenAddr
		}

		logging.Info("starting webhook server",
			"addr", addr,
			"bot_login", cfg.Bot.Login,
			"github_domain", cfg.GitHub.Domain)

		return handler.Run(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Listen address (overrides LISTEN_ADDR)")
}
