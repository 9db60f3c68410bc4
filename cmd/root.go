// Package cmd provides the command-line interface for the bridge.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Bridge mirrors GitHub issue activity into a Jira project",
	Long: `Bridge is a webhook service that mirrors GitHub issue activity into a Jira
project. It receives GitHub issue and comment events, decides per repository
whether and how to reflect them in Jira, and keeps the linked tickets in step
with edits, label changes, closures and comments.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
