package config

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// SyncConfigPath is where repositories keep their sync settings.
const SyncConfigPath = ".github/.jira_sync_config.yaml"

// Errors surfaced to the user when the per-repository settings file cannot
// be used. The messages double as GitHub comment bodies.
var (
	ErrConfigNotFound = errors.New(".github/.jira_sync_config.yaml file was not found")
	ErrConfigInvalid  = errors.New(".github/.jira_sync_config.yaml file is invalid. Check syntax.")
)

// StatusMapping translates the three GitHub issue lifecycle states into the
// Jira workflow status names of the target project.
type StatusMapping struct {
	Opened     string `yaml:"opened"`
	Closed     string `yaml:"closed"`
	NotPlanned string `yaml:"not_planned"`
}

// SyncConfig is the fully resolved per-repository sync configuration: the
// repository's own settings file merged over the compiled-in defaults. It is
// an immutable value once resolved; the classifier and reconciler only read it.
type SyncConfig struct {
	// JiraProjectKey is the target Jira project. Required.
	JiraProjectKey string

	// StatusMapping is the opened/closed/not-planned status translation.
	// Opened and Closed are required; NotPlanned falls back to Closed.
	StatusMapping StatusMapping

	// Labels gates syncing: when non-empty, only issues carrying at least
	// one of these labels (case-insensitive) are synced.
	Labels []string

	// LabelMapping maps a GitHub label name to a Jira issue type name. The
	// first issue label found in this map decides the ticket type.
	LabelMapping map[string]string

	// EpicKey optionally parents every created ticket under this epic.
	EpicKey string

	// Components optionally names Jira components to set on created tickets.
	// Only components that exist in the target project are applied.
	Components []string

	// SyncDescription controls whether the issue body is mirrored into the
	// ticket description.
	SyncDescription bool

	// SyncComments controls whether new GitHub comments are appended to the
	// ticket.
	SyncComments bool

	// AddGitHubComment controls whether a backlink comment is posted on the
	// GitHub issue after the ticket is created.
	AddGitHubComment bool

	// AddSyncedLabel controls whether the synced label is applied to the
	// GitHub issue after the ticket is created.
	AddSyncedLabel bool

	// DeferLabelledOpen skips "opened" events for issues that already carry
	// labels, on the expectation that a separate "labeled" delivery follows.
	// Off by default: opened events are processed immediately.
	DeferLabelledOpen bool
}

// syncFile mirrors the YAML document layout of the settings file. Scalars
// are pointers so that merging can tell "absent" from "set to zero value".
type syncFile struct {
	Settings syncSettings `yaml:"settings"`
}

type syncSettings struct {
	// jira_instance is accepted for compatibility with older settings files
	// but ignored: the Jira base URL is process-level configuration here.
	JiraInstance      *string            `yaml:"jira_instance"`
	JiraProjectKey    *string            `yaml:"jira_project_key"`
	StatusMapping     *statusMappingFile `yaml:"status_mapping"`
	Labels            []string           `yaml:"labels"`
	LabelMapping      map[string]string  `yaml:"label_mapping"`
	EpicKey           *string            `yaml:"epic_key"`
	Components        []string           `yaml:"components"`
	SyncDescription   *bool              `yaml:"sync_description"`
	SyncComments      *bool              `yaml:"sync_comments"`
	AddGitHubComment  *bool              `yaml:"add_gh_comment"`
	AddSyncedLabel    *bool              `yaml:"add_gh_synced_label"`
	DeferLabelledOpen *bool              `yaml:"defer_labelled_open"`
}

type statusMappingFile struct {
	Opened     *string `yaml:"opened"`
	Closed     *string `yaml:"closed"`
	NotPlanned *string `yaml:"not_planned"`
}

// DefaultSyncConfig returns the compiled-in defaults that repository settings
// are merged over. Required keys are deliberately empty: a repository that
// does not set them halts processing with a reported reason.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		SyncDescription:  true,
		SyncComments:     true,
		AddGitHubComment: true,
	}
}

// ParseSyncConfig parses a settings file and merges it over the given
// defaults. The merge is pure: repository values win, defaults fill gaps.
// A file that is not valid YAML yields ErrConfigInvalid.
func ParseSyncConfig(data []byte, defaults SyncConfig) (*SyncConfig, error) {
	var file syncFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, ErrConfigInvalid
	}
	cfg := merge(file.Settings, defaults)
	return &cfg, nil
}

// merge resolves repository settings over defaults, producing the final
// SyncConfig value. not_planned falls back to the closed status when unset.
func merge(s syncSettings, defaults SyncConfig) SyncConfig {
	cfg := defaults

	if s.JiraProjectKey != nil {
		cfg.JiraProjectKey = *s.JiraProjectKey
	}
	if s.StatusMapping != nil {
		if s.StatusMapping.Opened != nil {
			cfg.StatusMapping.Opened = *s.StatusMapping.Opened
		}
		if s.StatusMapping.Closed != nil {
			cfg.StatusMapping.Closed = *s.StatusMapping.Closed
		}
		if s.StatusMapping.NotPlanned != nil {
			cfg.StatusMapping.NotPlanned = *s.StatusMapping.NotPlanned
		}
	}
	if s.Labels != nil {
		cfg.Labels = s.Labels
	}
	if s.LabelMapping != nil {
		cfg.LabelMapping = s.LabelMapping
	}
	if s.EpicKey != nil {
		cfg.EpicKey = *s.EpicKey
	}
	if s.Components != nil {
		cfg.Components = s.Components
	}
	if s.SyncDescription != nil {
		cfg.SyncDescription = *s.SyncDescription
	}
	if s.SyncComments != nil {
		cfg.SyncComments = *s.SyncComments
	}
	if s.AddGitHubComment != nil {
		cfg.AddGitHubComment = *s.AddGitHubComment
	}
	if s.AddSyncedLabel != nil {
		cfg.AddSyncedLabel = *s.AddSyncedLabel
	}
	if s.DeferLabelledOpen != nil {
		cfg.DeferLabelledOpen = *s.DeferLabelledOpen
	}

	if cfg.StatusMapping.NotPlanned == "" {
		cfg.StatusMapping.NotPlanned = cfg.StatusMapping.Closed
	}

	return cfg
}

// Validate reports the first missing required key, with a message suitable
// for posting back to the user.
func (c *SyncConfig) Validate() error {
	if c.JiraProjectKey == "" {
		return errors.New("Jira project key is not specified. Add the jira_project_key key to the settings file.")
	}
	if c.StatusMapping.Opened == "" || c.StatusMapping.Closed == "" {
		return errors.New("Status mapping is not specified. Add the status_mapping key to the settings file.")
	}
	return nil
}

// AllowsLabels reports whether the label gate passes for the given issue
// labels. An empty gate allows everything; otherwise at least one issue
// label must match, compared case-insensitively.
func (c *SyncConfig) AllowsLabels(issueLabels []string) bool {
	if len(c.Labels) == 0 {
		return true
	}
	for _, allowed := range c.Labels {
		for _, have := range issueLabels {
			if strings.EqualFold(allowed, have) {
				return true
			}
		}
	}
	return false
}

// TicketTypeFor picks the Jira issue type for the given issue labels: the
// first label (in issue order) present in the label mapping wins. Falls back
// to defaultType when nothing matches.
func (c *SyncConfig) TicketTypeFor(issueLabels []string, defaultType string) string {
	for _, have := range issueLabels {
		for mapped, ticketType := range c.LabelMapping {
			if strings.EqualFold(mapped, have) {
				return ticketType
			}
		}
	}
	return defaultType
}

// FileFetcher retrieves a file from a repository's default branch.
type FileFetcher interface {
	GetFileContents(repository, path string) ([]byte, error)
}

// Resolver fetches and resolves the per-repository sync configuration.
type Resolver struct {
	Files    FileFetcher
	Defaults SyncConfig
}

// Resolve fetches the repository's settings file and merges it over the
// defaults. A missing file yields ErrConfigNotFound, an unparseable one
// ErrConfigInvalid; both are user-reportable, not fatal.
func (r *Resolver) Resolve(owner, repo string) (*SyncConfig, error) {
	data, err := r.Files.GetFileContents(owner+"/"+repo, SyncConfigPath)
	if err != nil {
		return nil, ErrConfigNotFound
	}
	return ParseSyncConfig(data, r.Defaults)
}
