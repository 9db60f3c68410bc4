package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSyncConfig(t *testing.T) {
	yaml := `
settings:
  jira_instance: https://example.atlassian.net
  jira_project_key: PROJ
  status_mapping:
    opened: To Do
    closed: Done
  labels:
    - bug
    - urgent
  label_mapping:
    bug: Bug
    enhancement: Story
  epic_key: PROJ-100
  components:
    - backend
  sync_comments: false
  add_gh_synced_label: true
`
	cfg, err := ParseSyncConfig([]byte(yaml), DefaultSyncConfig())
	require.NoError(t, err)

	assert.Equal(t, "PROJ", cfg.JiraProjectKey)
	assert.Equal(t, "To Do", cfg.StatusMapping.Opened)
	assert.Equal(t, "Done", cfg.StatusMapping.Closed)
	assert.Equal(t, []string{"bug", "urgent"}, cfg.Labels)
	assert.Equal(t, "Story", cfg.LabelMapping["enhancement"])
	assert.Equal(t, "PROJ-100", cfg.EpicKey)
	assert.Equal(t, []string{"backend"}, cfg.Components)

	// Explicit repository values win over defaults.
	assert.False(t, cfg.SyncComments)
	assert.True(t, cfg.AddSyncedLabel)

	// Unset values keep their defaults.
	assert.True(t, cfg.SyncDescription)
	assert.True(t, cfg.AddGitHubComment)
	assert.False(t, cfg.DeferLabelledOpen)
}

func TestParseSyncConfigNotPlannedFallback(t *testing.T) {
	yaml := `
settings:
  jira_project_key: PROJ
  status_mapping:
    opened: To Do
    closed: Done
`
	cfg, err := ParseSyncConfig([]byte(yaml), DefaultSyncConfig())
	require.NoError(t, err)
	assert.Equal(t, "Done", cfg.StatusMapping.NotPlanned)

	yaml = `
settings:
  jira_project_key: PROJ
  status_mapping:
    opened: To Do
    closed: Done
    not_planned: Rejected
`
	cfg, err = ParseSyncConfig([]byte(yaml), DefaultSyncConfig())
	require.NoError(t, err)
	assert.Equal(t, "Rejected", cfg.StatusMapping.NotPlanned)
}

func TestParseSyncConfigInvalidYAML(t *testing.T) {
	_, err := ParseSyncConfig([]byte("settings: [not: valid"), DefaultSyncConfig())
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestSyncConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SyncConfig
		wantErr string
	}{
		{
			name: "Valid",
			cfg: SyncConfig{
				JiraProjectKey: "PROJ",
				StatusMapping:  StatusMapping{Opened: "To Do", Closed: "Done"},
			},
		},
		{
			name:    "Missing project key",
			cfg:     SyncConfig{StatusMapping: StatusMapping{Opened: "To Do", Closed: "Done"}},
			wantErr: "jira_project_key",
		},
		{
			name:    "Missing status mapping",
			cfg:     SyncConfig{JiraProjectKey: "PROJ"},
			wantErr: "status_mapping",
		},
		{
			name:    "Partial status mapping",
			cfg:     SyncConfig{JiraProjectKey: "PROJ", StatusMapping: StatusMapping{Opened: "To Do"}},
			wantErr: "status_mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestAllowsLabels(t *testing.T) {
	tests := []struct {
		name        string
		gate        []string
		issueLabels []string
		want        bool
	}{
		{
			name:        "Empty gate allows everything",
			gate:        nil,
			issueLabels: []string{"anything"},
			want:        true,
		},
		{
			name:        "Matching label",
			gate:        []string{"bug"},
			issueLabels: []string{"bug", "backend"},
			want:        true,
		},
		{
			name:        "Case-insensitive match",
			gate:        []string{"bug"},
			issueLabels: []string{"Bug"},
			want:        true,
		},
		{
			name:        "No intersection",
			gate:        []string{"bug"},
			issueLabels: []string{"enhancement"},
			want:        false,
		},
		{
			name:        "Gated issue without labels",
			gate:        []string{"bug"},
			issueLabels: nil,
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := SyncConfig{Labels: tt.gate}
			assert.Equal(t, tt.want, cfg.AllowsLabels(tt.issueLabels))
		})
	}
}

func TestTicketTypeFor(t *testing.T) {
	cfg := SyncConfig{
		LabelMapping: map[string]string{
			"bug":         "Bug",
			"enhancement": "Story",
		},
	}

	assert.Equal(t, "Bug", cfg.TicketTypeFor([]string{"bug"}, "Task"))
	assert.Equal(t, "Story", cfg.TicketTypeFor([]string{"Enhancement"}, "Task"))
	assert.Equal(t, "Task", cfg.TicketTypeFor([]string{"question"}, "Task"))
	assert.Equal(t, "Task", cfg.TicketTypeFor(nil, "Task"))
}

func TestResolver(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		r := &Resolver{
			Files:    fetcherFunc(func(string, string) ([]byte, error) { return nil, errors.New("404") }),
			Defaults: DefaultSyncConfig(),
		}
		_, err := r.Resolve("octocat", "hello-world")
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("Valid file", func(t *testing.T) {
		r := &Resolver{
			Files: fetcherFunc(func(repository, path string) ([]byte, error) {
				assert.Equal(t, "octocat/hello-world", repository)
				assert.Equal(t, SyncConfigPath, path)
				return []byte("settings:\n  jira_project_key: PROJ\n"), nil
			}),
			Defaults: DefaultSyncConfig(),
		}
		cfg, err := r.Resolve("octocat", "hello-world")
		require.NoError(t, err)
		assert.Equal(t, "PROJ", cfg.JiraProjectKey)
	})
}

type fetcherFunc func(repository, path string) ([]byte, error)

func (f fetcherFunc) GetFileContents(repository, path string) ([]byte, error) {
	return f(repository, path)
}
