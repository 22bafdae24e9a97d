package testconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
category "saga.tests" {
  job_service_url     = "fork://localhost"
  context_type        = "UserPass"
  context_user_id     = "alice"
  context_user_pass   = "secret"
  job_queue           = "debug"
  job_total_cpu_count = 0
}

category "site.b" {
  job_service_url    = "sio://scheduler:8080"
  job_walltime_limit = 30
  job_project        = "p42"
}
`

func TestParse_DefaultCategory(t *testing.T) {
	cfg, err := Parse([]byte(sample), "tc.hcl", "")
	require.NoError(t, err)

	assert.Equal(t, DefaultCategory, cfg.Category)
	assert.Equal(t, "fork://localhost", cfg.JobServiceURL)

	ctxs := cfg.Session().Contexts()
	require.Len(t, ctxs, 1)
	assert.Equal(t, "UserPass", ctxs[0].Type)
	assert.Equal(t, "alice", ctxs[0].UserID)
	assert.Equal(t, "secret", ctxs[0].UserPass)
}

func TestParse_NamedCategoryWithoutContext(t *testing.T) {
	cfg, err := Parse([]byte(sample), "tc.hcl", "site.b")
	require.NoError(t, err)

	assert.Equal(t, "sio://scheduler:8080", cfg.JobServiceURL)
	assert.Empty(t, cfg.Session().Contexts(), "no default contexts are added")
}

func TestParse_MissingCategory(t *testing.T) {
	_, err := Parse([]byte(sample), "tc.hcl", "nope")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestParse_UnknownAttribute(t *testing.T) {
	_, err := Parse([]byte("category \"saga.tests\" {\n  bogus = 1\n}\n"), "tc.hcl", "")
	assert.Error(t, err)
}

func TestAddParamsToDescription_OnlyCopiesPresentKeys(t *testing.T) {
	testCases := []struct {
		name     string
		category string
		want     description.Draft
	}{
		{
			name:     "queue and explicit zero cpu count",
			category: "saga.tests",
			want: description.Draft{
				Executable:    "/bin/date",
				Project:       "keep",
				WallTimeLimit: 5,
				Queue:         "debug",
				TotalCPUCount: 0,
			},
		},
		{
			name:     "wall time and project",
			category: "site.b",
			want: description.Draft{
				Executable:    "/bin/date",
				Project:       "p42",
				WallTimeLimit: 30,
				TotalCPUCount: 8,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			cfg, err := Parse([]byte(sample), "tc.hcl", tc.category)
			require.NoError(t, err)
			in := description.Draft{Executable: "/bin/date", Project: "keep", WallTimeLimit: 5, TotalCPUCount: 8}

			// --- Act ---
			got := cfg.AddParamsToDescription(in)

			// --- Assert ---
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("AddParamsToDescription() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, "keep", in.Project, "the input draft is not modified")
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tc.hcl")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0600))

	cfg, err := Load(path, "site.b")
	require.NoError(t, err)
	require.NotNil(t, cfg.JobProject)
	assert.Equal(t, "p42", *cfg.JobProject)

	_, err = Load(filepath.Join(t.TempDir(), "missing.hcl"), "")
	assert.Error(t, err)
}
