package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sagagrid/internal/ctxlog"
	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/specialistvlad/sagagrid/internal/fsutil"
	"github.com/specialistvlad/sagagrid/internal/testconfig"
)

// jobFile is one loaded job description.
type jobFile struct {
	path  string
	draft description.Draft
}

// loadJobs reads every job description under path. Parameters from tc, when
// given, are applied on top of each file.
func loadJobs(ctx context.Context, path string, tc *testconfig.Config) ([]jobFile, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := fsutil.ResolvePath(ctx, path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find job descriptions: %w", err)
	}

	jobs := make([]jobFile, 0, len(files))
	for _, f := range files {
		d, err := description.LoadFile(f)
		if err != nil {
			return nil, err
		}
		if tc != nil {
			d = tc.AddParamsToDescription(d)
		}
		jobs = append(jobs, jobFile{path: f, draft: d})
	}
	logger.Info("Job descriptions loaded.", "path", path, "count", len(jobs))
	return jobs, nil
}
