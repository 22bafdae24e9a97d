package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/ctxlog"
	"github.com/specialistvlad/sagagrid/internal/engine"
	"github.com/specialistvlad/sagagrid/internal/job"
	"github.com/specialistvlad/sagagrid/internal/session"
	"github.com/specialistvlad/sagagrid/internal/testconfig"
	"golang.org/x/sync/errgroup"
)

// ErrJobsFailed is returned by Run when a job did not finish as Done.
var ErrJobsFailed = errors.New("one or more jobs did not succeed")

// jobResult is one line of the run report.
type jobResult struct {
	id       string
	state    adaptor.JobState
	exitCode string
	err      error
}

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		if err := a.startHealthcheckServer(a.config.HealthcheckPort); err != nil {
			return err
		}
		defer a.closeHealthcheckServer(ctx)
	}

	if a.config.ListAdaptors {
		return a.printAdaptors()
	}

	var tc *testconfig.Config
	if a.config.TestConfig != "" {
		var err error
		if tc, err = testconfig.Load(a.config.TestConfig, a.config.Category); err != nil {
			return err
		}
	}

	url := a.config.URL
	var sess *session.Session
	if tc != nil {
		if url == "" {
			url = tc.JobServiceURL
		}
		sess = tc.Session()
	}
	if url == "" {
		return errors.New("no resource manager URL given")
	}

	var opts []job.Option
	if a.config.Adaptor != "" {
		opts = append(opts, job.WithAdaptor(a.config.Adaptor))
	}
	svc, err := job.Create(ctx, a.engine, url, sess, a.config.Mode, opts...)
	if err != nil {
		return fmt.Errorf("failed to create job service: %w", err)
	}
	defer func() {
		if err := svc.Close(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("Failed to close job service.", "error", err)
		}
	}()

	if a.config.List {
		ids, err := svc.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}
		for _, id := range ids {
			fmt.Fprintln(a.outW, id)
		}
	}

	if a.config.JobPath == "" {
		return nil
	}
	jobs, err := loadJobs(ctx, a.config.JobPath, tc)
	if err != nil {
		return err
	}

	a.logger.Info("🚀 Submitting jobs...", "count", len(jobs), "adaptor", svc.Adaptor())
	results := a.runJobs(ctx, svc, jobs)
	a.logger.Info("🏁 Execution finished.")
	return a.report(results)
}

// runJobs submits the jobs concurrently, at most MaxBinds at a time.
// Results keep the input order.
func (a *App) runJobs(ctx context.Context, svc *job.Service, jobs []jobFile) []jobResult {
	results := make([]jobResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	limit := a.config.MaxBinds
	if limit <= 0 {
		limit = engine.DefaultMaxConcurrentBinds
	}
	g.SetLimit(limit)

	for i, jf := range jobs {
		g.Go(func() error {
			results[i] = a.runJob(gctx, svc, jf)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *App) runJob(ctx context.Context, svc *job.Service, jf jobFile) jobResult {
	logger := ctxlog.FromContext(ctx).With("file", jf.path)

	j, err := svc.CreateJob(ctx, jf.draft)
	if err != nil {
		return jobResult{id: jf.path, state: adaptor.StateUnknown, exitCode: "-", err: err}
	}
	res := jobResult{id: j.ID(), state: adaptor.StateNew, exitCode: "-"}
	if err := j.Run(ctx); err != nil {
		res.err = err
		return res
	}
	logger.Info("Job submitted.", "id", j.ID())

	if a.config.NoWait {
		res.state, res.err = j.State(ctx)
		return res
	}
	res.state, res.err = j.Wait(ctx)
	if code, ok := j.ExitCode(); ok {
		res.exitCode = strconv.Itoa(code)
	}
	logger.Debug("Job finished.", "id", j.ID(), "state", res.state)
	return res
}

func (a *App) report(results []jobResult) error {
	var errs []error
	for _, r := range results {
		fmt.Fprintf(a.outW, "%s %s %s\n", r.id, r.state, r.exitCode)
		switch {
		case r.err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", r.id, r.err))
		case !a.config.NoWait && r.state != adaptor.StateDone:
			errs = append(errs, fmt.Errorf("%w: %s ended %s", ErrJobsFailed, r.id, r.state))
		}
	}
	return errors.Join(errs...)
}

func (a *App) printAdaptors() error {
	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSCHEMES\tMODES")
	for _, info := range a.adaptorInfos() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, strings.Join(info.Schemes, ","), info.Modes)
	}
	return tw.Flush()
}
