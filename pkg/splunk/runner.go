package splunk

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-userinfo/components/userinfo"
	"github.com/goliatone/go-userinfo/pkg/search"
)

// Client is the subset of the Splunk REST API the runner needs.
type Client interface {
	CreateJob(ctx context.Context, query string) (string, error)
	Job(ctx context.Context, sid string) (userinfo.JobProperties, error)
	Results(ctx context.Context, sid string, preview bool) (userinfo.ResultsModel, error)
}

// Runner dispatches a search on Splunk and polls it until done.
type Runner struct {
	client   Client
	interval time.Duration
	logger   *zap.Logger
}

var _ search.Runner = (*Runner)(nil)

// NewRunner builds a polling runner. A non-positive interval defaults to one second.
func NewRunner(client Client, interval time.Duration, logger *zap.Logger) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{client: client, interval: interval, logger: logger}
}

// Run implements search.Runner. Preview rows are emitted while the job runs
// whenever the result count changes; the final rows are emitted once done.
// A failed job emits a done update without rows before its error is returned.
func (r *Runner) Run(ctx context.Context, query string, emit search.Emit) error {
	sid, err := r.client.CreateJob(ctx, query)
	if err != nil {
		return err
	}
	log := r.logger.With(zap.String("sid", sid))
	log.Info("splunk job dispatched")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	lastCount := -1
	for {
		job, err := r.client.Job(ctx, sid)
		if err != nil {
			return err
		}
		if job.IsFailed {
			// a failed job is finished: subscribers get a final, empty update
			job.IsDone = true
			job.ResultCount = 0
			if err := emit(ctx, job, userinfo.ResultsModel{}); err != nil {
				return err
			}
			log.Warn("splunk job failed", zap.String("dispatch_state", job.DispatchState))
			return fmt.Errorf("splunk: job %s failed (%s)", sid, job.DispatchState)
		}
		if job.IsDone {
			results, err := r.client.Results(ctx, sid, false)
			if err != nil {
				return err
			}
			log.Info("splunk job done", zap.Int("rows", results.Len()))
			return emit(ctx, job, results)
		}
		if job.ResultCount != lastCount {
			lastCount = job.ResultCount
			results := userinfo.ResultsModel{}
			if job.ResultCount > 0 {
				if results, err = r.client.Results(ctx, sid, true); err != nil {
					return err
				}
			}
			if err := emit(ctx, job, results); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
