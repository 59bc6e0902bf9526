package search

import (
	"context"
	"sync"

	"github.com/goliatone/go-userinfo/components/userinfo"
)

// StaticRunner replays fixture rows: one running update without rows, then
// a done update carrying the rows. It serves demos and tests.
type StaticRunner struct {
	mu      sync.RWMutex
	results userinfo.ResultsModel
}

// NewStaticRunner builds a runner for the fixture result set.
func NewStaticRunner(results userinfo.ResultsModel) *StaticRunner {
	return &StaticRunner{results: cloneResults(results)}
}

// SetResults swaps the fixture rows returned by subsequent runs.
func (r *StaticRunner) SetResults(results userinfo.ResultsModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = cloneResults(results)
}

// Run implements Runner.
func (r *StaticRunner) Run(ctx context.Context, _ string, emit Emit) error {
	r.mu.RLock()
	results := cloneResults(r.results)
	r.mu.RUnlock()

	if err := emit(ctx, userinfo.JobProperties{DispatchState: "RUNNING"}, userinfo.ResultsModel{}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return emit(ctx, userinfo.JobProperties{
		IsDone:        true,
		DispatchState: "DONE",
		ResultCount:   results.Len(),
	}, results)
}

func cloneResults(results userinfo.ResultsModel) userinfo.ResultsModel {
	out := userinfo.ResultsModel{
		Fields: append([]string(nil), results.Fields...),
		Rows:   make([]userinfo.ResultRow, len(results.Rows)),
	}
	for i, row := range results.Rows {
		out.Rows[i] = append(userinfo.ResultRow(nil), row...)
	}
	return out
}
