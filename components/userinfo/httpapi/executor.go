package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-userinfo/components/userinfo"
	"github.com/goliatone/go-userinfo/components/userinfo/commands"
	"github.com/goliatone/go-userinfo/components/userinfo/queries"
)

// Executor is the transport-facing surface shared by net/http and go-router.
type Executor interface {
	Rerun(ctx context.Context, input commands.RerunSearchInput) error
	Snapshot(ctx context.Context, input queries.SnapshotInput) (userinfo.Snapshot, error)
}

// CommandExecutor adapts go-command commanders/queriers to Executor.
type CommandExecutor struct {
	RerunCommander  gocommand.Commander[commands.RerunSearchInput]
	SnapshotQuerier gocommand.Querier[queries.SnapshotInput, userinfo.Snapshot]
}

var _ Executor = (*CommandExecutor)(nil)

// Rerun executes the rerun command.
func (e *CommandExecutor) Rerun(ctx context.Context, input commands.RerunSearchInput) error {
	if e.RerunCommander == nil {
		return errors.New("httpapi: rerun command not configured")
	}
	return e.RerunCommander.Execute(ctx, input)
}

// Snapshot executes the snapshot query.
func (e *CommandExecutor) Snapshot(ctx context.Context, input queries.SnapshotInput) (userinfo.Snapshot, error) {
	if e.SnapshotQuerier == nil {
		return userinfo.Snapshot{}, errors.New("httpapi: snapshot query not configured")
	}
	return e.SnapshotQuerier.Query(ctx, input)
}
