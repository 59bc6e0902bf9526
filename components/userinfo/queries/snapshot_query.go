package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-userinfo/components/userinfo"
)

// SnapshotInput identifies the viewer asking for the container content.
type SnapshotInput struct {
	Viewer userinfo.ViewerContext
}

// SnapshotQuery returns the current user info container content.
type SnapshotQuery struct {
	source userinfo.SnapshotSource
}

// NewSnapshotQuery builds the query.
func NewSnapshotQuery(source userinfo.SnapshotSource) *SnapshotQuery {
	return &SnapshotQuery{source: source}
}

var _ gocommand.Querier[SnapshotInput, userinfo.Snapshot] = (*SnapshotQuery)(nil)

// Query resolves the snapshot.
func (q *SnapshotQuery) Query(ctx context.Context, _ SnapshotInput) (userinfo.Snapshot, error) {
	if q.source == nil {
		return userinfo.Snapshot{}, userinfo.ErrMissingProvider
	}
	return q.source.Snapshot(ctx)
}
