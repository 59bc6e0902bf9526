package activity

import (
	"context"
	"strconv"

	"github.com/goliatone/go-userinfo/components/userinfo"
)

// RenderHook records widget renders as activity events.
type RenderHook struct {
	Emitter *Emitter
}

var _ userinfo.RenderHook = (*RenderHook)(nil)

// NewRenderHook wraps an emitter.
func NewRenderHook(emitter *Emitter) *RenderHook {
	return &RenderHook{Emitter: emitter}
}

// WidgetRendered converts the render event into an activity event.
func (h *RenderHook) WidgetRendered(ctx context.Context, event userinfo.RenderEvent) error {
	if h == nil || !h.Emitter.Enabled() {
		return nil
	}
	snap := event.Snapshot
	return h.Emitter.Emit(ctx, Event{
		Verb:           event.Reason,
		ObjectType:     "userinfo.widget",
		ObjectID:       event.WidgetID,
		DefinitionCode: event.WidgetID,
		Metadata: map[string]any{
			"search_id":    event.SearchID,
			"container_id": snap.ContainerID,
			"state":        string(snap.State),
			"cards":        snap.Cards,
			"skipped":      snap.Skipped,
			"generation":   strconv.FormatUint(snap.Generation, 10),
			"sid":          snap.SID,
		},
		OccurredAt: snap.UpdatedAt,
	})
}
