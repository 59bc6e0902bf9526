package userinfo

import (
	"context"
	"time"
)

// SearchProvider is the managed search-results source a widget subscribes to.
// Implementations invoke the subscription handler whenever the subscription
// condition holds or the default "new rows" condition is met.
type SearchProvider interface {
	Subscribe(ctx context.Context, sub Subscription) (cancel func(), err error)
}

// Condition decides whether a job state should be signalled as "data ready".
type Condition func(job JobProperties) bool

// DataHandler receives data-ready notifications.
type DataHandler func(ctx context.Context, update JobUpdate) error

// Subscription pairs an override condition with the data handler.
type Subscription struct {
	Condition Condition
	Handler   DataHandler
}

// RenderHook notifies transports (websocket, activity streams) about renders.
type RenderHook interface {
	WidgetRendered(ctx context.Context, event RenderEvent) error
}

// JobProperties carries the execution status of a search job.
type JobProperties struct {
	SID           string `json:"sid"`
	IsDone        bool   `json:"is_done"`
	IsFailed      bool   `json:"is_failed,omitempty"`
	DispatchState string `json:"dispatch_state,omitempty"`
	ResultCount   int    `json:"result_count"`
}

// ResultRow is one positional result row.
type ResultRow []string

// ResultsModel is the tabular result set delivered with a notification.
type ResultsModel struct {
	Fields []string    `json:"fields,omitempty"`
	Rows   []ResultRow `json:"rows"`
}

// Len returns the number of rows.
func (m ResultsModel) Len() int {
	return len(m.Rows)
}

// Row returns the row at index i, or nil when out of range.
func (m ResultsModel) Row(i int) ResultRow {
	if i < 0 || i >= len(m.Rows) {
		return nil
	}
	return m.Rows[i]
}

// JobUpdate is a single provider notification.
type JobUpdate struct {
	Seq     uint64        `json:"seq"`
	Job     JobProperties `json:"job"`
	Results ResultsModel  `json:"results"`
}

// State is the widget rendering state.
type State string

const (
	StateLoading  State = "loading"
	StateRendered State = "rendered"
)

// Snapshot is the current content of a container.
type Snapshot struct {
	ContainerID string    `json:"container_id"`
	State       State     `json:"state"`
	HTML        string    `json:"html"`
	Message     string    `json:"message,omitempty"`
	Cards       int       `json:"cards"`
	Skipped     int       `json:"skipped,omitempty"`
	Generation  uint64    `json:"generation"`
	SID         string    `json:"sid,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RenderEvent describes a completed render.
type RenderEvent struct {
	WidgetID string   `json:"widget_id"`
	SearchID string   `json:"search_id"`
	Reason   string   `json:"reason"`
	Snapshot Snapshot `json:"snapshot"`
}

// ViewerContext captures the active user/locale information needed to render pages.
type ViewerContext struct {
	UserID string
	Roles  []string
	Locale string
}
