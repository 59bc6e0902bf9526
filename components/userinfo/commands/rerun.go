package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-userinfo/components/userinfo"
)

// RerunSearchInput requests a user-triggered re-run of the widget search.
type RerunSearchInput struct {
	SearchID string `json:"search_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

type rerunner interface {
	ID() string
	Rerun(ctx context.Context) error
}

// RerunSearchCommand dispatches the search again; the widget re-renders when
// the provider re-signals.
type RerunSearchCommand struct {
	search    rerunner
	telemetry userinfo.Telemetry
}

// NewRerunSearchCommand creates the command.
func NewRerunSearchCommand(search rerunner, telemetry userinfo.Telemetry) *RerunSearchCommand {
	return &RerunSearchCommand{search: search, telemetry: userinfo.NormalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RerunSearchInput] = (*RerunSearchCommand)(nil)

// Execute re-runs the search.
func (c *RerunSearchCommand) Execute(ctx context.Context, msg RerunSearchInput) error {
	if c.search == nil {
		return errors.New("rerun command requires search manager")
	}
	if msg.SearchID != "" && msg.SearchID != c.search.ID() {
		return fmt.Errorf("rerun: unknown search %q (serving %q)", msg.SearchID, c.search.ID())
	}
	if err := c.search.Rerun(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "userinfo.search.rerun", map[string]any{
		"search_id": c.search.ID(),
		"user_id":   msg.UserID,
	})
	return nil
}
