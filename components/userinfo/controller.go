package userinfo

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	defaultTemplate = "userinfo.html"
	defaultTitle    = "User Info"
)

var errMissingRenderer = errors.New("userinfo: renderer not configured")

// Renderer is the template renderer contract the controller needs.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// SnapshotSource returns the content a page should display.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// MessageLocalizer is implemented by sources that can render their
// placeholder messages for another locale (see Widget.MessageFor).
type MessageLocalizer interface {
	MessageFor(ctx context.Context, state State, locale string) string
}

// ControllerOptions wires the controller collaborators.
type ControllerOptions struct {
	Source    SnapshotSource
	Renderer  Renderer
	Template  string
	Title     string
	StreamURL string
}

// Controller renders the user info page around the container content.
type Controller struct {
	opts ControllerOptions
}

// NewController builds a controller with defaults for template and title.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = defaultTemplate
	}
	if opts.Title == "" {
		opts.Title = defaultTitle
	}
	return &Controller{opts: opts}
}

// SnapshotPayload returns the current container content for JSON transports.
func (c *Controller) SnapshotPayload(ctx context.Context, viewer ViewerContext) (map[string]any, error) {
	if c.opts.Source == nil {
		return nil, ErrMissingProvider
	}
	snap, err := c.opts.Source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap, err = c.localize(ctx, snap, viewer.Locale); err != nil {
		return nil, err
	}
	return map[string]any{
		"container_id": snap.ContainerID,
		"state":        snap.State,
		"content":      snap.HTML,
		"message":      snap.Message,
		"cards":        snap.Cards,
		"skipped":      snap.Skipped,
		"generation":   snap.Generation,
		"sid":          snap.SID,
		"updated_at":   snap.UpdatedAt,
		"locale":       viewer.Locale,
		"viewer":       viewer.UserID,
	}, nil
}

// localize swaps a placeholder message for the viewer's locale. Card
// content is left as rendered.
func (c *Controller) localize(ctx context.Context, snap Snapshot, locale string) (Snapshot, error) {
	localizer, ok := c.opts.Source.(MessageLocalizer)
	if !ok || locale == "" || snap.Message == "" {
		return snap, nil
	}
	message := localizer.MessageFor(ctx, snap.State, locale)
	if message == "" || message == snap.Message {
		return snap, nil
	}
	html, err := RenderHTML(RenderMessage(message))
	if err != nil {
		return snap, err
	}
	snap.Message = message
	snap.HTML = html
	return snap, nil
}

// RenderTemplate renders the page shell with the container content into out.
func (c *Controller) RenderTemplate(ctx context.Context, viewer ViewerContext, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errMissingRenderer
	}
	payload, err := c.SnapshotPayload(ctx, viewer)
	if err != nil {
		return err
	}
	payload["title"] = c.opts.Title
	payload["stream_url"] = c.opts.StreamURL
	if _, err := c.opts.Renderer.Render(c.opts.Template, payload, out); err != nil {
		return fmt.Errorf("userinfo: render %s: %w", c.opts.Template, err)
	}
	return nil
}
