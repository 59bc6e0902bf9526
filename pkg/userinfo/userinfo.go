// Package userinfo is the entry point for embedding the user info widget.
package userinfo

import (
	core "github.com/goliatone/go-userinfo/components/userinfo"
)

// Widget exposes the underlying components/userinfo.Widget type.
type Widget = core.Widget

// Options re-export for convenience.
type Options = core.Options

// NewWidget proxies to the component constructor.
func NewWidget(opts Options) (*Widget, error) {
	return core.NewWidget(opts)
}

// OptionsFromConfig maps a configuration document onto widget options bound
// to provider. Hooks, telemetry and logging are left for the caller.
func OptionsFromConfig(cfg core.Config, provider core.SearchProvider) Options {
	return Options{
		SearchID:  cfg.SearchID,
		Provider:  provider,
		Container: core.NewContainer(cfg.ContainerID),
		Messages:  cfg.Messages,
		Locale:    cfg.Locale,
	}
}
