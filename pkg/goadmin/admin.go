package goadmin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-userinfo/components/userinfo"
	activitypkg "github.com/goliatone/go-userinfo/pkg/activity"
	userinfopkg "github.com/goliatone/go-userinfo/pkg/userinfo"
)

const (
	defaultMenuCode = "admin.main"
	defaultBasePath = "/admin"
)

// MenuBuilder is implemented by the host admin to add navigation entries.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem is a navigation entry pointing at the user info page.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
}

// Config plugs the user info page into a go-admin style shell. Either pass
// a built Widget, or WidgetOptions and let New build it with the admin
// activity hook attached.
type Config struct {
	EnableUserInfo  bool
	Widget          *userinfopkg.Widget
	WidgetOptions   *userinfopkg.Options
	BasePath        string
	MenuCode        string
	MenuBuilder     MenuBuilder
	DefaultMenuItem MenuItem
	ActivityHooks   activitypkg.Hooks
	ActivityConfig  activitypkg.Config
}

// Admin owns the widget lifecycle inside the admin shell.
type Admin struct {
	cfg     Config
	emitter *activitypkg.Emitter
	started bool
}

// New validates cfg, fills menu defaults and builds the widget from
// WidgetOptions when no widget is given.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableUserInfo && cfg.Widget == nil && cfg.WidgetOptions == nil {
		return nil, errors.New("goadmin: user info widget is required when enabled")
	}
	if cfg.BasePath == "" {
		cfg.BasePath = defaultBasePath
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = defaultMenuCode
	}
	item := &cfg.DefaultMenuItem
	if item.Label == "" {
		item.Label = "User Info"
	}
	if item.Route == "" {
		item.Route = strings.TrimRight(cfg.BasePath, "/") + "/userinfo"
	}
	if item.Icon == "" {
		item.Icon = "users"
	}
	admin := &Admin{
		cfg:     cfg,
		emitter: activitypkg.NewEmitter(cfg.ActivityHooks, cfg.ActivityConfig),
	}
	if cfg.EnableUserInfo && cfg.Widget == nil {
		opts := *cfg.WidgetOptions
		if hook := admin.ActivityHook(); hook != nil {
			opts.Hook = userinfo.RenderHooks{opts.Hook, hook}
		}
		widget, err := userinfopkg.NewWidget(opts)
		if err != nil {
			return nil, fmt.Errorf("goadmin: build widget: %w", err)
		}
		admin.cfg.Widget = widget
	}
	return admin, nil
}

// Widget returns the widget, or nil when the page is disabled.
func (a *Admin) Widget() *userinfopkg.Widget {
	if !a.cfg.EnableUserInfo {
		return nil
	}
	return a.cfg.Widget
}

// ActivityHook records widget renders through the admin activity hooks.
// It is nil when activity is disabled.
func (a *Admin) ActivityHook() *activitypkg.RenderHook {
	if !a.emitter.Enabled() {
		return nil
	}
	return activitypkg.NewRenderHook(a.emitter)
}

// Bootstrap seeds the menu entry and starts the widget. It does nothing
// when the page is disabled.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableUserInfo {
		return nil
	}
	if a.cfg.MenuBuilder != nil {
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, a.cfg.DefaultMenuItem); err != nil {
			return fmt.Errorf("goadmin: seed menu %s: %w", a.cfg.MenuCode, err)
		}
	}
	if !a.started {
		if err := a.cfg.Widget.Start(ctx); err != nil {
			return err
		}
		a.started = true
	}
	return a.emitter.Emit(ctx, activitypkg.Event{
		Verb:       "bootstrap",
		ObjectType: "userinfo.widget",
		ObjectID:   a.cfg.Widget.ID(),
		Metadata: map[string]any{
			"menu":  a.cfg.MenuCode,
			"route": a.cfg.DefaultMenuItem.Route,
		},
	})
}

// Shutdown stops the widget started by Bootstrap.
func (a *Admin) Shutdown() error {
	if !a.started {
		return nil
	}
	a.started = false
	return a.cfg.Widget.Stop()
}
