package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-userinfo/components/userinfo"
	"github.com/goliatone/go-userinfo/components/userinfo/commands"
	"github.com/goliatone/go-userinfo/components/userinfo/httpapi"
)

// ViewerResolver converts a router.Context into a userinfo.ViewerContext.
type ViewerResolver func(router.Context) userinfo.ViewerContext

// Config wires go-router with the user info controller, API, and broadcast hook.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *userinfo.Controller
	API            httpapi.Executor
	Broadcast      *userinfo.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for user info endpoints.
type RouteConfig struct {
	HTML      string
	Snapshot  string
	Rerun     string
	WebSocket string
}

// mux is the subset of router.Router used to mount handlers.
type mux interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo
}

// requestContext is the subset of router.Context the handlers rely on.
type requestContext interface {
	Context() context.Context
	SetHeader(k, v string) router.Context
	Send(b []byte) error
	JSON(code int, v any) error
	Body() []byte
}

// Register mounts the user info routes (HTML, JSON, rerun, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	base := cfg.BasePath
	if base == "" {
		base = "/admin"
	}
	resolver := cfg.ViewerResolver
	if resolver == nil {
		resolver = defaultViewerResolver
	}
	mount(cfg.Router.Group(base), handlers{
		controller: cfg.Controller,
		api:        cfg.API,
		broadcast:  cfg.Broadcast,
		resolver:   resolver,
	}, defaultRouteConfig(cfg.Routes))
	return nil
}

type handlers struct {
	controller *userinfo.Controller
	api        httpapi.Executor
	broadcast  *userinfo.BroadcastHook
	resolver   ViewerResolver
}

func mount(r mux, h handlers, routes RouteConfig) {
	r.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		return h.page(ctx, h.resolver(ctx))
	}))
	r.Get(routes.Snapshot, router.WrapHandler(func(ctx router.Context) error {
		return h.snapshot(ctx, h.resolver(ctx))
	}))
	if h.api != nil {
		r.Post(routes.Rerun, router.WrapHandler(func(ctx router.Context) error {
			return h.rerun(ctx, h.resolver(ctx))
		}))
	}
	if h.broadcast != nil {
		r.WebSocket(routes.WebSocket, router.DefaultWebSocketConfig(), h.stream)
	}
}

func (h handlers) page(ctx requestContext, viewer userinfo.ViewerContext) error {
	var buf bytes.Buffer
	if err := h.controller.RenderTemplate(ctx.Context(), viewer, &buf); err != nil {
		return respondError(ctx, http.StatusInternalServerError, err)
	}
	ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
	return ctx.Send(buf.Bytes())
}

func (h handlers) snapshot(ctx requestContext, viewer userinfo.ViewerContext) error {
	payload, err := h.controller.SnapshotPayload(ctx.Context(), viewer)
	if err != nil {
		return respondError(ctx, http.StatusInternalServerError, err)
	}
	return ctx.JSON(http.StatusOK, payload)
}

func (h handlers) rerun(ctx requestContext, viewer userinfo.ViewerContext) error {
	var payload commands.RerunSearchInput
	if body := ctx.Body(); len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
	}
	if payload.UserID == "" {
		payload.UserID = viewer.UserID
	}
	if err := h.api.Rerun(ctx.Context(), payload); err != nil {
		return respondError(ctx, http.StatusInternalServerError, err)
	}
	return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h handlers) stream(ws router.WebSocketContext) error {
	events, cancel := h.broadcast.Subscribe()
	defer cancel()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(event); err != nil {
				return err
			}
		case <-ws.Context().Done():
			return ws.Close()
		}
	}
}

func defaultViewerResolver(ctx router.Context) userinfo.ViewerContext {
	var viewer userinfo.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	if roles, ok := ctx.Locals("roles").([]string); ok {
		viewer.Roles = roles
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	return parseAcceptLanguage(ctx.Header("Accept-Language"))
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = strings.TrimSpace(token[:idx])
		}
		if token != "" && token != "*" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func respondError(ctx requestContext, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/userinfo"
	}
	if routes.Snapshot == "" {
		routes.Snapshot = "/userinfo/_snapshot"
	}
	if routes.Rerun == "" {
		routes.Rerun = "/userinfo/rerun"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/userinfo/ws"
	}
	return routes
}
