package userinfo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	g "maragu.dev/gomponents"
)

const DefaultWidgetID = "userinfo.widget.cards"

var (
	// ErrMissingProvider is returned when a widget is built without a search provider.
	ErrMissingProvider = errors.New("userinfo: search provider is required")
	errNotStarted      = errors.New("userinfo: widget not started")
	errAlreadyStarted  = errors.New("userinfo: widget already started")
)

// Options configures a Widget. The search provider is injected directly.
type Options struct {
	ID         string
	SearchID   string
	Provider   SearchProvider
	Container  *Container
	Condition  Condition
	Messages   Messages
	Locale     string
	Translator TranslationService
	Telemetry  Telemetry
	Hook       RenderHook
	Logger     *zap.Logger
}

// Widget renders search results into user info cards. It is a two-state
// machine: Loading until the job is done (regardless of row count) or rows
// arrive, Rendered afterwards. Each notification fully replaces the content.
type Widget struct {
	opts Options

	mu      sync.Mutex
	state   State
	lastSeq uint64
	cancel  func()
}

// NewWidget validates the options and builds a widget in the Loading state.
func NewWidget(opts Options) (*Widget, error) {
	if opts.Provider == nil {
		return nil, ErrMissingProvider
	}
	if opts.ID == "" {
		opts.ID = DefaultWidgetID
	}
	if opts.SearchID == "" {
		opts.SearchID = DefaultSearchID
	}
	if opts.Container == nil {
		opts.Container = NewContainer(DefaultContainerID)
	}
	if opts.Condition == nil {
		opts.Condition = DoneCondition
	}
	if opts.Hook == nil {
		opts.Hook = noopRenderHook{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Messages = opts.Messages.withDefaults()
	opts.Telemetry = NormalizeTelemetry(opts.Telemetry)
	opts.Logger = opts.Logger.With(zap.String("widget", opts.ID), zap.String("search_id", opts.SearchID))
	return &Widget{opts: opts, state: StateLoading}, nil
}

// ID returns the widget identifier.
func (w *Widget) ID() string {
	return w.opts.ID
}

// Container exposes the container the widget renders into.
func (w *Widget) Container() *Container {
	return w.opts.Container
}

// Start shows the loading placeholder and subscribes to the provider.
func (w *Widget) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return errAlreadyStarted
	}
	w.cancel = func() {}
	// the provider may replay an update already handled before a Stop
	w.lastSeq = 0
	message := w.opts.Messages.LoadingFor(ctx, w.opts.Translator, w.opts.Locale)
	if err := w.replaceLocked(ctx, StateLoading, RenderMessage(message), message, 0, 0, "", "loading"); err != nil {
		w.cancel = nil
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	// providers may notify from within Subscribe, so the lock is not held here
	cancel, err := w.opts.Provider.Subscribe(ctx, Subscription{
		Condition: w.opts.Condition,
		Handler:   w.HandleData,
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.cancel = nil
		return fmt.Errorf("userinfo: subscribe to %s: %w", w.opts.SearchID, err)
	}
	if cancel != nil {
		w.cancel = cancel
	}
	w.opts.Logger.Debug("subscribed to search results")
	return nil
}

// Stop cancels the provider subscription.
func (w *Widget) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel == nil {
		return errNotStarted
	}
	w.cancel()
	w.cancel = nil
	return nil
}

// State returns the current state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Snapshot returns the current container content.
func (w *Widget) Snapshot(context.Context) (Snapshot, error) {
	return w.opts.Container.Snapshot(), nil
}

// MessageFor returns the placeholder shown in state for a viewer locale:
// the loading message while Loading, the empty message once Rendered. An
// empty locale uses the widget locale.
func (w *Widget) MessageFor(ctx context.Context, state State, locale string) string {
	if locale == "" {
		locale = w.opts.Locale
	}
	if state == StateLoading {
		return w.opts.Messages.LoadingFor(ctx, w.opts.Translator, locale)
	}
	return w.opts.Messages.EmptyFor(ctx, w.opts.Translator, locale)
}

// HandleData is the data-ready handler. It is safe to call repeatedly;
// updates older than the last handled sequence are discarded.
func (w *Widget) HandleData(ctx context.Context, update JobUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if update.Seq != 0 && update.Seq <= w.lastSeq {
		w.opts.Logger.Debug("discarding stale search update",
			zap.Uint64("seq", update.Seq),
			zap.Uint64("last_seq", w.lastSeq))
		w.opts.Telemetry.Record(ctx, "userinfo.widget.stale", map[string]any{
			"seq":      update.Seq,
			"last_seq": w.lastSeq,
		})
		return nil
	}
	if !w.ready(update) {
		return nil
	}
	if update.Seq != 0 {
		w.lastSeq = update.Seq
	}

	if update.Results.Len() == 0 {
		message := w.opts.Messages.EmptyFor(ctx, w.opts.Translator, w.opts.Locale)
		return w.replaceLocked(ctx, StateRendered, RenderMessage(message), message, 0, 0, update.Job.SID, "empty")
	}

	rows := update.Results.Positional()
	infos := make([]UserInfo, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		info, err := DecodeRow(i, row)
		if err != nil {
			skipped++
			w.opts.Logger.Warn("skipping malformed result row",
				zap.Int("row", i),
				zap.Int("fields", len(row)),
				zap.Error(err))
			w.opts.Telemetry.Record(ctx, "userinfo.row.decode_error", map[string]any{
				"row":    i,
				"fields": len(row),
				"sid":    update.Job.SID,
			})
			continue
		}
		infos = append(infos, info)
	}
	return w.replaceLocked(ctx, StateRendered, RenderCards(infos), "", len(infos), skipped, update.Job.SID, "render")
}

// ready applies the single transition rule of the state machine.
func (w *Widget) ready(update JobUpdate) bool {
	return w.opts.Condition(update.Job) || DefaultCondition(update)
}

func (w *Widget) replaceLocked(ctx context.Context, state State, node g.Node, message string, cards, skipped int, sid, reason string) error {
	html, err := RenderHTML(node)
	if err != nil {
		return err
	}
	gen := w.opts.Container.Next()
	snap := Snapshot{
		State:      state,
		HTML:       html,
		Message:    message,
		Cards:      cards,
		Skipped:    skipped,
		Generation: gen,
		SID:        sid,
	}
	if !w.opts.Container.Replace(snap) {
		w.opts.Logger.Warn("container holds newer content, render dropped",
			zap.String("container", w.opts.Container.ID()),
			zap.Uint64("generation", gen),
			zap.Uint64("current", w.opts.Container.Generation()))
		return nil
	}
	w.state = state
	snap = w.opts.Container.Snapshot()
	w.opts.Telemetry.Record(ctx, "userinfo.widget."+reason, map[string]any{
		"cards":      cards,
		"skipped":    skipped,
		"generation": snap.Generation,
		"sid":        sid,
	})
	w.opts.Logger.Debug("container updated",
		zap.String("state", string(state)),
		zap.Int("cards", cards),
		zap.Int("skipped", skipped),
		zap.Uint64("generation", snap.Generation))
	if err := w.opts.Hook.WidgetRendered(ctx, RenderEvent{
		WidgetID: w.opts.ID,
		SearchID: w.opts.SearchID,
		Reason:   reason,
		Snapshot: snap,
	}); err != nil {
		w.opts.Logger.Warn("render hook failed", zap.Error(err))
	}
	return nil
}

// RenderHooks fans a render event out to several hooks.
type RenderHooks []RenderHook

// WidgetRendered notifies every hook and joins their errors.
func (hooks RenderHooks) WidgetRendered(ctx context.Context, event RenderEvent) error {
	var err error
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		err = errors.Join(err, hook.WidgetRendered(ctx, event))
	}
	return err
}

type noopRenderHook struct{}

func (noopRenderHook) WidgetRendered(context.Context, RenderEvent) error { return nil }
