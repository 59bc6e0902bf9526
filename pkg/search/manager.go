package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-userinfo/components/userinfo"
)

var (
	errMissingRunner = errors.New("search: runner not configured")
	errClosed        = errors.New("search: manager closed")
)

// Emit publishes a job progress update produced by a runner.
type Emit func(ctx context.Context, job userinfo.JobProperties, results userinfo.ResultsModel) error

// Runner executes a search query and reports progress through emit until the job is done.
type Runner interface {
	Run(ctx context.Context, query string, emit Emit) error
}

// Option customizes a Manager.
type Option func(*Manager)

// WithRunner sets the search runner used by Run and Rerun.
func WithRunner(r Runner) Option {
	return func(m *Manager) { m.runner = r }
}

// WithQuery sets the search query.
func WithQuery(q string) Option {
	return func(m *Manager) { m.query = q }
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager owns the lifecycle of one saved search and notifies subscribers
// through a watermill in-memory pub/sub. It implements userinfo.SearchProvider.
type Manager struct {
	id     string
	query  string
	runner Runner
	logger *zap.Logger
	pubsub *gochannel.GoChannel
	topic  string

	mu        sync.Mutex
	seq       uint64
	latest    *userinfo.JobUpdate
	runCancel context.CancelFunc
	runWG     sync.WaitGroup
	closed    bool
}

var _ userinfo.SearchProvider = (*Manager)(nil)

// NewManager creates a manager for the search id.
func NewManager(id string, opts ...Option) *Manager {
	if id == "" {
		id = userinfo.DefaultSearchID
	}
	m := &Manager{
		id:     id,
		query:  userinfo.DefaultQuery,
		logger: zap.NewNop(),
		topic:  "search." + id + ".progress",
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("search_id", id))
	m.pubsub = gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            16,
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NewStdLogger(false, false))
	return m
}

// ID returns the search id.
func (m *Manager) ID() string {
	return m.id
}

// Subscribe delivers updates matching sub to its handler until ctx is
// cancelled or the returned cancel func is called. Handler errors are logged
// and acknowledged; notifications are never retried.
func (m *Manager) Subscribe(ctx context.Context, sub userinfo.Subscription) (func(), error) {
	if sub.Handler == nil {
		return nil, fmt.Errorf("search: subscription handler is required")
	}
	subCtx, cancel := context.WithCancel(ctx)
	messages, err := m.pubsub.Subscribe(subCtx, m.topic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("search: subscribe %s: %w", m.id, err)
	}
	go func() {
		// a late subscriber still sees a search that already completed
		if latest, ok := m.Latest(); ok {
			m.deliver(subCtx, sub, latest, "replay")
		}
		for msg := range messages {
			var update userinfo.JobUpdate
			if err := json.Unmarshal(msg.Payload, &update); err != nil {
				m.logger.Error("decode search update", zap.String("msg_id", msg.UUID), zap.Error(err))
			} else {
				m.deliver(subCtx, sub, update, msg.UUID)
			}
			msg.Ack()
		}
		m.logger.Debug("subscription loop ended")
	}()
	return cancel, nil
}

func (m *Manager) deliver(ctx context.Context, sub userinfo.Subscription, update userinfo.JobUpdate, msgID string) {
	if !sub.ShouldNotify(update) {
		return
	}
	if err := sub.Handler(ctx, update); err != nil {
		m.logger.Error("search data handler failed",
			zap.String("msg_id", msgID),
			zap.Uint64("seq", update.Seq),
			zap.Error(err))
	}
}

// Publish records a job progress update and broadcasts it to subscribers.
func (m *Manager) Publish(ctx context.Context, job userinfo.JobProperties, results userinfo.ResultsModel) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errClosed
	}
	m.seq++
	if job.ResultCount == 0 {
		job.ResultCount = results.Len()
	}
	update := userinfo.JobUpdate{Seq: m.seq, Job: job, Results: results}
	m.latest = &update
	m.mu.Unlock()

	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("search: encode update: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("search_id", m.id)
	msg.Metadata.Set("sid", job.SID)
	if err := m.pubsub.Publish(m.topic, msg); err != nil {
		return fmt.Errorf("search: publish %s: %w", m.id, err)
	}
	m.logger.Debug("published search update",
		zap.Uint64("seq", update.Seq),
		zap.String("sid", job.SID),
		zap.Bool("is_done", job.IsDone),
		zap.Int("rows", results.Len()))
	return nil
}

// Latest returns the most recent update, if any.
func (m *Manager) Latest() (userinfo.JobUpdate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == nil {
		return userinfo.JobUpdate{}, false
	}
	return *m.latest, true
}

// Run executes the search synchronously and publishes each progress update.
func (m *Manager) Run(ctx context.Context) error {
	if m.runner == nil {
		return errMissingRunner
	}
	sid := uuid.NewString()
	emit := func(ctx context.Context, job userinfo.JobProperties, results userinfo.ResultsModel) error {
		if job.SID == "" {
			job.SID = sid
		}
		return m.Publish(ctx, job, results)
	}
	m.logger.Info("dispatching search", zap.String("query", m.query))
	if err := m.runner.Run(ctx, m.query, emit); err != nil {
		return fmt.Errorf("search: run %s: %w", m.id, err)
	}
	return nil
}

// Rerun starts the search in the background, cancelling any run in flight.
// Results reach subscribers through the normal notification path.
func (m *Manager) Rerun(context.Context) error {
	if m.runner == nil {
		return errMissingRunner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	if m.runCancel != nil {
		m.runCancel()
	}
	runCtx, cancel := context.WithCancel(context.Background())
	m.runCancel = cancel
	m.runWG.Add(1)
	go func() {
		defer m.runWG.Done()
		if err := m.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("search rerun failed", zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until background runs started by Rerun have finished.
func (m *Manager) Wait() {
	m.runWG.Wait()
}

// Close cancels in-flight runs and shuts down the pub/sub.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.runCancel != nil {
		m.runCancel()
	}
	m.mu.Unlock()
	m.runWG.Wait()
	return m.pubsub.Close()
}
