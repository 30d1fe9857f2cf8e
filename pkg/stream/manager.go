// Package stream owns the WebSocket connection lifecycle: dialing,
// receiving, bounded retry, and teardown on source changes. Received
// lines are debounced through a per-session coalescer into a
// per-session bounded buffer; the UI observes everything through a
// status channel and snapshot reads.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lanternhq/lantern/pkg/coalesce"
	"github.com/lanternhq/lantern/pkg/core"
)

// State is the transport connection lifecycle, read-only to observers.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "disconnected"
	}
}

const (
	// DefaultRetryBudget is the number of consecutive failed connection
	// attempts before the manager gives up until the next explicit
	// connect request.
	DefaultRetryBudget = 10

	// DefaultRetryDelay is the fixed delay between retry attempts.
	DefaultRetryDelay = time.Second

	// DefaultInterval is the server-side delivery interval requested in
	// the endpoint query string.
	DefaultInterval = 250 * time.Millisecond
)

// EventKind distinguishes manager notifications.
type EventKind int

const (
	// EventState signals a connection state change.
	EventState EventKind = iota
	// EventLines signals that the session buffer gained content;
	// consumers re-read via Snapshot.
	EventLines
)

// Event is a notification pushed to the events channel. Events carry
// the session ID they belong to so late deliveries from a torn-down
// session are recognizable.
type Event struct {
	Kind      EventKind
	SessionID string
	State     State
	Err       error
	// Terminal marks a closed state that will not retry on its own:
	// retry budget exhausted or a configuration error.
	Terminal bool
}

// Options configures a Manager.
type Options struct {
	BaseURL     string
	Tokens      core.TokenSource
	Interval    time.Duration // server-side delivery interval; 0 = DefaultInterval
	Capacity    int           // buffer capacity; 0 = core.DefaultCapacity
	Window      time.Duration // coalescer quiescence window; 0 = coalesce.DefaultWindow
	MaxDelay    time.Duration // coalescer burst ceiling; 0 disables
	RetryBudget int           // 0 = DefaultRetryBudget
	RetryDelay  time.Duration // 0 = DefaultRetryDelay
}

func (o *Options) applyDefaults() {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.RetryBudget <= 0 {
		o.RetryBudget = DefaultRetryBudget
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
}

// session is one connection lifetime, created per source selection.
// Buffer and coalescer belong to the session and die with it, so a
// stale line can never land in a newer source's buffer.
type session struct {
	id        string
	sourceID  string
	ctx       context.Context
	cancel    context.CancelFunc
	buffer    *core.Buffer
	coalescer *coalesce.Coalescer
}

// Manager drives the connection state machine.
type Manager struct {
	opts   Options
	dialer *websocket.Dialer
	logger *slog.Logger
	events chan Event

	mu      sync.Mutex
	session *session
	state   State
}

// New creates a manager. A nil logger discards log output.
func New(opts Options, logger *slog.Logger) *Manager {
	opts.applyDefaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		opts:   opts,
		dialer: websocket.DefaultDialer,
		logger: logger,
		events: make(chan Event, 64),
	}
}

// Events returns the notification channel. The channel is never
// closed; events are dropped rather than blocking when the consumer
// falls behind, and consumers re-read state via State and Snapshot.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a copy of the current session's buffered lines.
func (m *Manager) Snapshot() []core.LogLine {
	m.mu.Lock()
	s := m.session
	m.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.buffer.Snapshot()
}

// Connect tears down any current session and starts a new one for the
// given source. An empty sourceID selects the default/primary source.
// The teardown boundary cancels the old session context and its
// pending coalesced flush before the new session exists, so no line
// from the old transport can cross over.
func (m *Manager) Connect(sourceID string) {
	_, endpointErr := Endpoint(m.opts.BaseURL, sourceID, m.opts.Interval, m.opts.Tokens.Token())

	m.mu.Lock()
	m.teardownLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:       uuid.NewString(),
		sourceID: sourceID,
		ctx:      ctx,
		cancel:   cancel,
		buffer:   core.NewBuffer(m.opts.Capacity),
	}
	s.coalescer = coalesce.New(m.opts.Window, m.opts.MaxDelay, func(line core.LogLine) {
		if s.ctx.Err() != nil {
			return
		}
		s.buffer.Append(line)
		m.emit(Event{Kind: EventLines, SessionID: s.id})
	})
	m.session = s
	m.mu.Unlock()

	if endpointErr != nil {
		// Configuration error: no connection attempt, no retries.
		m.logger.Error("endpoint construction failed", "err", endpointErr)
		m.setState(s, StateClosed, endpointErr, true)
		return
	}

	go m.run(s)
}

// Close tears down the current session. The manager can be reused with
// a later Connect.
func (m *Manager) Close() {
	m.mu.Lock()
	m.teardownLocked()
	m.session = nil
	m.state = StateClosed
	m.mu.Unlock()
}

// teardownLocked cancels the current session. Callers hold m.mu.
func (m *Manager) teardownLocked() {
	s := m.session
	if s == nil {
		return
	}
	m.state = StateClosing
	m.emit(Event{Kind: EventState, SessionID: s.id, State: StateClosing})
	s.cancel()
	s.coalescer.CancelPending()
	s.buffer.Reset()
}

// run is the per-session connect/receive/retry loop. It exits when the
// session context is cancelled or the retry budget is exhausted. The
// endpoint is rebuilt per attempt so each dial carries a fresh token
// from the credential source.
func (m *Manager) run(s *session) {
	attempts := 0
	for {
		if s.ctx.Err() != nil {
			return
		}
		m.setState(s, StateConnecting, nil, false)

		endpoint, err := Endpoint(m.opts.BaseURL, s.sourceID, m.opts.Interval, m.opts.Tokens.Token())
		if err != nil {
			m.setState(s, StateClosed, err, true)
			return
		}

		conn, resp, err := m.dialer.DialContext(s.ctx, endpoint, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			attempts++
			m.logger.Debug("dial failed", "source", s.sourceID, "attempt", attempts, "err", err)
			if attempts >= m.opts.RetryBudget {
				m.setState(s, StateClosed, fmt.Errorf("giving up after %d attempts: %w", attempts, err), true)
				return
			}
			m.setState(s, StateClosed, err, false)
			select {
			case <-time.After(m.opts.RetryDelay):
			case <-s.ctx.Done():
				return
			}
			continue
		}

		attempts = 0
		m.setState(s, StateOpen, nil, false)
		m.receive(s, conn)
		conn.Close()

		if s.ctx.Err() != nil {
			return
		}
		m.setState(s, StateClosed, nil, false)
		select {
		case <-time.After(m.opts.RetryDelay):
		case <-s.ctx.Done():
			return
		}
	}
}

// receive reads frames until the connection drops or the session is
// cancelled. A frame may carry several newline-joined lines when the
// server batches by interval; each line is submitted individually.
func (m *Manager) receive(s *session, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		now := time.Now().UnixMilli()
		for _, raw := range strings.Split(string(data), "\n") {
			if raw == "" {
				continue
			}
			s.coalescer.Submit(core.LogLine{
				SourceID: s.sourceID,
				TsUnixMs: now,
				Line:     raw,
			})
		}
	}
}

// setState records a state change for s and emits it, unless s has
// been superseded by a newer session.
func (m *Manager) setState(s *session, state State, err error, terminal bool) {
	m.mu.Lock()
	if m.session != s {
		m.mu.Unlock()
		return
	}
	m.state = state
	m.mu.Unlock()
	m.emit(Event{Kind: EventState, SessionID: s.id, State: state, Err: err, Terminal: terminal})
}

// emit pushes an event without blocking; the consumer re-reads current
// state, so dropping under backpressure is safe.
func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}
