package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/benbjohnson/clock"
	"github.com/veiloq/socket-wrapper/pkg/logging"
	"github.com/veiloq/socket-wrapper/pkg/ratelimit"
)

// connState is the reconnect controller state: connected, waiting for a
// scheduled reconnect to fire, or disconnected for good after a reconnect
// cycle exhausted its dial attempts.
type connState int

const (
	stateConnected connState = iota
	stateReconnectPending
	stateDisconnected
)

// Metrics holds connection statistics for a facade.
type Metrics struct {
	ConnectedAt       time.Time
	Sends             int64
	Reconnects        int64
	ReconnectFailures int64
}

// Socket is a reconnecting, event-driven facade over a bidirectional message
// transport. It exposes a stable subscription surface (Connect, Disconnect,
// Message, Error) that survives the underlying transport being torn down
// and replaced during automatic reconnection: every recorded subscription is
// replayed onto the replacement in registration order, without the caller
// re-subscribing or losing the handle it needs for Unsubscribe.
//
// A Socket is either a client (NewClient) that owns an outbound connection,
// or a server (NewServer) wrapping a server-level handle attached to an
// external listener. Mode and address are fixed at construction; the
// transport is the only mutable identity.
type Socket struct {
	addr string
	mode Mode

	reconnect         bool
	reconnectDelay    time.Duration
	reconnectAttempts uint

	dialer  Dialer
	clk     clock.Clock
	logger  logging.Logger
	limiter ratelimit.RateLimiter

	mu        sync.Mutex
	transport Transport
	state     connState
	reg       registry

	metricsMu sync.RWMutex
	metrics   Metrics
}

// NewClient dials a websocket connection to host (with an optional port; an
// empty port uses the scheme default) and wraps it in a client-mode facade.
// The scheme is "wss" unless WithInsecure is given. Reconnection is enabled
// by default: on every disconnect the facade waits DefaultReconnectDelay,
// dials a replacement transport to the same address and replays all active
// subscriptions onto it.
//
// The returned facade is already connected; the initial open is consumed
// during construction. Use the error return to learn whether the first dial
// succeeded, and OnConnect to observe reconnections.
//
// Example:
//
//	ws, err := socket.NewClient("example.com", "443")
//	if err != nil {
//		log.Fatal(err)
//	}
//	ws.OnMessage(func(payload []byte) {
//		fmt.Printf("received: %s\n", payload)
//	})
func NewClient(host, port string, opts ...Option) (*Socket, error) {
	if host == "" {
		return nil, ErrMissingHost
	}

	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	addr := buildURI(host, port, cfg.secure)

	dialer := cfg.dialer
	if dialer == nil {
		heartbeat := cfg.heartbeat
		logger := cfg.logger
		dialer = func(uri string) (Transport, error) {
			return dialWebsocket(uri, heartbeat, logger)
		}
	}

	transport, err := dialer(addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	s := &Socket{
		addr:              addr,
		mode:              Client,
		reconnect:         cfg.reconnect,
		reconnectDelay:    cfg.reconnectDelay,
		reconnectAttempts: cfg.reconnectAttempts,
		dialer:            dialer,
		clk:               cfg.clk,
		logger:            cfg.logger,
		transport:         transport,
		metrics:           Metrics{ConnectedAt: time.Now()},
	}
	if cfg.sendRate != nil {
		s.limiter = ratelimit.NewTokenBucketLimiter(*cfg.sendRate)
	}

	if s.reconnect {
		// The reconnect hook is an ordinary registry entry so it is
		// replayed onto every replacement transport, keeping the cycle
		// self-sustaining. The internal flag keeps it out of reach of
		// Unsubscribe.
		s.subscribe(Disconnect, NewListener(func(Event) {
			s.scheduleReconnect()
		}), true)
	}

	transport.Start()
	s.logger.Info("socket connected", logging.String("addr", addr))
	return s, nil
}

// NewServer attaches a websocket server transport to an already-initialized
// listener and wraps it in a server-mode facade. Server facades never
// reconnect: accepted connections are inbound and belong to the listener.
// Connect fires once per accepted peer, Message for every inbound payload
// from any peer, and Send broadcasts to all live peers.
func NewServer(ln net.Listener, opts ...Option) (*Socket, error) {
	if ln == nil {
		return nil, ErrMissingListener
	}

	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	transport := attachServer(ln, cfg.logger)

	s := &Socket{
		mode:      Server,
		clk:       cfg.clk,
		logger:    cfg.logger,
		transport: transport,
		metrics:   Metrics{ConnectedAt: time.Now()},
	}
	if cfg.sendRate != nil {
		s.limiter = ratelimit.NewTokenBucketLimiter(*cfg.sendRate)
	}

	transport.Start()
	s.logger.Info("socket serving", logging.String("addr", ln.Addr().String()))
	return s, nil
}

// buildURI assembles the immutable connection target for a client facade.
func buildURI(host, port string, secure bool) string {
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	addr := host
	if port != "" {
		addr = net.JoinHostPort(host, port)
	}
	u := url.URL{Scheme: scheme, Host: addr}
	return u.String()
}

// Addr returns the connection target a client facade was built with. It is
// empty in server mode.
func (s *Socket) Addr() string {
	return s.addr
}

// Mode reports whether the facade is a client or a server.
func (s *Socket) Mode() Mode {
	return s.mode
}

// OnMessage subscribes fn to inbound payloads. Every subscription is
// retained independently; subscribing the same function twice yields two
// distinct handles that both fire.
func (s *Socket) OnMessage(fn func(payload []byte)) *Subscription {
	return s.subscribe(Message, NewListener(func(ev Event) {
		fn(ev.Payload)
	}), false)
}

// OnConnect subscribes fn to the transport opening (client mode) or a peer
// connection being accepted (server mode). In client mode the initial
// transport is already live when NewClient returns, so its open fires before
// any subscription made afterwards can observe it; OnConnect is for the opens
// of replacement transports installed by reconnection.
func (s *Socket) OnConnect(fn func()) *Subscription {
	return s.subscribe(Connect, NewListener(func(Event) {
		fn()
	}), false)
}

// OnDisconnect subscribes fn to the transport closing.
func (s *Socket) OnDisconnect(fn func()) *Subscription {
	return s.subscribe(Disconnect, NewListener(func(Event) {
		fn()
	}), false)
}

// OnError subscribes fn to transport-level errors and to failed reconnect
// attempts. Errors never trigger reconnection by themselves; only a genuine
// disconnect does.
func (s *Socket) OnError(fn func(err error)) *Subscription {
	return s.subscribe(Error, NewListener(func(ev Event) {
		fn(ev.Err)
	}), false)
}

// subscribe records the pair in the registry and installs it on the live
// transport under the mode-specific native event name.
func (s *Socket) subscribe(c Category, l *Listener, internal bool) *Subscription {
	sub := &Subscription{category: c, listener: l, internal: internal}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.record(sub)
	s.transport.On(s.mode.nativeEvent(c), l)
	return sub
}

// Unsubscribe removes the subscription and detaches its listener from the
// live transport. The callback never fires again, including after any later
// reconnect. Unknown or nil handles are a no-op, as are attempts to remove
// the facade's internal reconnect hook.
func (s *Socket) Unsubscribe(sub *Subscription) {
	if sub == nil || sub.internal {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reg.removeFirst(sub) {
		s.transport.RemoveListener(s.mode.nativeEvent(sub.category), sub.listener)
	}
}

// Send forwards a raw payload to the live transport. It returns
// ErrNotConnected while a reconnect is pending, after a failed reconnect
// cycle, or when the transport is closed; payloads sent during a
// disconnected window are dropped, never queued.
func (s *Socket) Send(payload []byte) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(context.Background()); err != nil {
			return err
		}
	}

	s.mu.Lock()
	transport := s.transport
	connected := s.state == stateConnected
	s.mu.Unlock()

	if !connected {
		return ErrNotConnected
	}
	if err := transport.Send(payload); err != nil {
		return err
	}

	s.metricsMu.Lock()
	s.metrics.Sends++
	s.metricsMu.Unlock()
	return nil
}

// SendJSON marshals v and sends the result as a single payload.
func (s *Socket) SendJSON(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return s.Send(payload)
}

// IsConnected reports the reconnect controller state. The facade counts as
// connected again as soon as a replacement transport has been installed and
// replayed, without waiting for its handshake events.
func (s *Socket) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateConnected
}

// Metrics returns a copy of the current connection statistics.
func (s *Socket) Metrics() Metrics {
	s.metricsMu.RLock()
	defer s.metricsMu.RUnlock()
	return s.metrics
}

// scheduleReconnect moves the controller to the pending state and arms the
// one-shot reconnect timer. Disconnects arriving while already pending do
// not reset or stack the timer; it fires exactly once per cycle. Server
// facades and clients built with WithoutReconnect never schedule anything.
func (s *Socket) scheduleReconnect() {
	s.mu.Lock()
	if s.mode != Client || !s.reconnect || s.state != stateConnected {
		s.mu.Unlock()
		return
	}
	s.state = stateReconnectPending
	delay := s.reconnectDelay
	s.mu.Unlock()

	s.logger.Debug("scheduling reconnect",
		logging.String("addr", s.addr),
		logging.Duration("delay", delay),
	)
	s.clk.AfterFunc(delay, s.redial)
}

// redial runs at timer expiry: it dials a replacement transport to the
// original address, swaps it in, and replays a snapshot of the registry onto
// it in registration order. Listeners are installed before Start, so no
// event from the replacement can be observed before its listener set is
// complete. A cycle that exhausts its dial attempts surfaces the failure to
// Error subscribers and leaves the facade disconnected: IsConnected reports
// false and Send refuses payloads until the caller intervenes.
func (s *Socket) redial() {
	var replacement Transport
	err := retry.Do(
		func() error {
			t, derr := s.dialer(s.addr)
			if derr != nil {
				return derr
			}
			replacement = t
			return nil
		},
		retry.Attempts(s.reconnectAttempts),
		retry.Delay(s.reconnectDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("reconnect attempt failed",
				logging.Int("attempt", int(n+1)),
				logging.Error(err),
			)
		}),
	)

	if err != nil {
		s.mu.Lock()
		s.state = stateDisconnected
		s.mu.Unlock()

		s.metricsMu.Lock()
		s.metrics.ReconnectFailures++
		s.metricsMu.Unlock()

		s.logger.Error("reconnect failed", logging.String("addr", s.addr), logging.Error(err))
		s.emitError(fmt.Errorf("reconnect %s: %w", s.addr, err))
		return
	}

	s.mu.Lock()
	old := s.transport
	s.transport = replacement
	for _, sub := range s.reg.snapshot() {
		replacement.On(s.mode.nativeEvent(sub.category), sub.listener)
	}
	s.state = stateConnected
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	replacement.Start()

	s.metricsMu.Lock()
	s.metrics.Reconnects++
	s.metrics.ConnectedAt = time.Now()
	s.metricsMu.Unlock()

	s.logger.Info("socket reconnected", logging.String("addr", s.addr))
}

// emitError delivers a synthesized error to every Error subscriber. It is
// used for failures that have no live transport to report through, such as
// an exhausted reconnect cycle.
func (s *Socket) emitError(err error) {
	for _, sub := range s.reg.snapshot() {
		if sub.category == Error {
			sub.listener.fn(Event{Err: err})
		}
	}
}
