package socket

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/veiloq/socket-wrapper/pkg/logging"
	"github.com/veiloq/socket-wrapper/pkg/ratelimit"
)

const (
	// DefaultReconnectDelay is how long the facade waits after a
	// disconnect before dialing a replacement transport.
	DefaultReconnectDelay = 5 * time.Second

	defaultReconnectAttempts = 1
)

// Option configures a Socket at construction time.
type Option func(*settings)

// settings holds resolved construction parameters. The zero values are
// filled in by defaultSettings.
type settings struct {
	secure            bool
	reconnect         bool
	reconnectDelay    time.Duration
	reconnectAttempts uint
	heartbeat         time.Duration
	dialer            Dialer
	clk               clock.Clock
	logger            logging.Logger
	sendRate          *ratelimit.Rate
}

func defaultSettings() settings {
	return settings{
		secure:            true,
		reconnect:         true,
		reconnectDelay:    DefaultReconnectDelay,
		reconnectAttempts: defaultReconnectAttempts,
		clk:               clock.New(),
		logger:            logging.NewLogger(),
	}
}

// WithInsecure dials with the plain "ws" scheme instead of "wss".
func WithInsecure() Option {
	return func(s *settings) {
		s.secure = false
	}
}

// WithoutReconnect disables automatic reconnection. A disconnect then
// becomes terminal: the facade stays on the dead transport until the caller
// intervenes.
func WithoutReconnect() Option {
	return func(s *settings) {
		s.reconnect = false
	}
}

// WithReconnectDelay overrides the delay between a disconnect and the
// reconnect attempt.
func WithReconnectDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.reconnectDelay = d
		}
	}
}

// WithReconnectAttempts sets how many dial attempts a single reconnect cycle
// may make before giving up and surfacing an Error event. The default is one
// attempt per disconnect.
func WithReconnectAttempts(n uint) Option {
	return func(s *settings) {
		if n > 0 {
			s.reconnectAttempts = n
		}
	}
}

// WithHeartbeat enables periodic ping frames on the client transport.
func WithHeartbeat(interval time.Duration) Option {
	return func(s *settings) {
		s.heartbeat = interval
	}
}

// WithDialer replaces the transport constructor. Tests use this to inject
// transport doubles; the replacement is also used for every reconnect.
func WithDialer(d Dialer) Option {
	return func(s *settings) {
		s.dialer = d
	}
}

// WithClock replaces the clock used for reconnect timers. Tests pass a
// clock.Mock to drive the 5 s delay deterministically.
func WithClock(c clock.Clock) Option {
	return func(s *settings) {
		s.clk = c
	}
}

// WithLogger sets the logger used by the facade and its transports.
func WithLogger(l logging.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithSendRate paces outbound sends with a token-bucket rate limiter.
func WithSendRate(rate ratelimit.Rate) Option {
	return func(s *settings) {
		s.sendRate = &rate
	}
}
