package socket

// Category identifies a logical event class exposed to subscribers.
// Categories are stable across client and server mode; the translation to
// the transport's native event names happens inside the facade and raw
// native strings never appear in the public API.
type Category int

const (
	// Message is delivered for every inbound payload.
	Message Category = iota

	// Connect is delivered when the transport opens (client mode) or a
	// peer connection is accepted (server mode).
	Connect

	// Disconnect is delivered when the transport closes. In client mode
	// with reconnection enabled this also drives the reconnect cycle.
	Disconnect

	// Error is delivered for transport-level errors and for failed
	// reconnect attempts. Errors never trigger reconnection by
	// themselves.
	Error
)

// String returns a human-readable name for the category.
func (c Category) String() string {
	switch c {
	case Message:
		return "message"
	case Connect:
		return "connect"
	case Disconnect:
		return "disconnect"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Mode determines which native transport events map to the logical
// categories. It is fixed at construction time.
type Mode int

const (
	// Client mode: the facade owns an outbound connection it dialed.
	Client Mode = iota

	// Server mode: the facade wraps a server-level handle attached to an
	// external listener. Reconnection is never performed in this mode.
	Server
)

// Native websocket-level event names. These are internal; callers only ever
// see Category values.
const (
	eventOpen       = "open"
	eventConnection = "connection"
	eventMessage    = "message"
	eventClose      = "close"
	eventError      = "error"
)

var clientEvents = map[Category]string{
	Connect:    eventOpen,
	Message:    eventMessage,
	Disconnect: eventClose,
	Error:      eventError,
}

var serverEvents = map[Category]string{
	Connect:    eventConnection,
	Message:    eventMessage,
	Disconnect: eventClose,
	Error:      eventError,
}

// nativeEvent resolves a logical category to the transport event name for
// this mode.
func (m Mode) nativeEvent(c Category) string {
	if m == Server {
		return serverEvents[c]
	}
	return clientEvents[c]
}
