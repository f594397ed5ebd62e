package socket

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/veiloq/socket-wrapper/pkg/logging"
)

const handshakeTimeout = 10 * time.Second

// wsTransport is the default client-mode transport, backed by a
// gorilla/websocket connection. It emits the native events open, message,
// close and error. The transport is created paused; the read pump only runs
// after Start, and the open event is the first thing it dispatches.
type wsTransport struct {
	emitter

	conn    *websocket.Conn
	writeMu sync.Mutex

	heartbeat time.Duration
	logger    logging.Logger

	startOnce sync.Once
	doneOnce  sync.Once
	done      chan struct{}
}

// dialWebsocket opens a websocket connection to uri and wraps it in a paused
// transport.
func dialWebsocket(uri string, heartbeat time.Duration, logger logging.Logger) (*wsTransport, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	conn, _, err := dialer.Dial(uri, nil)
	if err != nil {
		return nil, err
	}

	return &wsTransport{
		emitter:   newEmitter(),
		conn:      conn,
		heartbeat: heartbeat,
		logger:    logger,
		done:      make(chan struct{}),
	}, nil
}

// Start implements Transport.
func (t *wsTransport) Start() {
	t.startOnce.Do(func() {
		go t.readPump()
		if t.heartbeat > 0 {
			go t.pingLoop()
		}
	})
}

// readPump reads frames until the connection dies, dispatching message
// events as they arrive. Unexpected close errors are surfaced as error
// events before the final close event.
func (t *wsTransport) readPump() {
	t.emit(eventOpen, Event{})

	defer func() {
		t.shutdown()
		t.emit(eventClose, Event{})
	}()

	for {
		_, payload, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Warn("read error", logging.Error(err))
				t.emit(eventError, Event{Err: err})
			}
			return
		}
		t.emit(eventMessage, Event{Payload: payload})
	}
}

// pingLoop keeps the connection alive with periodic ping frames.
func (t *wsTransport) pingLoop() {
	ticker := time.NewTicker(t.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.writeMu.Lock()
			err := t.conn.WriteMessage(websocket.PingMessage, nil)
			t.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-t.done:
			return
		}
	}
}

// Send implements Transport.
func (t *wsTransport) Send(payload []byte) error {
	select {
	case <-t.done:
		return ErrNotConnected
	default:
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close implements Transport. It sends a close frame on a best-effort basis
// and tears the connection down; the read pump then emits the close event.
func (t *wsTransport) Close() error {
	t.writeMu.Lock()
	_ = t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closed"))
	t.writeMu.Unlock()

	t.shutdown()

	err := t.conn.Close()
	if err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
		return err
	}
	return nil
}

func (t *wsTransport) shutdown() {
	t.doneOnce.Do(func() {
		close(t.done)
	})
}
