package socket

import (
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/veiloq/socket-wrapper/pkg/logging"
)

// serverTransport is the server-mode transport. It attaches an HTTP server
// with a websocket upgrader to an external listener and surfaces the
// server-level native events: connection per accepted peer, message per
// inbound frame from any peer, close per departing peer and error on failed
// upgrades. Send broadcasts to every live peer.
//
// Per-peer state beyond delivery is out of scope: one facade wraps one
// server-level handle, not the individual client sockets.
type serverTransport struct {
	emitter

	srv      *http.Server
	ln       net.Listener
	upgrader websocket.Upgrader
	logger   logging.Logger

	connsMu sync.RWMutex
	conns   map[*websocket.Conn]*sync.Mutex

	startOnce sync.Once
}

// attachServer wraps an already-initialized listener in a paused server
// transport.
func attachServer(ln net.Listener, logger logging.Logger) *serverTransport {
	t := &serverTransport{
		emitter: newEmitter(),
		ln:      ln,
		logger:  logger,
		conns:   make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	t.srv = &http.Server{Handler: http.HandlerFunc(t.handleUpgrade)}
	return t
}

// Start implements Transport.
func (t *serverTransport) Start() {
	t.startOnce.Do(func() {
		go func() {
			if err := t.srv.Serve(t.ln); err != nil && err != http.ErrServerClosed {
				t.logger.Warn("server stopped", logging.Error(err))
			}
		}()
	})
}

// handleUpgrade upgrades an inbound HTTP request and pumps its frames until
// the peer goes away.
func (t *serverTransport) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Warn("upgrade failed",
			logging.String("remote", r.RemoteAddr),
			logging.Error(err),
		)
		t.emit(eventError, Event{Err: err})
		return
	}

	t.addConn(conn)
	t.emit(eventConnection, Event{})

	defer func() {
		t.removeConn(conn)
		_ = conn.Close()
		t.emit(eventClose, Event{})
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.emit(eventError, Event{Err: err})
			}
			return
		}
		t.emit(eventMessage, Event{Payload: payload})
	}
}

// Send implements Transport by broadcasting the payload to every live peer.
// Peers whose write fails are dropped; ErrNotConnected is returned when no
// peer is connected at all.
func (t *serverTransport) Send(payload []byte) error {
	t.connsMu.RLock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(t.conns))
	for conn, mu := range t.conns {
		conns[conn] = mu
	}
	t.connsMu.RUnlock()

	if len(conns) == 0 {
		return ErrNotConnected
	}

	for conn, mu := range conns {
		mu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, payload)
		mu.Unlock()
		if err != nil {
			t.logger.Warn("broadcast write failed", logging.Error(err))
			t.removeConn(conn)
			_ = conn.Close()
		}
	}
	return nil
}

// Close implements Transport by stopping the HTTP server. The listener
// itself belongs to the caller.
func (t *serverTransport) Close() error {
	return t.srv.Close()
}

func (t *serverTransport) addConn(conn *websocket.Conn) {
	t.connsMu.Lock()
	defer t.connsMu.Unlock()
	t.conns[conn] = &sync.Mutex{}
}

func (t *serverTransport) removeConn(conn *websocket.Conn) {
	t.connsMu.Lock()
	defer t.connsMu.Unlock()
	delete(t.conns, conn)
}

// peerCount reports the number of live peers, for tests and health checks.
func (t *serverTransport) peerCount() int {
	t.connsMu.RLock()
	defer t.connsMu.RUnlock()
	return len(t.conns)
}
