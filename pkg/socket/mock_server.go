package socket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// MockServer is an httptest-backed websocket endpoint used to exercise the
// client transport against a real wire. It tracks connections, buffers
// inbound messages, echoes them back and can reject or drop connections on
// demand.
type MockServer struct {
	server *httptest.Server
	url    string

	mu            sync.RWMutex
	connections   map[*websocket.Conn]bool
	messageBuffer [][]byte
	onConnect     func(*websocket.Conn)

	rejectConnections bool
	echo              bool
}

// NewMockServer starts a mock websocket server.
func NewMockServer() *MockServer {
	m := &MockServer{
		connections: make(map[*websocket.Conn]bool),
		echo:        true,
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handleConnection))
	m.url = "ws" + strings.TrimPrefix(m.server.URL, "http")
	return m
}

// URL returns the ws:// URL of the mock server.
func (m *MockServer) URL() string {
	return m.url
}

// HostPort returns the host and port of the mock server separately, in the
// shape the client facade constructor expects.
func (m *MockServer) HostPort() (string, string) {
	hostport := strings.TrimPrefix(m.url, "ws://")
	i := strings.LastIndex(hostport, ":")
	return hostport[:i], hostport[i+1:]
}

// Close shuts the mock server down.
func (m *MockServer) Close() {
	m.server.Close()
}

// SetRejectConnections makes the server refuse upgrades.
func (m *MockServer) SetRejectConnections(reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejectConnections = reject
}

// SetEcho controls whether inbound messages are echoed back.
func (m *MockServer) SetEcho(echo bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.echo = echo
}

// OnConnect sets a callback invoked for every accepted connection.
func (m *MockServer) OnConnect(fn func(*websocket.Conn)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnect = fn
}

// DropConnections force-closes every live connection.
func (m *MockServer) DropConnections() {
	m.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(m.connections))
	for conn := range m.connections {
		conns = append(conns, conn)
	}
	m.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// Broadcast writes a message to every live connection.
func (m *MockServer) Broadcast(message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for conn := range m.connections {
		_ = conn.WriteMessage(websocket.TextMessage, message)
	}
}

// ConnectionCount reports how many connections are live.
func (m *MockServer) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// Messages returns a copy of every message received so far.
func (m *MockServer) Messages() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]byte, len(m.messageBuffer))
	copy(out, m.messageBuffer)
	return out
}

func (m *MockServer) handleConnection(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	reject := m.rejectConnections
	onConnect := m.onConnect
	m.mu.RUnlock()

	if reject {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	m.mu.Lock()
	m.connections[conn] = true
	m.mu.Unlock()

	if onConnect != nil {
		onConnect(conn)
	}

	defer func() {
		m.mu.Lock()
		delete(m.connections, conn)
		m.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		m.mu.Lock()
		m.messageBuffer = append(m.messageBuffer, message)
		echo := m.echo
		m.mu.Unlock()

		if echo {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}
}
