package socket

import (
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veiloq/socket-wrapper/pkg/logging"
)

// newTestServer attaches a server facade to a loopback listener and returns
// it with the ws:// URL peers should dial.
func newTestServer(t *testing.T) (*Socket, string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	s, err := NewServer(ln, WithLogger(logging.Nop()))
	require.NoError(t, err)
	return s, "ws://" + ln.Addr().String()
}

// recv waits for a value on ch, failing the test after a timeout.
func recv[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for %s", what)
		panic("unreachable")
	}
}

func TestServerPeerLifecycle(t *testing.T) {
	s, url := newTestServer(t)

	connected := make(chan struct{}, 1)
	disconnected := make(chan struct{}, 1)
	messages := make(chan []byte, 1)
	s.OnConnect(func() { connected <- struct{}{} })
	s.OnDisconnect(func() { disconnected <- struct{}{} })
	s.OnMessage(func(payload []byte) { messages <- payload })

	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	recv(t, connected, "connection event")

	// Inbound payloads from the peer reach Message subscribers.
	require.NoError(t, peer.WriteMessage(websocket.TextMessage, []byte("hi")))
	assert.Equal(t, []byte("hi"), recv(t, messages, "message event"))

	// Send broadcasts to the peer.
	require.NoError(t, s.Send([]byte("welcome")))
	_, payload, err := peer.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, []byte("welcome"), payload)

	_ = peer.Close()
	recv(t, disconnected, "close event")
}

func TestServerBroadcastReachesAllPeers(t *testing.T) {
	s, url := newTestServer(t)

	connected := make(chan struct{}, 2)
	s.OnConnect(func() { connected <- struct{}{} })

	a, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer a.Close()
	b, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer b.Close()
	recv(t, connected, "first connection")
	recv(t, connected, "second connection")

	require.NoError(t, s.Send([]byte("all")))
	for _, peer := range []*websocket.Conn{a, b} {
		_, payload, err := peer.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, []byte("all"), payload)
	}
}

func TestServerNeverReconnects(t *testing.T) {
	s, url := newTestServer(t)
	assert.Equal(t, Server, s.Mode())
	assert.Empty(t, s.Addr())

	disconnected := make(chan struct{}, 1)
	s.OnDisconnect(func() { disconnected <- struct{}{} })

	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = peer.Close()
	recv(t, disconnected, "close event")

	// A peer departure is not a client disconnect: no reconnect cycle is
	// scheduled and the facade stays connected.
	assert.True(t, s.IsConnected())
}

func TestServerSendWithoutPeers(t *testing.T) {
	s, _ := newTestServer(t)
	require.ErrorIs(t, s.Send([]byte("nobody")), ErrNotConnected)
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(nil)
	require.ErrorIs(t, err, ErrMissingListener)
}
