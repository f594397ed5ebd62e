package socket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veiloq/socket-wrapper/pkg/logging"
)

// newWireClient dials a real websocket client facade against a MockServer.
func newWireClient(t *testing.T, opts ...Option) (*Socket, *MockServer) {
	t.Helper()

	server := NewMockServer()
	t.Cleanup(server.Close)

	host, port := server.HostPort()
	base := []Option{WithInsecure(), WithLogger(logging.Nop())}
	s, err := NewClient(host, port, append(base, opts...)...)
	require.NoError(t, err)
	return s, server
}

func TestClientOverWire(t *testing.T) {
	s, server := newWireClient(t)

	messages := make(chan []byte, 1)
	s.OnMessage(func(payload []byte) { messages <- payload })

	// The mock server echoes text frames back.
	require.NoError(t, s.Send([]byte("hello")))
	assert.Equal(t, []byte("hello"), recv(t, messages, "echo"))

	received := server.Messages()
	require.Len(t, received, 1)
	assert.Equal(t, []byte("hello"), received[0])
}

func TestClientReconnectsOverWire(t *testing.T) {
	s, server := newWireClient(t, WithReconnectDelay(50*time.Millisecond))

	disconnected := make(chan struct{}, 4)
	s.OnDisconnect(func() { disconnected <- struct{}{} })
	messages := make(chan []byte, 1)
	s.OnMessage(func(payload []byte) { messages <- payload })

	server.DropConnections()
	recv(t, disconnected, "disconnect event")

	// The facade dials a replacement on its own after the delay.
	require.Eventually(t, func() bool {
		return server.ConnectionCount() == 1
	}, 5*time.Second, 10*time.Millisecond, "expected replacement connection")

	// The message subscription survived onto the replacement.
	require.Eventually(t, func() bool {
		return s.Send([]byte("again")) == nil
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []byte("again"), recv(t, messages, "echo after reconnect"))
	assert.GreaterOrEqual(t, s.Metrics().Reconnects, int64(1))
}

func TestClientDialRejected(t *testing.T) {
	server := NewMockServer()
	defer server.Close()
	server.SetRejectConnections(true)

	host, port := server.HostPort()
	_, err := NewClient(host, port, WithInsecure(), WithLogger(logging.Nop()))
	require.Error(t, err)
}

func TestClientHeartbeatKeepsConnectionAlive(t *testing.T) {
	s, server := newWireClient(t, WithHeartbeat(20*time.Millisecond))

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, server.ConnectionCount())
	require.NoError(t, s.Send([]byte("still here")))
}
