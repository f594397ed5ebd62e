package socket

import "sync"

// MockTransport implements Transport for testing. It records calls, lets
// tests inject send errors and simulates native events arriving from the
// wire.
type MockTransport struct {
	emitter

	mu        sync.Mutex
	uri       string
	started   bool
	closed    bool
	sendCalls [][]byte
	sendError error
}

// NewMockTransport creates a mock transport double.
func NewMockTransport(uri string) *MockTransport {
	return &MockTransport{
		emitter: newEmitter(),
		uri:     uri,
	}
}

// Start implements Transport.
func (m *MockTransport) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
}

// Send implements Transport.
func (m *MockTransport) Send(payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendError != nil {
		return m.sendError
	}
	if m.closed {
		return ErrNotConnected
	}
	m.sendCalls = append(m.sendCalls, payload)
	return nil
}

// Close implements Transport.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SimulateOpen fires the native open event.
func (m *MockTransport) SimulateOpen() {
	m.emit(eventOpen, Event{})
}

// SimulateConnection fires the native connection event.
func (m *MockTransport) SimulateConnection() {
	m.emit(eventConnection, Event{})
}

// SimulateMessage fires the native message event with the given payload.
func (m *MockTransport) SimulateMessage(payload []byte) {
	m.emit(eventMessage, Event{Payload: payload})
}

// SimulateClose fires the native close event.
func (m *MockTransport) SimulateClose() {
	m.emit(eventClose, Event{})
}

// SimulateError fires the native error event.
func (m *MockTransport) SimulateError(err error) {
	m.emit(eventError, Event{Err: err})
}

// SetSendError sets an error to be returned by Send.
func (m *MockTransport) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendError = err
}

// URI returns the address the mock was dialed with.
func (m *MockTransport) URI() string {
	return m.uri
}

// Started reports whether Start has been called.
func (m *MockTransport) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Closed reports whether Close has been called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Sent returns a copy of every payload passed to Send.
func (m *MockTransport) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sendCalls))
	copy(out, m.sendCalls)
	return out
}

// ListenerCount reports how many listeners are installed for a native
// event.
func (m *MockTransport) ListenerCount(event string) int {
	return m.listenerCount(event)
}

// MockDialer produces MockTransports on demand and records every dial. Tests
// wire it into a client facade via WithDialer to observe reconnect cycles.
type MockDialer struct {
	mu         sync.Mutex
	transports []*MockTransport
	attempts   int
	dialError  error
}

// NewMockDialer creates a dialer double.
func NewMockDialer() *MockDialer {
	return &MockDialer{}
}

// Dial implements the Dialer signature.
func (d *MockDialer) Dial(uri string) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.attempts++
	if d.dialError != nil {
		return nil, d.dialError
	}
	t := NewMockTransport(uri)
	d.transports = append(d.transports, t)
	return t, nil
}

// SetDialError sets an error to be returned by subsequent dials.
func (d *MockDialer) SetDialError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialError = err
}

// Attempts reports how many dials were attempted, failures included.
func (d *MockDialer) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

// DialCount reports how many transports were constructed.
func (d *MockDialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transports)
}

// Transport returns the i-th constructed transport.
func (d *MockDialer) Transport(i int) *MockTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transports[i]
}

// Latest returns the most recently constructed transport.
func (d *MockDialer) Latest() *MockTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.transports) == 0 {
		return nil
	}
	return d.transports[len(d.transports)-1]
}
