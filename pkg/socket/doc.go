// Package socket provides a reconnecting, event-driven wrapper around a
// bidirectional websocket transport, usable either as a client that dials
// out or as a server attached to an existing listener.
//
// The wrapper's core is its subscription replay: callbacks registered via
// OnMessage, OnConnect, OnDisconnect and OnError are recorded in an ordered
// registry, and when a client connection drops, the facade waits a fixed
// delay, dials a replacement transport and re-installs every recorded
// subscription on it in the original registration order. Callers keep their
// Subscription handles across reconnects and can unsubscribe at any time.
//
// Behavior summary:
//
//   - Exactly one live transport per facade; the transport is replaced
//     wholesale on reconnect, never mutated.
//   - Disconnects arriving while a reconnect is already pending do not
//     stack timers; one replacement is dialed per cycle.
//   - A cycle that exhausts its dial attempts reports the failure to Error
//     subscribers instead of failing silently.
//   - Payloads sent while disconnected return ErrNotConnected and are
//     dropped, never queued.
//   - Server facades never reconnect; inbound connections belong to the
//     listener.
//
// Basic usage:
//
//	ws, err := socket.NewClient("stream.example.com", "443")
//	if err != nil {
//		log.Fatal(err)
//	}
//	sub := ws.OnMessage(func(payload []byte) {
//		fmt.Printf("recv: %s\n", payload)
//	})
//	_ = ws.Send([]byte("hello"))
//	ws.Unsubscribe(sub)
package socket
