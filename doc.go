// Package socketwrapper provides a reconnecting, event-driven wrapper over
// bidirectional websocket connections, usable as a client dialing out or as
// a server attached to an existing listener.
//
// The library presents a stable subscription surface (Connect, Disconnect,
// Message, Error) that survives the underlying transport being torn down
// and recreated during automatic reconnection. Subscriptions keep their
// identity across reconnects: handlers registered before a connection drop
// fire again on the replacement connection without the caller re-subscribing,
// and handles remain valid for unsubscription at any time.
//
// Core features:
//
//   - Automatic reconnection with a fixed delay and optional bounded retry
//   - Ordered replay of all subscriptions onto replacement connections
//   - Identity-preserving unsubscription via Subscription handles
//   - Server mode broadcasting over connections accepted from an external
//     listener
//   - Structured logging, send pacing and heartbeat keepalive
//
// The main entry points are socket.NewClient and socket.NewServer in
// pkg/socket; pkg/logging and pkg/ratelimit provide the supporting logging
// and pacing infrastructure.
package socketwrapper
