package socket

import "errors"

// Common error variables returned by the socket facade and its transports.
var (
	// ErrNotConnected is returned when a send is attempted while the
	// underlying transport is not open. Payloads are never queued for
	// later delivery.
	ErrNotConnected = errors.New("socket not connected")

	// ErrMissingHost is returned when a client facade is constructed
	// without a host.
	ErrMissingHost = errors.New("missing host")

	// ErrMissingListener is returned when a server facade is constructed
	// without a listener to attach to.
	ErrMissingListener = errors.New("missing listener")
)
