// Package transport provides the byte stream an IRC client runs over.
// A Transport owns one connection and reports what happens to it through
// a Sink; it knows nothing about the protocol carried on top.
package transport

import "context"

// Sink receives the signals of one Transport. Calls for a single
// Transport are never concurrent and arrive in order: Connected first,
// then any number of Received and Failed, and exactly one Closed last.
type Sink interface {
	Connected()
	// Received is handed a buffer that is reused after it returns.
	Received(p []byte)
	Failed(err error)
	Closed(err error)
}

// Transport is a single connection. A new Transport is created for every
// connection attempt.
type Transport interface {
	// Open connects to addr and, on success, calls sink.Connected before
	// returning. Reads are then delivered to sink in the background.
	Open(ctx context.Context, addr string, sink Sink) error

	// Write sends p as-is.
	Write(p []byte) (int, error)

	// Close tears down the connection. The Sink still gets Closed.
	Close() error
}
