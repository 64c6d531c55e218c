// Package bootstrap transfers the message pool to a joining node.
//
// The protocol is a strict request/response exchange over one stream, one
// request in flight:
//
//	request:  frame(cursor)
//	response: frame(cursor ++ has_hash(1) [hash(32)] ++ bundle)
//
// Each frame is uvarint(length) ++ payload. A cursor is a tag byte
// (0 started, 1 ongoing, 2 finished), followed by the last id for ongoing.
// The response cursor is the server's next cursor; the server pool hash is
// attached when it is finished.
//
// The client resets its pool, then requests parts until the server reports
// finished, storing each part with SetPoolPart and resuming from the cursor it
// returns. Retries and session management belong to the transport.
package bootstrap
