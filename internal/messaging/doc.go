// Package messaging implements the raw framed TCP protocol hosts use to
// exchange task results and control traffic.
//
// # Overview
//
// Every message is a job id, a type tag, a payload, and a literal
// terminator: "<job-id>\x00<type>\x00<payload>\aEND_OF_MESSAGE\a". A distinct
// "\aFILE_BLOCK_REQUEST\a" delimiter is reserved for file-block payloads
// (out of scope for this module's core, carried only as a constant).
// SendMessage is fire-and-forget: it dials, writes, and returns without
// waiting for a reply. SendMessageForReply blocks until the peer writes
// back. Listen accepts one goroutine per connection and dispatches each
// message to a registered Handler by job id.
package messaging
