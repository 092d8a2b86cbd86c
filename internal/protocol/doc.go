// Package protocol defines the wire types exchanged with the game server:
// the declarative UI stack snapshot the client reconciles against, and the
// service request side channel (speech output, shutdown).
//
// Payload fields are tagged unions: exactly one variant pointer is non-nil,
// and Tag() reports which. Snapshots travel as JSON; decoding goes through
// bytedance/sonic.
package protocol
