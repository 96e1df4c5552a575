// Package protocol owns the constants both endpoints must agree on.
//
// Ownership boundary:
// - protocol version and field budgets
// - disconnect reasons and their close codes
//
// Byte encoding lives in protocol/stream; tag dispatch lives in
// protocol/packet.
package protocol
