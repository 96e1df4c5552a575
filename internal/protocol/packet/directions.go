package packet

// Both endpoints build these tables from the same lists; appending keeps
// existing tags stable, reordering breaks the wire.

// ClientToServer returns the table for packets sent by clients.
func ClientToServer() *Registry {
	return MustNewRegistry(ClientToServerDirection,
		Entry{Kind: KindConnect, Decode: decodeConnect},
		Entry{Kind: KindInput, Decode: decodeInput},
	)
}

// ServerToClient returns the table for packets sent by the server.
func ServerToClient() *Registry {
	return MustNewRegistry(ServerToClientDirection,
		Entry{Kind: KindJoined, Decode: decodeJoined},
	)
}
