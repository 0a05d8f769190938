package chathub

import "mentorchat/backend/internal/models"

// Client is one live connection of any transport type. It abstracts the
// underlying communication mechanism so the hub can manage different
// client kinds uniformly.
type Client interface {
	// GetConnID returns the transport connection identifier, assigned
	// at upgrade time and unique per socket.
	GetConnID() string
	// GetPartyID returns the party registered on this connection, or ""
	// until the register_user event arrives. Opening the transport and
	// registering a party are distinct steps.
	GetPartyID() string
	// SetPartyID binds the connection to a party. Called by the hub
	// when it processes the register_user event.
	SetPartyID(string)

	// GetSendChannel returns the channel the hub pushes outbound events
	// into. It is a send-only channel from the hub's perspective.
	GetSendChannel() chan<- models.OutboundMessage

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's outbound channel and, through it,
	// the write pump.
	Close()
}
