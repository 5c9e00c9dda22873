package realtime

import (
	"github.com/google/uuid"
)

const outboundBuffer = 32

type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Outbound chan Message

	rooms  map[string]bool
	done   chan struct{}
	closed bool
}

func newClient(userID uuid.UUID) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan Message, outboundBuffer),
		rooms:    make(map[string]bool),
		done:     make(chan struct{}),
	}
}

// Done is closed when the hub disconnects the client.
func (c *Client) Done() <-chan struct{} { return c.done }
