package ws

const (
	// client - server
	MsgPing = "ping"

	// server - client
	MsgHello = "hello"
	MsgPong  = "pong"
)

// sendBuffer is how many pending frames a client may hold before the hub drops it.
const sendBuffer = 64

type message struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id,omitempty"`
}
