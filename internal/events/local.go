package events

// Client-originated event names. These never arrive from the hub; the
// connection layer emits them on the same bus so stores and UI code observe
// connectivity without holding a reference to the manager.
const (
	EventConnectionStateChanged = "connection.state"
)

// ConnectionStateChanged announces a transition of the hub connection.
type ConnectionStateChanged struct {
	State string
	Error string
}

func (ConnectionStateChanged) eventPayload() {}
