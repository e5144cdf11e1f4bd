package realtime

// ConnectionState is the lifecycle state of the hub connection.
type ConnectionState int

const (
	// StateDisconnected means no connection exists and none is being attempted.
	StateDisconnected ConnectionState = iota

	// StateConnecting means an explicit connect attempt is in flight.
	StateConnecting

	// StateConnected means the hub connection is established and the read
	// loop is running.
	StateConnected

	// StateReconnecting means the connection dropped unexpectedly and the
	// backoff loop is retrying.
	StateReconnecting

	// StateFailed means automatic reconnection gave up. Only an explicit
	// Connect call leaves this state.
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state by name so API consumers never see the
// numeric value.
func (s ConnectionState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Quality is a coarse connection-quality indicator for UI display only.
type Quality string

const (
	QualityHealthy  Quality = "healthy"
	QualityDegraded Quality = "degraded"
)

// Health is a point-in-time report of connection wellbeing.
type Health struct {
	State               ConnectionState `json:"state"`
	ConsecutiveFailures int             `json:"consecutiveFailures"`
	LastError           string          `json:"lastError,omitempty"`
	Quality             Quality         `json:"quality"`
}
