package types

// WrapperHandle describes a live companion process that accepts input over
// the network. Persisted as JSON at a well-known path so the delivery
// channel can discover the wrapper across process boundaries.
type WrapperHandle struct {
	Port int `json:"port"`
	PID  int `json:"pid"`
}
