package room

// Broadcaster is the transport the Manager emits through. Post schedules fn
// on the goroutine that owns the Manager; clock tickers use it to hand their
// ticks back.
type Broadcaster interface {
	Send(connID string, action string, data interface{})
	Connected(connID string) bool
	Post(fn func())
}
