package service

// Generation lifecycle events pushed to a session's progress socket
const (
	EventGenerationStarted   = "generation_started"
	EventProviderAttempt     = "provider_attempt"
	EventProviderFailed      = "provider_failed"
	EventGenerationCompleted = "generation_completed"
	EventGenerationFailed    = "generation_failed"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	Publish(sessionID string, msgType string, payload interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) Publish(string, string, interface{}) {}
