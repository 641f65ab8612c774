package wallet

// EventType defines the type of event being broadcast to consumers.
type EventType string

const (
	EventConnected      EventType = "connected"
	EventDisconnected   EventType = "disconnected"
	EventAccountChanged EventType = "account_changed"
	EventChainChanged   EventType = "chain_changed"
	// EventNotice carries a user-facing message, typically a connect failure.
	EventNotice EventType = "notice"
)

// Event is a published state-change notification. Data holds the committed
// models.ConnectionState snapshot for state events, or a string for notices.
type Event struct {
	Type EventType
	Data interface{}
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
