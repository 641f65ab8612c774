// Package provider wraps the external wallet provider reachable over the
// local bridge endpoint. Absence of a provider is a first-class condition
// reported as ErrUnavailable, never a panic or a nil deref.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when no wallet provider is reachable: no bridge
// endpoint is configured, or the endpoint cannot be dialed.
var ErrUnavailable = errors.New("wallet provider unavailable")

// Provider rejection code meaning the requested chain is not registered with
// the wallet yet (EIP-3085).
const CodeChainNotRegistered = 4902

// Event names emitted by the provider.
const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
)

// Handler receives the raw payload of a provider event. Handlers are invoked
// from the bridge's read loop, unordered relative to in-flight requests.
type Handler func(payload json.RawMessage)

// Provider is the capability surface consumed by the connection controller.
type Provider interface {
	// Request forwards a JSON-RPC call to the wallet provider. Params are
	// marshaled as the positional parameter list. Fails with ErrUnavailable
	// when no provider is present; provider rejections come back as *RPCError.
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)

	// Subscribe registers a handler for a provider event. The returned
	// subscription must be cancelled when the consumer goes away so handlers
	// do not accumulate.
	Subscribe(event string, fn Handler) *Subscription

	// Available reports whether a provider is reachable right now. Presence
	// is re-inspected on every call, never cached.
	Available() bool

	Close() error
}

// RPCError is a structured rejection from the wallet provider.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("provider rejected request: %s (code %d)", e.Message, e.Code)
}
