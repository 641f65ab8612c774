package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"walletbridge/pkg/config"

	"github.com/gorilla/websocket"
)

const latencyHistorySize = 120

// Bridge talks JSON-RPC 2.0 to the wallet bridge endpoint over a websocket.
// The endpoint URL is resolved from config on every dial, so a provider that
// appears (or disappears) between calls is observed, not assumed.
type Bridge struct {
	cfg config.Config

	mu      sync.Mutex
	conn    *websocket.Conn
	nextID  uint64
	pending map[uint64]chan rpcResponse
	subs    map[string]map[uint64]Handler
	nextSub uint64
	closed  bool

	latMu     sync.Mutex
	latencies []float64 // milliseconds, most recent last
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage
	Err    error
}

// rpcFrame is an incoming message: either a response (ID set) or an event
// notification (Method set).
type rpcFrame struct {
	ID     *uint64         `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Subscription is a registered event handler. Cancel releases it.
type Subscription struct {
	bridge *Bridge
	event  string
	id     uint64
}

func (s *Subscription) Cancel() {
	if s == nil || s.bridge == nil {
		return
	}
	s.bridge.mu.Lock()
	defer s.bridge.mu.Unlock()
	if handlers, ok := s.bridge.subs[s.event]; ok {
		delete(handlers, s.id)
	}
	s.bridge = nil
}

// NewBridge creates a bridge for the configured endpoint. No connection is
// made until the first call that needs one.
func NewBridge(cfg config.Config) *Bridge {
	return &Bridge{
		cfg:     cfg,
		pending: make(map[uint64]chan rpcResponse),
		subs:    make(map[string]map[uint64]Handler),
	}
}

// Available reports whether the bridge endpoint is reachable. It dials if no
// connection is live; the result is never cached.
func (b *Bridge) Available() bool {
	if config.ResolveBridgeURL(b.cfg) == "" {
		return false
	}
	_, err := b.ensureConn()
	return err == nil
}

func (b *Bridge) ensureConn() (*websocket.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("%w: bridge closed", ErrUnavailable)
	}
	if b.conn != nil {
		return b.conn, nil
	}

	url := config.ResolveBridgeURL(b.cfg)
	if url == "" {
		return nil, fmt.Errorf("%w: no bridge endpoint configured", ErrUnavailable)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: time.Duration(b.cfg.DialTimeoutSeconds) * time.Second,
	}
	var header http.Header
	if b.cfg.Origin != "" {
		header = http.Header{"Origin": []string{b.cfg.Origin}}
	}
	conn, _, err := dialer.Dial(url, header)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, url, err)
	}

	b.conn = conn
	go b.readLoop(conn)
	return conn, nil
}

// Request sends a JSON-RPC call and waits for the matching response. No
// timeout is applied beyond the caller's context; a hung provider hangs the
// call.
func (b *Bridge) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	conn, err := b.ensureConn()
	if err != nil {
		return nil, err
	}

	if params == nil {
		params = []any{}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	ch := make(chan rpcResponse, 1)
	b.pending[id] = ch
	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	err = conn.WriteJSON(req)
	if err != nil {
		delete(b.pending, id)
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: write failed: %v", ErrUnavailable, err)
	}
	b.mu.Unlock()

	start := time.Now()
	select {
	case resp := <-ch:
		b.recordLatency(time.Since(start))
		if resp.Err != nil {
			return nil, resp.Err
		}
		return resp.Result, nil
	case <-ctx.Done():
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Subscribe registers a handler for a provider event.
func (b *Bridge) Subscribe(event string, fn Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSub++
	id := b.nextSub
	if b.subs[event] == nil {
		b.subs[event] = make(map[uint64]Handler)
	}
	b.subs[event][id] = fn
	return &Subscription{bridge: b, event: event, id: id}
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			b.dropConn(conn, err)
			return
		}

		var frame rpcFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		if frame.Method != "" {
			b.dispatch(frame.Method, frame.Params)
			continue
		}
		if frame.ID == nil {
			continue
		}

		b.mu.Lock()
		ch, ok := b.pending[*frame.ID]
		if ok {
			delete(b.pending, *frame.ID)
		}
		b.mu.Unlock()
		if !ok {
			continue
		}

		if frame.Error != nil {
			ch <- rpcResponse{Err: frame.Error}
		} else {
			ch <- rpcResponse{Result: frame.Result}
		}
	}
}

func (b *Bridge) dispatch(event string, payload json.RawMessage) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs[event]))
	for _, h := range b.subs[event] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	// Fire-and-forget: events are unordered relative to in-flight requests.
	for _, h := range handlers {
		go h(payload)
	}
}

func (b *Bridge) dropConn(conn *websocket.Conn, cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != conn {
		return
	}
	b.conn = nil
	_ = conn.Close()
	for id, ch := range b.pending {
		ch <- rpcResponse{Err: fmt.Errorf("%w: connection lost: %v", ErrUnavailable, cause)}
		delete(b.pending, id)
	}
}

func (b *Bridge) recordLatency(d time.Duration) {
	b.latMu.Lock()
	defer b.latMu.Unlock()
	b.latencies = append(b.latencies, float64(d.Microseconds())/1000.0)
	if len(b.latencies) > latencyHistorySize {
		b.latencies = b.latencies[len(b.latencies)-latencyHistorySize:]
	}
}

// Latencies returns a copy of recent request latencies in milliseconds.
func (b *Bridge) Latencies() []float64 {
	b.latMu.Lock()
	defer b.latMu.Unlock()
	cp := make([]float64, len(b.latencies))
	copy(cp, b.latencies)
	return cp
}

func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.conn != nil {
		err := b.conn.Close()
		b.conn = nil
		return err
	}
	return nil
}
