package stallapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/campusbid/stallbid/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// BidPushHandler is called for every bid event pushed on a stall topic.
type BidPushHandler func(domain.Bid)

// WSClient is a WebSocket client for the backend's live bid push feed. The
// backend publishes each accepted bid on a per-stall topic; the feed is an
// accelerator over polling, not a replacement, since the poller remains the
// authoritative resync path.
type WSClient struct {
	wsURL string
	conn  *websocket.Conn

	mu     sync.Mutex
	closed bool

	// Stall topics to restore on reconnect.
	topics []int64

	// lost is closed when the current connection's read loop exits.
	lost chan struct{}

	handlerMu   sync.RWMutex
	bidHandlers []BidPushHandler

	done chan struct{}
}

// NewWSClient creates a WebSocket client for the given endpoint, e.g.
// "wss://api.campusbid.example.com/ws".
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL: wsURL,
		done:  make(chan struct{}),
	}
}

// OnBid registers a handler invoked for every pushed bid.
func (w *WSClient) OnBid(h BidPushHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.bidHandlers = append(w.bidHandlers, h)
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops. Any previously subscribed stall topics are restored.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("stallapi/ws: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("stallapi/ws: connect: %w", err)
	}
	w.conn = conn

	w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	w.lost = make(chan struct{})
	go w.readLoop(conn, w.lost)
	go w.pingLoop(conn)

	for _, stallID := range w.topics {
		if err := w.sendSubscribe(conn, stallID); err != nil {
			return fmt.Errorf("stallapi/ws: restore subscription: %w", err)
		}
	}
	return nil
}

// wsCommand is the subscribe/unsubscribe frame understood by the backend.
type wsCommand struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// wsEvent is an inbound frame. Only bid events carry a payload we act on.
type wsEvent struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
}

// Subscribe subscribes to the bid topic for a stall.
func (w *WSClient) Subscribe(stallID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("stallapi/ws: not connected")
	}
	if err := w.sendSubscribe(w.conn, stallID); err != nil {
		return fmt.Errorf("stallapi/ws: subscribe stall %d: %w", stallID, err)
	}
	w.topics = append(w.topics, stallID)
	return nil
}

func (w *WSClient) sendSubscribe(conn *websocket.Conn, stallID int64) error {
	cmd := wsCommand{
		Action: "subscribe",
		Topic:  fmt.Sprintf("/topic/stall/%d", stallID),
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(cmd)
}

// Lost returns a channel that is closed when the current connection's read
// loop exits, signalling that a reconnect is needed. Valid after Connect.
func (w *WSClient) Lost() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lost
}

// readLoop reads frames until the connection drops, dispatching bid events
// to the registered handlers.
func (w *WSClient) readLoop(conn *websocket.Conn, lost chan struct{}) {
	defer close(lost)
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var event wsEvent
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}
		if event.Type != "" && event.Type != "bid" {
			continue
		}

		var ab apiBid
		if err := json.Unmarshal(event.Data, &ab); err != nil {
			continue
		}
		bid, err := ab.toDomain(0)
		if err != nil {
			continue
		}

		w.handlerMu.RLock()
		handlers := w.bidHandlers
		w.handlerMu.RUnlock()
		for _, h := range handlers {
			h(bid)
		}
	}
}

// pingLoop keeps the connection alive until Close or disconnect.
func (w *WSClient) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close shuts the client down. The client cannot be reused afterwards.
func (w *WSClient) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.done)
	if w.conn != nil {
		_ = w.conn.Close()
	}
}
