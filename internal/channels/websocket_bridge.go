package channels

import (
	"encoding/json"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nullclaw/nullclaw/internal/logger"
)

// bridgeMessage is the wire shape of one inbound/outbound event on a
// websocket-bridge channel: a thin JSON envelope a self-hosted bridge
// process (Matrix, WhatsApp, IRC) speaks in both directions.
type bridgeMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// WebsocketBridgeChannel is an inbound+outbound channel backed by a
// long-lived websocket connection to a local bridge process, for
// platforms (Matrix, WhatsApp, IRC, iMessage) with no native Go client
// library available; the bridge process itself owns that
// platform-specific protocol and re-exposes it as this uniform JSON
// envelope.
type WebsocketBridgeChannel struct {
	url     string
	inbound Inbound

	mu   chan struct{} // 1-capacity mutex guarding conn, reused across reconnects
	conn *websocket.Conn
}

// NewWebsocketBridgeChannel points at a bridge process listening at
// wsURL (e.g. "ws://127.0.0.1:9001/bridge").
func NewWebsocketBridgeChannel(wsURL string, inbound Inbound) (*WebsocketBridgeChannel, error) {
	if _, err := url.Parse(wsURL); err != nil {
		return nil, err
	}
	c := &WebsocketBridgeChannel{url: wsURL, inbound: inbound, mu: make(chan struct{}, 1)}
	c.mu <- struct{}{}
	return c, nil
}

// Poll dials the bridge and reads messages until stopRequested or the
// connection drops, reconnecting with a fixed backoff; spec.md §5 treats
// the blocking read itself as external I/O not cooperatively cancelled,
// so stopRequested is checked between reads and between reconnects.
func (c *WebsocketBridgeChannel) Poll(stopRequested *atomic.Bool, touch func()) {
	for !stopRequested.Load() {
		conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
		if err != nil {
			logger.WarnCF("bridge", "dial failed, retrying", logger.Fields{"url": c.url, "error": err.Error()})
			time.Sleep(2 * time.Second)
			continue
		}
		c.setConn(conn)
		c.readLoop(conn, stopRequested, touch)
		conn.Close()
		c.setConn(nil)
	}
}

func (c *WebsocketBridgeChannel) setConn(conn *websocket.Conn) {
	<-c.mu
	c.conn = conn
	c.mu <- struct{}{}
}

func (c *WebsocketBridgeChannel) readLoop(conn *websocket.Conn, stopRequested *atomic.Bool, touch func()) {
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	for {
		if stopRequested.Load() {
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
				conn.SetReadDeadline(time.Now().Add(1 * time.Second))
				continue
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		touch()

		var msg bridgeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if c.inbound != nil && msg.Text != "" {
			c.inbound(msg.ChatID, msg.Text)
		}
	}
}

// HealthProbe reports whether a connection is currently established.
func (c *WebsocketBridgeChannel) HealthProbe() bool {
	<-c.mu
	ok := c.conn != nil
	c.mu <- struct{}{}
	return ok
}

// Send writes payload as a bridgeMessage to the current connection, if
// any. Returns an error when no connection is currently established
// (the Poll loop will reconnect on its own schedule).
func (c *WebsocketBridgeChannel) Send(chatID, payload string) error {
	<-c.mu
	conn := c.conn
	c.mu <- struct{}{}
	if conn == nil {
		return websocket.ErrCloseSent
	}
	return conn.WriteJSON(bridgeMessage{ChatID: chatID, Text: payload})
}
