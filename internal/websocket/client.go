// internal/websocket/client.go
package websocket

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	// ErrClientClosed is returned when sending to a client that already
	// disconnected.
	ErrClientClosed = errors.New("client closed")

	// ErrClientBufferFull is returned when a slow client cannot keep up
	// with the broadcast rate. The message is dropped, not queued.
	ErrClientBufferFull = errors.New("client send buffer full")
)

const sendBufferSize = 256

// Client is one connected UI surface. Outbound traffic goes through a
// buffered channel drained by WritePump, so broadcasts from the owner loop
// never block on a slow connection.
type Client struct {
	ID   string
	Conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// NewClient wraps an upgraded connection.
func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// SendMessage queues one envelope for the write pump.
func (c *Client) SendMessage(msg *WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientBufferFull
	}
}

// SendEvent pushes one store notification to the client.
func (c *Client) SendEvent(eventType string, payload interface{}) error {
	return c.SendMessage(&WSMessage{
		Kind:  KindEvent,
		Event: &WSEvent{Type: eventType, Payload: payload},
	})
}

// SendResponse answers an RPC request.
func (c *Client) SendResponse(id string, result interface{}, errMsg string) error {
	resp := &RPCResponse{ID: id}
	if errMsg != "" {
		resp.Error = errMsg
	} else {
		resp.Result = result
	}
	return c.SendMessage(&WSMessage{Kind: KindRPCResponse, Response: resp})
}

// WritePump drains the send channel into the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for message := range c.send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// Close stops the write pump. Idempotent; later sends fail with
// ErrClientClosed.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
