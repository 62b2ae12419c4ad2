package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"
	"github.com/trickspot/backend/internal/websocket"
)

// WSFrame is any server-to-client frame: control messages carry Type,
// battle/user events carry Event.
type WSFrame struct {
	Type    websocket.MessageType `json:"type"`
	Event   string                `json:"event"`
	Payload json.RawMessage       `json:"payload"`
}

// WSClient is a test WebSocket client
type WSClient struct {
	t      *testing.T
	conn   *gorillaWS.Conn
	frames chan *WSFrame
	errors chan error
	done   chan struct{}
	mu     sync.Mutex
}

// NewWSClient creates a new WebSocket test client
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:      t,
		conn:   conn,
		frames: make(chan *WSFrame, 100),
		errors: make(chan error, 10),
		done:   make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func (c *WSClient) readPump() {
	defer close(c.frames)
	for {
		select {
		case <-c.done:
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				select {
				case <-c.done:
					return
				case c.errors <- err:
				}
				return
			}

			var frame WSFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				c.errors <- err
				continue
			}

			select {
			case c.frames <- &frame:
			case <-c.done:
				return
			}
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// SubscribeBattle subscribes to a battle's event stream and waits for the
// SUBSCRIBED acknowledgement.
func (c *WSClient) SubscribeBattle(battleID string) {
	c.t.Helper()

	msg, err := websocket.NewMessage(websocket.MessageTypeSubscribeBattle, websocket.SubscribeBattlePayload{
		BattleID: battleID,
	})
	if err != nil {
		c.t.Fatalf("failed to build subscribe message: %v", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("failed to marshal subscribe message: %v", err)
	}

	c.mu.Lock()
	err = c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()
	if err != nil {
		c.t.Fatalf("failed to send subscribe: %v", err)
	}

	c.expectType(websocket.MessageTypeSubscribed, 2*time.Second)
}

func (c *WSClient) expectType(msgType websocket.MessageType, timeout time.Duration) *WSFrame {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case frame := <-c.frames:
			if frame == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if frame.Type == msgType {
				return frame
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectEvent waits for a battle/user event frame of the given type, skipping
// everything else.
func (c *WSClient) ExpectEvent(event string, timeout time.Duration) *WSFrame {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case frame := <-c.frames:
			if frame == nil {
				c.t.Fatalf("connection closed while waiting for event %s", event)
			}
			if frame.Event == event {
				return frame
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for event %s: %v", event, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for event %s", event)
		}
	}
}
