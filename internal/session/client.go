package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/avinasha18/interview-proctor/internal/metrics"
	"github.com/avinasha18/interview-proctor/internal/models"
)

const writeWait = 10 * time.Second

// Client is one websocket connection. Writes are serialised by mu; interviewer
// clients additionally own a one-slot frame mailbox drained by their own writer.
type Client struct {
	ID   string
	Conn *websocket.Conn
	mu   sync.Mutex
	hook func(models.WSFrame) error

	stateMu sync.Mutex
	room    *Room
	role    models.Role
	email   string
	leaving bool

	frameMu  sync.Mutex
	pending  *models.VideoFrame
	frameSig chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:       uuid.New().String(),
		Conn:     conn,
		frameSig: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.WSFrame) error) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Send writes one frame. Failures are reported as ErrTransport.
func (c *Client) Send(frame models.WSFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		if err := c.hook(frame); err != nil {
			return fmt.Errorf("%w: %v", models.ErrTransport, err)
		}
		return nil
	}
	if c.Conn == nil {
		return nil
	}
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.Conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	return nil
}

// Ping sends a websocket ping control frame.
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Conn == nil {
		return nil
	}
	return c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Role is empty until the client has joined a room.
func (c *Client) Role() models.Role {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.role
}

func (c *Client) Room() *Room {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.room
}

func (c *Client) bind(room *Room, role models.Role, email string) {
	c.stateMu.Lock()
	c.room, c.role, c.email = room, role, email
	c.stateMu.Unlock()
}

func (c *Client) markLeaving() {
	c.stateMu.Lock()
	c.leaving = true
	c.stateMu.Unlock()
}

func (c *Client) isLeaving() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.leaving
}

// offerFrame places f in the mailbox, replacing any unsent frame.
func (c *Client) offerFrame(f models.VideoFrame) (replaced bool) {
	c.frameMu.Lock()
	replaced = c.pending != nil
	c.pending = &f
	c.frameMu.Unlock()

	select {
	case c.frameSig <- struct{}{}:
	default:
	}
	return replaced
}

func (c *Client) takeFrame() *models.VideoFrame {
	c.frameMu.Lock()
	defer c.frameMu.Unlock()
	f := c.pending
	c.pending = nil
	return f
}

// runFrameWriter drains the mailbox until Close.
func (c *Client) runFrameWriter(onErr func(error)) {
	for {
		select {
		case <-c.done:
			return
		case <-c.frameSig:
			f := c.takeFrame()
			if f == nil {
				continue
			}
			if err := c.Send(models.WSFrame{Type: models.SignalVideoFrame, Data: f}); err != nil {
				onErr(err)
				continue
			}
			metrics.FrameRelayed()
		}
	}
}

// Close stops the frame writer. The underlying connection is owned by the caller.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}
