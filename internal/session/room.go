package session

import (
	"sync"

	"github.com/avinasha18/interview-proctor/internal/models"
)

// Room is the membership of one interview. order is held across
// "store write + broadcast" so room broadcasts follow store-write order.
// An ended room refuses joins but stays reachable until its last member
// leaves; a closed room is gone from the coordinator's table.
type Room struct {
	ID      string
	mu      sync.Mutex
	order   sync.Mutex
	clients map[*Client]struct{}
	ended   bool
	closed  bool
}

func NewRoom(id string) *Room {
	return &Room{ID: id, clients: make(map[*Client]struct{})}
}

// Join adds c unless the interview ended or the room has been torn down.
func (r *Room) Join(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.ended {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// Leave removes c and returns the remaining member count.
func (r *Room) Leave(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	return len(r.clients)
}

func (r *Room) GetClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *Room) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Room) end() {
	r.mu.Lock()
	r.ended = true
	r.mu.Unlock()
}

func (r *Room) isEnded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// members snapshots the clients holding role; "" selects everyone.
func (r *Room) members(role models.Role) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		if role == "" || c.Role() == role {
			out = append(out, c)
		}
	}
	return out
}

// Broadcast sends frame to every member with the given role ("" for all) and
// returns the send errors; a failing client never stops delivery to the rest.
func (r *Room) Broadcast(role models.Role, frame models.WSFrame) map[*Client]error {
	var failed map[*Client]error
	for _, c := range r.members(role) {
		if err := c.Send(frame); err != nil {
			if failed == nil {
				failed = make(map[*Client]error)
			}
			failed[c] = err
		}
	}
	return failed
}
