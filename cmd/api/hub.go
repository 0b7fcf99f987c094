package main

import (
	"fmt"
	"sync"

	v1 "github.com/PaulBabatuyi/mindcare-gRPC/api/v1"
)

// EventSender defines the minimal interface the hub needs from a connection:
// the ability to push an Event to the connected client.
type EventSender interface {
	Send(*v1.Event) error
}

// ConnectionHub manages the live sessions (gRPC Subscribe streams and
// websockets) of connected users. It maps user ids to one or more sessions so
// the server can push events to every endpoint a user has open.
type ConnectionHub struct {
	mu      sync.RWMutex
	streams map[string]map[int64]EventSender
	nextID  int64
}

// NewConnectionHub creates a new hub instance.
func NewConnectionHub() *ConnectionHub {
	return &ConnectionHub{streams: make(map[string]map[int64]EventSender)}
}

// Register registers a session for the given user and returns a connection id
// which should be used later to unregister the session when it closes.
func (h *ConnectionHub) Register(userID string, s EventSender) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.streams[userID]; !ok {
		h.streams[userID] = make(map[int64]EventSender)
	}

	h.nextID++
	id := h.nextID
	h.streams[userID][id] = s
	return id
}

// Unregister removes a previously-registered session.
func (h *ConnectionHub) Unregister(userID string, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.streams[userID]; ok {
		delete(conns, id)
		if len(conns) == 0 {
			delete(h.streams, userID)
		}
	}
}

// Connections returns how many sessions the user has open.
func (h *ConnectionHub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[userID])
}

// SendToUser pushes ev to every session of the user. It returns an error if
// the user has no sessions, otherwise the first delivery error (if any).
func (h *ConnectionHub) SendToUser(userID string, ev *v1.Event) error {
	return h.send(userID, 0, ev)
}

// SendToOthers is SendToUser without the originating session.
func (h *ConnectionHub) SendToOthers(userID string, except int64, ev *v1.Event) error {
	return h.send(userID, except, ev)
}

func (h *ConnectionHub) send(userID string, except int64, ev *v1.Event) error {
	// Copy under the read lock so Send runs without holding it
	h.mu.RLock()
	conns := make(map[int64]EventSender, len(h.streams[userID]))
	for id, s := range h.streams[userID] {
		if id != except {
			conns[id] = s
		}
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return fmt.Errorf("user %s not connected", userID)
	}

	var firstErr error
	// Track connection ids which failed so we can unregister them and avoid
	// keeping stale/broken sessions in the hub.
	var failedIDs []int64

	// Best-effort: one failing session does not stop delivery to the others
	for id, st := range conns {
		if err := st.Send(ev); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			failedIDs = append(failedIDs, id)
		}
	}

	for _, id := range failedIDs {
		h.Unregister(userID, id)
	}

	return firstErr
}

// lockedSender serializes Send on a connection that is not safe for
// concurrent writes (gRPC server streams, websocket conns).
type lockedSender struct {
	mu   sync.Mutex
	send func(*v1.Event) error
}

func (l *lockedSender) Send(ev *v1.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.send(ev)
}
