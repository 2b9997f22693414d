// Package live provides WebSocket broadcasting of real-time viewer updates.
package live

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// ViewerUpdate is pushed to subscribers whenever the poller observes a channel.
type ViewerUpdate struct {
	ChannelID string `json:"channelId"`
	TS        int64  `json:"ts"`
	Live      bool   `json:"live"`
	Viewers   uint32 `json:"viewers"`
}

// Broadcaster manages WebSocket connections and broadcasts viewer updates
// per channel.
type Broadcaster struct {
	mu          sync.RWMutex
	connections map[string]map[*websocket.Conn]bool // channelID -> connections
}

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		connections: make(map[string]map[*websocket.Conn]bool),
	}
}

// Subscribe registers a WebSocket connection for a channel.
func (b *Broadcaster) Subscribe(channelID string, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connections[channelID] == nil {
		b.connections[channelID] = make(map[*websocket.Conn]bool)
	}
	b.connections[channelID][conn] = true
}

// Unsubscribe removes a WebSocket connection from all channels.
func (b *Broadcaster) Unsubscribe(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for channelID, conns := range b.connections {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(b.connections, channelID)
		}
	}
}

// Broadcast sends a viewer update to all subscribers of a channel.
func (b *Broadcaster) Broadcast(update *ViewerUpdate) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	conns, exists := b.connections[update.ChannelID]
	if !exists || len(conns) == 0 {
		return
	}

	// Serialize once for all subscribers
	data, err := json.Marshal(update)
	if err != nil {
		slog.Error("failed to marshal viewer update", "error", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Warn("failed to send message to websocket client",
				"error", err,
				"channel_id", update.ChannelID,
			)
			// Connection will be cleaned up when client disconnects
		}
	}
}

// ConnectionCount returns the number of active WebSocket connections for a channel.
func (b *Broadcaster) ConnectionCount(channelID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if conns, exists := b.connections[channelID]; exists {
		return len(conns)
	}
	return 0
}
