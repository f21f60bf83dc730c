package chat

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub pushes session snapshots to every connected view. Run is the only
// goroutine that touches clients.
type Hub struct {
	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	direct     chan directMessage
	wake       chan struct{}
	done       chan struct{}

	mu      sync.Mutex
	pending *Snapshot
	sent    uint64

	log *zap.Logger
}

type directMessage struct {
	client *Client
	data   []byte
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		direct:     make(chan directMessage, 16),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Publish hands the hub a new snapshot. It never blocks: snapshots that
// arrive faster than Run drains them are coalesced, and an older version
// never replaces a newer one. Pass it to WithNotifier.
func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	if h.pending == nil || snap.Version > h.pending.Version {
		h.pending = &snap
	}
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Hub) Run(ctx context.Context) {
	h.log.Info("hub_started")
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			close(h.done)
			h.log.Info("hub_stopped")
			return

		case client := <-h.Register:
			h.clients[client] = true
			h.log.Debug("view_registered", zap.Int("views", len(h.clients)))

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.Debug("view_unregistered", zap.Int("views", len(h.clients)))
			}

		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; ok {
				h.deliver(msg.client, msg.data)
			}

		case <-h.wake:
			h.mu.Lock()
			snap := h.pending
			h.pending = nil
			h.mu.Unlock()
			if snap == nil || snap.Version <= h.sent {
				continue
			}
			h.sent = snap.Version

			data, err := json.Marshal(WSMessage{Type: WSTypeSnapshot, Payload: snap})
			if err != nil {
				h.log.Error("snapshot_marshal_failed", zap.Error(err))
				continue
			}
			for client := range h.clients {
				if snap.Version <= client.seen {
					continue
				}
				client.seen = snap.Version
				h.deliver(client, data)
			}
		}
	}
}

// register hands a client to Run, giving up if the hub has stopped.
func (h *Hub) register(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// deliver drops a view whose buffer is full instead of stalling the others.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		close(client.Send)
		delete(h.clients, client)
		h.log.Warn("view_dropped_slow", zap.Int("views", len(h.clients)))
	}
}

// sendTo queues a frame for a single view if it is still connected.
func (h *Hub) sendTo(client *Client, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.direct <- directMessage{client: client, data: data}:
	case <-h.done:
	default:
		h.log.Warn("direct_message_dropped", zap.String("type", msg.Type))
	}
}
