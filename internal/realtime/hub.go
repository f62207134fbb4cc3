package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
)

// Client is one connected change listener. Resources it watches are keys
// in Resources; an empty set means everything.
type Client struct {
	ID        uuid.UUID
	Resources map[string]bool
	Outbound  chan Change
	done      chan struct{}
}

// Hub fans incoming changes out to connected clients. Slow clients drop
// events rather than block the broadcast.
type Hub struct {
	mu      sync.RWMutex
	log     *logger.Logger
	clients map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:     log.With("component", "ChangeHub"),
		clients: make(map[*Client]bool),
	}
}

// NewClient registers a listener for the named resources; none means all.
func (hub *Hub) NewClient(resources []string) *Client {
	client := &Client{
		ID:        uuid.New(),
		Resources: make(map[string]bool, len(resources)),
		Outbound:  make(chan Change, 16),
		done:      make(chan struct{}),
	}
	for _, r := range resources {
		r = strings.TrimSpace(r)
		if r != "" {
			client.Resources[r] = true
		}
	}
	hub.mu.Lock()
	hub.clients[client] = true
	hub.mu.Unlock()
	hub.log.Debug("Change client connected", "clientID", client.ID, "resources", resources)
	return client
}

func (hub *Hub) CloseClient(client *Client) {
	hub.mu.Lock()
	if _, ok := hub.clients[client]; ok {
		delete(hub.clients, client)
		close(client.done)
	}
	hub.mu.Unlock()
	hub.log.Debug("Change client disconnected", "clientID", client.ID)
}

// Broadcast delivers the change to every client watching its resource.
func (hub *Hub) Broadcast(change Change) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for client := range hub.clients {
		if len(client.Resources) > 0 && !client.Resources[change.Resource] {
			continue
		}
		select {
		case client.Outbound <- change:
		default:
			hub.log.Warn("Dropping change event; outbound buffer full", "clientID", client.ID)
		}
	}
}

// ServeHTTP streams the client's changes as server-sent events until the
// request context ends.
func (hub *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			hub.log.Debug("Change client context done", "clientID", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case change := <-client.Outbound:
			jsonBytes, err := json.Marshal(change)
			if err != nil {
				hub.log.Warn("Failed to marshal change event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", string(jsonBytes))
			flusher.Flush()
		}
	}
}
