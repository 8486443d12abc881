// Package stream broadcasts simulation snapshots to websocket clients.
package stream

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"rigid3d/internal/engine"
	"rigid3d/internal/physics"

	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

// client serializes writes to one connection; gorilla connections allow a
// single concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Hub tracks connected clients and fans snapshots out to them. New clients
// receive the most recent snapshot on connect.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  *Snapshot
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client goes away. Incoming messages are read and discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Stream: upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	latest := h.latest
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("Stream: client %s connected (%d total)", r.RemoteAddr, count)

	if latest != nil {
		if err := c.writeJSON(latest); err != nil {
			h.drop(c)
			return
		}
	}

	defer h.drop(c)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// Broadcast sends snap to every client and returns how many received it.
// Clients that fail a write are disconnected.
func (h *Hub) Broadcast(snap Snapshot) int {
	h.mu.Lock()
	h.latest = &snap
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range targets {
		if err := c.writeJSON(snap); err != nil {
			log.Printf("Stream: dropping client: %v", err)
			h.drop(c)
			continue
		}
		sent++
	}
	return sent
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	targets := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range targets {
		c.conn.Close()
	}
}

// Run steps world in real time at hz steps per second and broadcasts a
// snapshot after each step until ctx is done.
func Run(ctx context.Context, hub *Hub, world *physics.PhysicsWorld, scene *engine.Scene, hz int, useGPU bool) error {
	if hz <= 0 {
		return fmt.Errorf("invalid step rate %d", hz)
	}
	dt := 1.0 / float64(hz)
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	var step uint64
	var simTime float64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if useGPU {
				world.StepGPU(scene, dt)
			} else {
				world.Step(scene, dt)
			}
			step++
			simTime += dt
			hub.Broadcast(Capture(scene, world, step, simTime))
		}
	}
}
