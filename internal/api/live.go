package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"forchetta/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// feed tracks the open queue-dashboard connections per restaurant and
// nudges them whenever the queue changes
type feed struct {
	mu    sync.Mutex
	conns map[uint]map[chan struct{}]bool
}

func newFeed() *feed {
	return &feed{conns: make(map[uint]map[chan struct{}]bool)}
}

func (f *feed) subscribe(restaurantID uint) chan struct{} {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conns[restaurantID] == nil {
		f.conns[restaurantID] = make(map[chan struct{}]bool)
	}
	f.conns[restaurantID][ch] = true
	return ch
}

func (f *feed) unsubscribe(restaurantID uint, ch chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conns[restaurantID], ch)
}

// Notify nudges every open connection for the restaurant. A connection
// that already has a pending nudge is skipped rather than blocked on.
func (f *feed) Notify(restaurantID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.conns[restaurantID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// QueueLive upgrades to a websocket and pushes the owner's queue snapshot
// after every change and on a heartbeat tick
func (a *API) QueueLive(c *gin.Context) {
	ownerID := auth.UserID(c)
	restaurant, err := a.restaurants.FindByOwner(ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	nudge := a.feed.subscribe(restaurant.ID)
	done := make(chan struct{})

	// Read pump: only consumed to detect the client going away
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		a.feed.unsubscribe(restaurant.ID, nudge)
		conn.Close()
	}()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	push := func() bool {
		snapshot, err := a.queue.Snapshot(ownerID)
		if err != nil {
			log.Printf("Failed to build queue snapshot: %v", err)
			return true
		}
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(snapshot); err != nil {
			return false
		}
		return true
	}

	if !push() {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-nudge:
			if !push() {
				return
			}
		case <-ticker.C:
			if !push() {
				return
			}
		}
	}
}
