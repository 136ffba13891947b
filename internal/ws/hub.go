// Package ws fans upvote events out to WebSocket subscribers.
package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/botlistspace/go-botlist/internal/metrics"
)

// Hub channel buffer sizes.
const (
	broadcastBuffer = 256
	registerBuffer  = 64
)

// maxSubscribers caps concurrent WebSocket subscribers.
const maxSubscribers = 500

// Event is the JSON frame pushed to subscribers.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	Time time.Time       `json:"time"`
}

// Hub manages active WebSocket subscribers and broadcasts events to all of
// them. Subscriber map mutations happen exclusively in the Run goroutine.
type Hub struct {
	subscribers map[*Subscriber]bool
	register    chan *Subscriber
	unregister  chan *Subscriber
	broadcast   chan []byte
	shutdown    chan struct{} // signals Run to begin graceful drain
	done        chan struct{} // closed when Run has finished draining
	count       atomic.Int64
	log         *logrus.Logger
}

// NewHub creates a new Hub instance.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]bool),
		register:    make(chan *Subscriber, registerBuffer),
		unregister:  make(chan *Subscriber, registerBuffer),
		broadcast:   make(chan []byte, broadcastBuffer),
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		log:         log,
	}
}

// drainTimeout is how long the hub waits for subscribers to flush on shutdown.
const drainTimeout = 3 * time.Second

// Run starts the hub event loop. It should be run as a goroutine and exits
// when Shutdown is called or the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.drainSubscribers()

			return
		case <-h.shutdown:
			h.drainSubscribers()

			return

		case sub := <-h.register:
			if len(h.subscribers) >= maxSubscribers {
				h.log.Warn("subscriber limit reached, dropping connection")
				sub.closeSend()
				continue
			}
			h.subscribers[sub] = true
			h.count.Store(int64(len(h.subscribers)))
			metrics.WSConnections.Set(float64(len(h.subscribers)))
			h.log.WithField("total", len(h.subscribers)).Info("subscriber registered")

		case sub := <-h.unregister:
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				sub.closeSend()
			}
			h.count.Store(int64(len(h.subscribers)))
			metrics.WSConnections.Set(float64(len(h.subscribers)))
			h.log.WithField("total", len(h.subscribers)).Info("subscriber unregistered")

		case msg := <-h.broadcast:
			for sub := range h.subscribers {
				select {
				case sub.send <- msg:
				default:
					// Slow subscriber, evict rather than block the loop.
					sub.closeSend()
					delete(h.subscribers, sub)
				}
			}
			h.count.Store(int64(len(h.subscribers)))
		}
	}
}

// BroadcastEvent marshals a typed event frame and queues it for delivery to
// every subscriber.
func (h *Hub) BroadcastEvent(eventType string, data json.RawMessage) {
	msg, err := json.Marshal(Event{Type: eventType, Data: data, Time: time.Now()})
	if err != nil {
		h.log.WithError(err).Error("failed to marshal event")
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("broadcast channel full, dropping event")
	}
}

// Register adds a subscriber to the hub.
func (h *Hub) Register(s *Subscriber) {
	select {
	case h.register <- s:
	default:
		h.log.Warn("register channel full, dropping subscriber")
		s.closeSend()
	}
}

// Unregister removes a subscriber from the hub.
func (h *Hub) Unregister(s *Subscriber) {
	select {
	case h.unregister <- s:
	default:
		// Run loop already exited; cleanup happened in Run shutdown.
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	return int(h.count.Load())
}

// Shutdown initiates a graceful drain and blocks until it completes.
func (h *Hub) Shutdown() {
	close(h.shutdown)
	<-h.done
}

// drainSubscribers notifies every subscriber and waits for buffers to flush.
func (h *Hub) drainSubscribers() {
	if len(h.subscribers) == 0 {
		return
	}

	h.log.WithField("subscribers", len(h.subscribers)).Info("draining WebSocket subscribers")

	shutdownMsg := []byte(`{"type":"shutdown"}`)
	for sub := range h.subscribers {
		select {
		case sub.send <- shutdownMsg:
		default:
		}
	}

	deadline := time.After(drainTimeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		allDrained := true
		for sub := range h.subscribers {
			if len(sub.send) > 0 {
				allDrained = false

				break
			}
		}
		if allDrained {
			break
		}

		select {
		case <-deadline:
			h.log.Warn("WebSocket drain timeout, closing remaining subscribers")

			goto closeAll
		case <-ticker.C:
		}
	}

closeAll:
	for sub := range h.subscribers {
		sub.closeSend()
		delete(h.subscribers, sub)
	}

	h.count.Store(0)
	metrics.WSConnections.Set(0)
}
