package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout     = 10 * time.Second
	wsReadLimit      = 1024
	subscriberBuffer = 256
	pingInterval     = 30 * time.Second
	pingTimeout      = 10 * time.Second
)

// Subscriber wraps a single WebSocket connection managed by the Hub.
// The connection is push-only; inbound frames are read and discarded to
// drive the close handshake.
type Subscriber struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	log       *logrus.Logger
	closeOnce sync.Once
}

// NewSubscriber creates a Subscriber for the given WebSocket connection.
func NewSubscriber(hub *Hub, conn *websocket.Conn) *Subscriber {
	return &Subscriber{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, subscriberBuffer),
		log:  hub.log,
	}
}

// closeSend safely closes the send channel exactly once.
func (s *Subscriber) closeSend() {
	s.closeOnce.Do(func() { close(s.send) })
}

// ReadPump reads and discards frames until the connection closes.
func (s *Subscriber) ReadPump(ctx context.Context) {
	defer func() {
		s.hub.Unregister(s)
		s.conn.CloseNow() //nolint:errcheck // best-effort close on teardown
	}()

	s.conn.SetReadLimit(wsReadLimit)

	for {
		if _, _, err := s.conn.Read(ctx); err != nil {
			if websocket.CloseStatus(err) != -1 {
				s.log.WithField("status", websocket.CloseStatus(err)).Debug("subscriber disconnected")
			}

			return
		}
	}
}

// WritePump writes queued events to the connection and keeps it alive with
// periodic pings.
func (s *Subscriber) WritePump(ctx context.Context) {
	defer s.conn.CloseNow() //nolint:errcheck // best-effort close on teardown

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-pingTicker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				s.log.WithError(err).Debug("ping failed")

				return
			}
		case msg, ok := <-s.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := s.conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()

			if err != nil {
				s.log.WithError(err).Debug("write failed")

				return
			}
		}
	}
}
