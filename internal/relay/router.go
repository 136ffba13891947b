// Package relay wires the webhook receiver, metrics, and WebSocket fan-out
// into one HTTP surface.
package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/botlistspace/go-botlist/internal/middleware"
	"github.com/botlistspace/go-botlist/internal/ws"
	"github.com/botlistspace/go-botlist/webhook"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Receiver    *webhook.Receiver
	Hub         *ws.Hub
	CORSOrigins []string
	WebhookPath string
	Version     string
}

// NewRouter creates the Gin engine serving the webhook endpoint, the
// Prometheus metrics endpoint, a dashboard status endpoint, and the
// WebSocket subscription endpoint.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID())
	r.Use(relayLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Prometheus())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Dashboard-facing endpoints allow cross-origin reads.
	dash := r.Group("/", cors.New(cors.Config{
		AllowOrigins: deps.CORSOrigins,
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       1 * time.Hour,
	}))
	dash.GET("/status", statusHandler(deps))
	dash.GET("/ws", wsHandler(ctx, deps))

	webhookPath := deps.WebhookPath
	if webhookPath == "" {
		webhookPath = "/"
	}
	r.Any(webhookPath, gin.WrapH(deps.Receiver.Handler()))

	return r
}

// statusHandler reports receiver state and subscriber count.
func statusHandler(deps *RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"version":     deps.Version,
			"active":      deps.Receiver.Active(),
			"subscribers": deps.Hub.SubscriberCount(),
		})
	}
}

// wsHandler upgrades a dashboard connection and attaches it to the hub.
func wsHandler(appCtx context.Context, deps *RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns: deps.CORSOrigins,
		})
		if err != nil {
			deps.Log.WithError(err).Error("websocket accept failed")

			return
		}

		sub := ws.NewSubscriber(deps.Hub, conn)
		deps.Hub.Register(sub)

		// Derive a context that ends with either the server or the request.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go sub.WritePump(wsCtx)
		sub.ReadPump(wsCtx)
		wsCancel()
	}
}

func relayLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			fields["request_id"] = rid
		}
		log.WithFields(fields).Info("request")
	}
}
