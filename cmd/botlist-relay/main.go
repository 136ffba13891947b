// Command botlist-relay receives botlist.space upvote webhooks and
// re-broadcasts them to WebSocket subscribers.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/botlistspace/go-botlist/internal/config"
	"github.com/botlistspace/go-botlist/internal/metrics"
	"github.com/botlistspace/go-botlist/internal/relay"
	"github.com/botlistspace/go-botlist/internal/ws"
	"github.com/botlistspace/go-botlist/webhook"
)

// version is set via ldflags.
var version = "0.1.0"

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	receiver := webhook.New(
		webhook.WithToken(cfg.WebhookToken.Value()),
		webhook.WithPath(cfg.WebhookPath),
		webhook.WithLogger(log),
	)

	hub := ws.NewHub(log)

	receiver.OnUpvote(func(ev webhook.UpvoteEvent) {
		metrics.UpvotesReceived.Inc()
		log.WithFields(logrus.Fields{
			"bot":  ev.Payload.Bot,
			"user": ev.Payload.User.ID,
		}).Info("upvote received")

		data, err := json.Marshal(ev.Payload)
		if err != nil {
			log.WithError(err).Error("failed to marshal upvote payload")
			return
		}
		hub.BroadcastEvent("upvote", data)
	})
	receiver.OnError(func(err error) {
		metrics.WebhookRejections.Inc()
		log.WithError(err).Warn("webhook request failed")
	})

	router := relay.NewRouter(ctx, &relay.RouterDeps{
		Log:         log,
		Receiver:    receiver,
		Hub:         hub,
		CORSOrigins: cfg.CORSOrigins,
		WebhookPath: cfg.WebhookPath,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.WithField("addr", cfg.Addr()).Info("relay listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("relay exited with error")
	}
	log.Info("relay stopped")
}
