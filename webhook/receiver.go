// Package webhook receives and re-emits botlist.space upvote notifications.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/botlistspace/go-botlist/client"
)

// Receiver defaults and limits.
const (
	// DefaultPort is the listening port used when Listen is given zero.
	DefaultPort = 1234

	// DefaultPath is the request path the receiver answers on.
	DefaultPath = "/"

	// maxBodyBytes caps how much of an inbound body is read.
	maxBodyBytes = 1 << 20

	// serviceUserAgent is the fixed identifying string the listing service
	// sends with every webhook delivery.
	serviceUserAgent = "botlist.space Webhooks (https://botlist.space)"

	readHeaderTimeout = 10 * time.Second
)

// UpvotePayload is the JSON body of an upvote notification.
type UpvotePayload struct {
	Bot       string      `json:"bot"`
	User      client.User `json:"user"`
	Timestamp int64       `json:"timestamp"`
}

// UpvoteEvent is delivered to upvote subscribers for each accepted request.
type UpvoteEvent struct {
	Payload UpvotePayload
	Headers http.Header
	Raw     json.RawMessage
}

// Receiver validates inbound webhook requests and re-emits them as events.
// A receiver starts active; Close and Open gate request acceptance without
// touching bound listeners.
type Receiver struct {
	mu         sync.Mutex
	active     bool
	token      string
	path       string
	log        *logrus.Logger
	nextSub    int
	upvoteSubs map[int]func(UpvoteEvent)
	errorSubs  map[int]func(error)
	servers    map[int]*http.Server
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithToken sets a shared secret that inbound Authorization headers must
// match exactly.
func WithToken(token string) Option {
	return func(r *Receiver) { r.token = token }
}

// WithPath sets the request path answered by listeners started via Listen.
func WithPath(path string) Option {
	return func(r *Receiver) {
		if path != "" {
			r.path = path
		}
	}
}

// WithLogger sets a logger for request validation logging.
func WithLogger(log *logrus.Logger) Option {
	return func(r *Receiver) { r.log = log }
}

// New creates an active Receiver.
func New(opts ...Option) *Receiver {
	r := &Receiver{
		active:     true,
		path:       DefaultPath,
		upvoteSubs: make(map[int]func(UpvoteEvent)),
		errorSubs:  make(map[int]func(error)),
		servers:    make(map[int]*http.Server),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Open resumes accepting inbound requests.
func (r *Receiver) Open() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = true
}

// Close stops accepting inbound requests. Listeners stay bound; requests
// are answered 412 until Open is called.
func (r *Receiver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
}

// Active reports whether inbound requests are accepted.
func (r *Receiver) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// OnUpvote subscribes to accepted upvote notifications. The returned
// function cancels the subscription.
func (r *Receiver) OnUpvote(fn func(UpvoteEvent)) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.upvoteSubs[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.upvoteSubs, id)
	}
}

// OnError subscribes to request validation and parse failures. The returned
// function cancels the subscription.
func (r *Receiver) OnError(fn func(error)) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.errorSubs[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.errorSubs, id)
	}
}

// Handler exposes the receiver for mounting into an external router.
func (r *Receiver) Handler() http.Handler {
	return http.HandlerFunc(r.handle)
}

// handle runs the validation chain in fixed order, short-circuiting on the
// first failure. Each failure answers with its status and notifies error
// subscribers.
func (r *Receiver) handle(w http.ResponseWriter, req *http.Request) {
	if !r.Active() {
		r.fail(w, http.StatusPreconditionFailed, "receiver is closed")
		return
	}
	if req.Method != http.MethodPost {
		r.fail(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", req.Method))
		return
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		r.fail(w, http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported content type %q", ct))
		return
	}
	if ua := req.Header.Get("User-Agent"); ua != serviceUserAgent {
		r.fail(w, http.StatusForbidden, "user agent does not identify the listing service")
		return
	}
	if token := r.tokenValue(); token != "" && req.Header.Get("Authorization") != token {
		r.fail(w, http.StatusForbidden, "authorization token mismatch")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			r.fail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("body exceeds %d bytes", maxBodyBytes))
			return
		}
		r.fail(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var payload UpvotePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		r.fail(w, http.StatusBadRequest, "malformed json payload")
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK")) //nolint:errcheck // best-effort acknowledgement

	r.emitUpvote(UpvoteEvent{
		Payload: payload,
		Headers: req.Header.Clone(),
		Raw:     body,
	})
}

// Listen binds a listener on the given port (DefaultPort when zero) serving
// the configured path. Binding is idempotent per port: a port already bound
// is skipped, and a new port adds a listener without closing existing ones.
func (r *Receiver) Listen(port int) error {
	if port == 0 {
		port = DefaultPort
	}

	r.mu.Lock()
	if _, bound := r.servers[port]; bound {
		r.mu.Unlock()
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(r.path, r.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	r.servers[port] = srv
	log := r.log
	r.mu.Unlock()

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		r.mu.Lock()
		delete(r.servers, port)
		r.mu.Unlock()
		return fmt.Errorf("webhook: listen on port %d: %w", port, err)
	}

	if log != nil {
		log.WithField("port", port).Info("webhook listener bound")
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.emitError(fmt.Errorf("webhook: serve on port %d: %w", port, err))
		}
	}()
	return nil
}

// Shutdown stops every listener started via Listen. The receiver's
// active/closed state is unaffected.
func (r *Receiver) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	servers := make([]*http.Server, 0, len(r.servers))
	for _, srv := range r.servers {
		servers = append(servers, srv)
	}
	r.servers = make(map[int]*http.Server)
	r.mu.Unlock()

	var firstErr error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// fail answers a rejected request and notifies error subscribers.
func (r *Receiver) fail(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
	if r.log != nil {
		r.log.WithField("status", status).Warn("webhook request rejected: " + msg)
	}
	r.emitError(fmt.Errorf("webhook: %s (status %d)", msg, status))
}

func (r *Receiver) tokenValue() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token
}

// emitUpvote delivers an event to each subscriber synchronously. The
// subscriber list is snapshotted so handlers may subscribe or cancel freely.
func (r *Receiver) emitUpvote(ev UpvoteEvent) {
	r.mu.Lock()
	subs := make([]func(UpvoteEvent), 0, len(r.upvoteSubs))
	for _, fn := range r.upvoteSubs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (r *Receiver) emitError(err error) {
	r.mu.Lock()
	subs := make([]func(error), 0, len(r.errorSubs))
	for _, fn := range r.errorSubs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()
	for _, fn := range subs {
		fn(err)
	}
}
