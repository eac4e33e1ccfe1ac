// Package realtime subscribes to the backend's event feed and invalidates
// cache keys as stations, batteries and bookings change server-side, so
// pollers pick up fresh data on their next read.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"voltswap/cache"
	"voltswap/session"
)

const (
	readLimit    = 1024 * 1024
	readDeadline = 60 * time.Second
	pingInterval = 30 * time.Second
	maxBackoff   = 30 * time.Second
)

// Event announces a server-side change to one resource.
type Event struct {
	Resource string `json:"resource"`
	ID       int64  `json:"id,omitempty"`
	Event    string `json:"event"`
}

// Invalidator marks cache keys stale.
type Invalidator interface {
	Invalidate(keys ...cache.Key)
}

// Listener maintains the event-feed connection.
type Listener struct {
	url     string
	dialer  *websocket.Dialer
	cache   Invalidator
	session *session.Store
	logger  *zap.Logger
}

// NewListener returns a listener for the ws endpoint at wsURL.
func NewListener(wsURL string, inv Invalidator, sess *session.Store, logger *zap.Logger) *Listener {
	return &Listener{
		url:     wsURL,
		dialer:  websocket.DefaultDialer,
		cache:   inv,
		session: sess,
		logger:  logger,
	}
}

// Run connects and reads events until ctx is cancelled, reconnecting with
// exponential backoff on failure.
func (l *Listener) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := l.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("event feed disconnected", zap.Error(err), zap.Duration("retry_in", backoff))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (l *Listener) runOnce(ctx context.Context) error {
	header := http.Header{}
	if token := l.session.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := l.dialer.DialContext(ctx, l.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	// ReadMessage blocks past ctx cancellation; closing the connection
	// unblocks it.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	l.logger.Info("event feed connected", zap.String("url", l.url))

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	go l.pingPump(ctx, conn)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			l.logger.Warn("malformed event", zap.Error(err))
			continue
		}
		l.apply(event)
	}
}

func (l *Listener) pingPump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

// apply invalidates both the resource's list key and the per-id key.
func (l *Listener) apply(event Event) {
	if event.Resource == "" {
		return
	}
	keys := []cache.Key{cache.NewKey(event.Resource)}
	if event.ID != 0 {
		keys = append(keys, cache.NewKey(event.Resource, event.ID))
	}
	l.cache.Invalidate(keys...)
	l.logger.Debug("event applied",
		zap.String("resource", event.Resource),
		zap.Int64("id", event.ID),
		zap.String("event", event.Event))
}
