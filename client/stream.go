package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"gearledger/domain"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	// streamReadTimeout must stay strictly above the server's keepalive
	// interval (30s) so a deliberate keepalive comment is never mistaken
	// for a dead connection.
	streamReadTimeout = 45 * time.Second
	// reconnectBackoff is the fixed delay between reconnect attempts.
	reconnectBackoff = 5 * time.Second
)

// StreamHandlers are the callbacks a Stream dispatches into. All fields are
// optional. OnEvent fires for every event, before any typed callback.
// Callbacks run on the stream's own goroutine and must not block.
type StreamHandlers struct {
	OnConnect         func()
	OnDisconnect      func()
	OnEvent           func(domain.Event)
	OnResultsChanged  func(version int64)
	OnCatalogUploaded func(filename string, size int, version int64)
}

// Stream maintains a long-lived SSE subscription to a server's event
// endpoint on a dedicated goroutine, reconnecting with a fixed backoff until
// stopped.
type Stream struct {
	url      string
	handlers StreamHandlers
	logger   log.Logger

	readTimeout time.Duration
	backoff     time.Duration

	client *http.Client

	startOnce sync.Once
	stopOnce  sync.Once
	cancelMu  sync.Mutex
	cancel    context.CancelFunc
	stop      chan struct{}
	done      chan struct{}
}

// StreamOption adjusts a Stream. Used by tests to shorten timeouts.
type StreamOption func(*Stream)

// WithReadTimeout overrides the silence window after which the connection is
// treated as dead.
func WithReadTimeout(d time.Duration) StreamOption {
	return func(s *Stream) { s.readTimeout = d }
}

// WithBackoff overrides the reconnect delay.
func WithBackoff(d time.Duration) StreamOption {
	return func(s *Stream) { s.backoff = d }
}

// NewStream creates a stream against baseURL's event endpoint.
func NewStream(baseURL string, handlers StreamHandlers, logger log.Logger, opts ...StreamOption) *Stream {
	s := &Stream{
		url:         baseURL + "/api/events",
		handlers:    handlers,
		logger:      log.WithPrefix(logger, "component", "stream"),
		readTimeout: streamReadTimeout,
		backoff:     reconnectBackoff,
		client:      &http.Client{},
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the subscription loop on its own goroutine.
func (s *Stream) Start() {
	s.startOnce.Do(func() { go s.run() })
}

// Stop terminates the loop, closes any open connection and waits for the
// goroutine to exit.
func (s *Stream) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.cancelMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancelMu.Unlock()
	<-s.done
}

func (s *Stream) run() {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		err := s.consume()
		if err != nil {
			level.Debug(s.logger).Log("msg", "stream disconnected", "err", err)
		}
		if s.handlers.OnDisconnect != nil {
			s.handlers.OnDisconnect()
		}

		select {
		case <-s.stop:
			return
		case <-time.After(s.backoff):
		}
	}
}

// consume opens one streaming connection and reads events until it fails or
// the stream is stopped. The response body is always closed so the server
// can observe the disconnect and drop the subscriber.
func (s *Stream) consume() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelMu.Lock()
	s.cancel = cancel
	s.cancelMu.Unlock()
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	level.Debug(s.logger).Log("msg", "stream connected")
	if s.handlers.OnConnect != nil {
		s.handlers.OnConnect()
	}

	// Watchdog: any line (including keepalive comments) resets it; total
	// silence beyond the read timeout kills the connection.
	watchdog := time.AfterFunc(s.readTimeout, cancel)
	defer watchdog.Stop()

	scanner := bufio.NewScanner(resp.Body)
	var data []string
	for scanner.Scan() {
		watchdog.Reset(s.readTimeout)
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, ":"):
			// Keepalive comment.
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case line == "":
			if len(data) > 0 {
				s.dispatch(strings.Join(data, "\n"))
				data = nil
			}
		}
	}
	return scanner.Err()
}

// dispatch parses one event payload and fires the callbacks. Malformed
// payloads are dropped silently.
func (s *Stream) dispatch(payload string) {
	var evt domain.Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		level.Debug(s.logger).Log("msg", "dropping malformed event", "err", err)
		return
	}

	if s.handlers.OnEvent != nil {
		s.handlers.OnEvent(evt)
	}
	switch evt.Type {
	case domain.EventResultsChanged:
		if s.handlers.OnResultsChanged != nil {
			s.handlers.OnResultsChanged(evt.Version)
		}
	case domain.EventCatalogUploaded:
		if s.handlers.OnCatalogUploaded != nil {
			s.handlers.OnCatalogUploaded(evt.Filename, evt.Size, evt.Version)
		}
	}
}
