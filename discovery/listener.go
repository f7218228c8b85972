package discovery

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"gearledger/domain"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// readDeadline bounds each UDP receive so the loop can observe Stop.
const readDeadline = 500 * time.Millisecond

// Listener collects server announcements from the discovery port into a
// time-expiring map. Malformed or unrecognized datagrams are dropped
// silently; they are never fatal to the loop.
type Listener struct {
	port       int
	staleAfter time.Duration
	onDiscover func(domain.DiscoveredServer)
	logger     log.Logger

	mu      sync.Mutex
	servers map[string]domain.DiscoveredServer

	conn     *net.UDPConn
	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// ListenerOption adjusts a Listener.
type ListenerOption func(*Listener)

// WithListenPort overrides the discovery port (tests).
func WithListenPort(port int) ListenerOption {
	return func(l *Listener) { l.port = port }
}

// WithStaleAfter overrides the staleness window (tests).
func WithStaleAfter(d time.Duration) ListenerOption {
	return func(l *Listener) { l.staleAfter = d }
}

// NewListener creates a listener. onDiscover may be nil; when set it fires
// only for a server that is new or whose previous entry had already expired —
// a refresh of a live entry is silent.
func NewListener(onDiscover func(domain.DiscoveredServer), logger log.Logger, opts ...ListenerOption) *Listener {
	l := &Listener{
		port:       Port,
		staleAfter: StaleAfter,
		onDiscover: onDiscover,
		logger:     log.WithPrefix(logger, "component", "listener"),
		servers:    make(map[string]domain.DiscoveredServer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start binds the discovery port and launches the receive loop.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return fmt.Errorf("discovery: listener already started")
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: l.port})
	if err != nil {
		return fmt.Errorf("discovery: binding port %d: %w", l.port, err)
	}
	l.conn = conn
	l.started = true

	go l.loop()

	level.Info(l.logger).Log("msg", "listening for servers", "port", l.port)
	return nil
}

// Stop terminates the receive loop and waits for it to exit.
func (l *Listener) Stop() {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if !started {
		return
	}
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}

// Servers prunes stale entries and returns a snapshot of the live set.
func (l *Listener) Servers() []domain.DiscoveredServer {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, srv := range l.servers {
		if now.Sub(srv.LastSeen) > l.staleAfter {
			delete(l.servers, key)
		}
	}
	out := make([]domain.DiscoveredServer, 0, len(l.servers))
	for _, srv := range l.servers {
		out = append(out, srv)
	}
	return out
}

func (l *Listener) loop() {
	defer close(l.done)
	defer l.conn.Close()

	buf := make([]byte, 2048)
	for {
		select {
		case <-l.stop:
			return
		default:
		}

		_ = l.conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			select {
			case <-l.stop:
				return
			default:
			}
			level.Debug(l.logger).Log("msg", "receive error", "err", err)
			continue
		}

		l.handle(buf[:n])
	}
}

// handle parses one datagram and upserts the discovered set. Anything that
// does not look like a server announcement is ignored.
func (l *Listener) handle(payload []byte) {
	var ann domain.Announcement
	if err := json.Unmarshal(payload, &ann); err != nil {
		return
	}
	if ann.Type != domain.AnnounceType || ann.IP == "" || ann.Port <= 0 {
		return
	}

	now := time.Now()
	key := fmt.Sprintf("%s:%d", ann.IP, ann.Port)
	srv := domain.DiscoveredServer{
		IP:       ann.IP,
		Port:     ann.Port,
		Name:     ann.Name,
		LastSeen: now,
	}

	l.mu.Lock()
	prev, known := l.servers[key]
	fresh := !known || now.Sub(prev.LastSeen) > l.staleAfter
	l.servers[key] = srv
	l.mu.Unlock()

	if fresh {
		level.Info(l.logger).Log("msg", "server discovered", "addr", key, "name", ann.Name)
		if l.onDiscover != nil {
			l.onDiscover(srv)
		}
	}
}
