// Package discovery implements LAN peer discovery: the server periodically
// broadcasts a JSON announcement datagram on a fixed UDP port, and clients
// collect announcements into a time-expiring map of live servers.
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

const (
	// Port is the fixed, well-known UDP discovery port.
	Port = 8391
	// BroadcastInterval is the announce period.
	BroadcastInterval = 3 * time.Second
	// StaleAfter is how long a server survives in the discovered set
	// without a fresh announcement.
	StaleAfter = 5 * time.Second
)

// Broadcaster announces a server's presence on the LAN until stopped.
// A send error terminates the broadcast loop: fatal to this component only,
// the owning server keeps running.
type Broadcaster struct {
	name     string
	port     int
	target   string
	interval time.Duration
	logger   log.Logger

	mu       sync.Mutex
	conn     *net.UDPConn
	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// BroadcasterOption adjusts a Broadcaster. Used by tests to redirect the
// datagrams to loopback and shorten the interval.
type BroadcasterOption func(*Broadcaster)

// WithTarget overrides the destination address (default: the network
// broadcast address on the discovery port).
func WithTarget(addr string) BroadcasterOption {
	return func(b *Broadcaster) { b.target = addr }
}

// WithInterval overrides the announce period.
func WithInterval(d time.Duration) BroadcasterOption {
	return func(b *Broadcaster) { b.interval = d }
}

// NewBroadcaster creates a broadcaster announcing `name` serving HTTP on
// `port`.
func NewBroadcaster(name string, port int, logger log.Logger, opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		name:     name,
		port:     port,
		target:   fmt.Sprintf("%s:%d", net.IPv4bcast.String(), Port),
		interval: BroadcastInterval,
		logger:   log.WithPrefix(logger, "component", "broadcaster"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start opens the socket and launches the announce loop.
func (b *Broadcaster) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return fmt.Errorf("discovery: broadcaster already started")
	}

	addr, err := net.ResolveUDPAddr("udp4", b.target)
	if err != nil {
		return fmt.Errorf("discovery: resolving %s: %w", b.target, err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("discovery: dialing %s: %w", b.target, err)
	}
	b.conn = conn
	b.started = true

	go b.loop()

	level.Info(b.logger).Log("msg", "broadcasting", "name", b.name, "port", b.port, "target", b.target)
	return nil
}

// Stop terminates the announce loop and waits for it to exit. Safe to call
// more than once, and before Start (no-op then).
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()
	if !started {
		return
	}
	b.stopOnce.Do(func() { close(b.stop) })
	<-b.done
}

func (b *Broadcaster) loop() {
	defer close(b.done)
	defer b.conn.Close()

	announcement := domain.Announcement{
		Type: domain.AnnounceType,
		IP:   localIP(b.conn),
		Port: b.port,
		Name: b.name,
	}
	payload, err := json.Marshal(announcement)
	if err != nil {
		level.Error(b.logger).Log("msg", "marshal announcement", "err", err)
		return
	}

	// Announce immediately, then on the ticker.
	if !b.send(payload) {
		return
	}

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			if !b.send(payload) {
				return
			}
		}
	}
}

func (b *Broadcaster) send(payload []byte) bool {
	if _, err := b.conn.Write(payload); err != nil {
		level.Error(b.logger).Log("msg", "broadcast send failed, stopping", "err", err)
		return false
	}
	return true
}

// localIP derives the outbound IPv4 of the socket used for announcing.
func localIP(conn *net.UDPConn) string {
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP != nil && !addr.IP.IsUnspecified() {
		return addr.IP.String()
	}
	// Fall back to the first non-loopback interface address.
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, a := range addrs {
			if ipNet, ok := a.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
				return ipNet.IP.String()
			}
		}
	}
	return "127.0.0.1"
}
