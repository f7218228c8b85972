package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gearledger/client"
	"gearledger/discovery"
	"gearledger/domain"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

var watchServerFlag string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Discover a sync server and follow its event stream",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runWatch(); err != nil {
			level.Error(logger).Log("msg", "watch failed", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchServerFlag, "server", "", "Server base URL (skips discovery, e.g. http://10.0.0.5:8080)")
}

func runWatch() error {
	baseURL := watchServerFlag
	if baseURL == "" {
		found, err := discoverServer()
		if err != nil {
			return err
		}
		baseURL = fmt.Sprintf("http://%s:%d", found.IP, found.Port)
		level.Info(logger).Log("msg", "server discovered", "name", found.Name, "url", baseURL)
	}

	c := client.New(baseURL, logger)
	if err := c.CheckConnection(context.Background()); err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}

	stream := client.NewStream(baseURL, client.StreamHandlers{
		OnConnect: func() {
			level.Info(logger).Log("msg", "subscribed")
		},
		OnDisconnect: func() {
			level.Info(logger).Log("msg", "disconnected, will retry")
		},
		OnResultsChanged: func(version int64) {
			level.Info(logger).Log("msg", "results changed", "version", version)
		},
		OnCatalogUploaded: func(filename string, size int, version int64) {
			level.Info(logger).Log("msg", "catalog uploaded", "filename", filename, "size", size, "version", version)
		},
	}, logger)
	stream.Start()
	defer stream.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	return nil
}

// discoverServer listens on the discovery port until the first announcement
// arrives or the wait times out.
func discoverServer() (domain.DiscoveredServer, error) {
	found := make(chan domain.DiscoveredServer, 1)
	listener := discovery.NewListener(func(srv domain.DiscoveredServer) {
		select {
		case found <- srv:
		default:
		}
	}, logger)

	if err := listener.Start(); err != nil {
		return domain.DiscoveredServer{}, err
	}
	defer listener.Stop()

	level.Info(logger).Log("msg", "waiting for a server announcement...")
	select {
	case srv := <-found:
		return srv, nil
	case <-time.After(4 * discovery.BroadcastInterval):
		return domain.DiscoveredServer{}, fmt.Errorf("no server discovered on port %d", discovery.Port)
	}
}
