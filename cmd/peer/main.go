// Command peer runs a single swarm participant: it registers with the
// tracker, then serves blocks while downloading the rest via rarest-first
// (spec.md §6 CLI surface).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"

	"github.com/lattice-fs/swarm/pkg/config"
	"github.com/lattice-fs/swarm/pkg/logging"
	"github.com/lattice-fs/swarm/pkg/swarmpeer"
)

const defaultTrackerURL = "http://127.0.0.1:5000"

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: peer <peer_id> <port>")
		return 1
	}

	peerID := os.Args[1]

	port, err := strconv.Atoi(os.Args[2])
	if err != nil || port <= 0 || port > 65535 {
		fmt.Fprintf(os.Stderr, "invalid port %q\n", os.Args[2])
		return 1
	}

	if err := logging.Setup(peerID + ".log"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		return 1
	}
	config.Init()

	trackerURL := os.Getenv("SWARM_TRACKER_URL")
	if trackerURL == "" {
		trackerURL = defaultTrackerURL
	}

	color.Cyan("peer %s listening on port %d, tracker %s", peerID, port, trackerURL)

	selfAddress := fmt.Sprintf("http://127.0.0.1:%d", port)
	p := swarmpeer.New(peerID, selfAddress, trackerURL)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := p.Register(ctx); err != nil {
		slog.Error("registration failed", "error", err)
		return 1
	}

	if err := p.Run(ctx, fmt.Sprintf(":%d", port)); err != nil {
		slog.Error("peer exited with error", "error", err)
		return 1
	}

	return 0
}
