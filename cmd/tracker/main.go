// Command tracker runs the central swarm bootstrap authority: initial
// block distribution, peer discovery, and ownership queries (spec.md
// §4.1, §6).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/lattice-fs/swarm/pkg/config"
	"github.com/lattice-fs/swarm/pkg/logging"
	"github.com/lattice-fs/swarm/pkg/trackerstore"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := logging.Setup(""); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		return 1
	}
	config.Init()

	port := 5000
	if v := os.Getenv("SWARM_TRACKER_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &port)
	}

	cfg := config.Load()
	tracker := trackerstore.New(cfg.TotalBlocks)
	server := trackerstore.NewServer(tracker)

	color.Green("tracker listening on :%d (total_blocks=%d)", port, cfg.TotalBlocks)

	if err := server.Start(fmt.Sprintf(":%d", port)); err != nil {
		slog.Error("tracker exited with error", "error", err)
		return 1
	}

	return 0
}
