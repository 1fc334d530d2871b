package swarmpeer

import (
	"context"
	"fmt"
	"net"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lattice-fs/swarm/pkg/swarmerr"
)

// Register performs the peer's initial tracker registration (spec.md
// §4.4's precondition: "Thereafter..."). Failure is fatal — the caller
// should exit (spec.md §7 RegistrationFailed).
func (p *Peer) Register(ctx context.Context) error {
	resp, err := p.tracker.Register(ctx, p.peerID, p.selfAddress)
	if err != nil {
		return fmt.Errorf("%w: %v", swarmerr.ErrRegistrationFailed, err)
	}

	p.markRegistered(resp.InitialBlocks, resp.TotalBlocks)

	owned := append([]int(nil), resp.InitialBlocks...)
	sort.Ints(owned)
	p.log.Info("registered", "owned_blocks", owned, "owned", len(owned), "total", resp.TotalBlocks)

	return nil
}

// Run starts the block server, the download loop, and the choke
// scheduler as three concurrent activities under one errgroup bound to
// ctx (spec.md §2, §5). It returns when ctx is canceled or any activity
// fails.
func (p *Peer) Run(ctx context.Context, listenAddr string) error {
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", listenAddr, err)
	}

	server := p.NewServer()
	server.Listener = listener

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		<-egCtx.Done()
		return server.Close()
	})

	eg.Go(func() error {
		if err := server.Start(""); err != nil && egCtx.Err() == nil {
			return err
		}
		return nil
	})

	eg.Go(func() error { return p.runDownloadLoop(egCtx) })
	eg.Go(func() error { return p.runChokeScheduler(egCtx) })

	if err := eg.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
