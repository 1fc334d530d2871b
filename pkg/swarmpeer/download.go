package swarmpeer

import (
	"context"
	"errors"
	"fmt"

	"github.com/lattice-fs/swarm/pkg/config"
	"github.com/lattice-fs/swarm/pkg/swarmerr"
)

// runDownloadLoop implements spec.md §4.4. It runs until the peer owns
// every block, then transitions to seeding and returns so the caller's
// errgroup can let the other activities keep running.
func (p *Peer) runDownloadLoop(ctx context.Context) error {
	cfg := config.Load()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		total := p.totalBlocksOrUnknown()
		if total > 0 && p.OwnedCount() >= total {
			break
		}

		if total == unknownTotalBlocks {
			if !sleepCtx(ctx, cfg.DownloadLoopUnknownTotalSleep) {
				return ctx.Err()
			}
			continue
		}

		if jitterRand.Float64() < cfg.KnownPeersRefreshChance {
			p.refreshKnownPeers(ctx)
		}

		blockID, source, ok := p.selectRarestFirst(ctx)
		if ok {
			if err := p.fetchBlock(ctx, blockID, source); err != nil {
				return err
			}
		} else {
			if !sleepCtx(ctx, cfg.DownloadLoopIdleSleep) {
				return ctx.Err()
			}
		}

		if !sleepCtx(ctx, jitterDuration(cfg.DownloadLoopMinBackoff, cfg.DownloadLoopMaxBackoff)) {
			return ctx.Err()
		}
	}

	p.enterSeeding()

	return nil
}

// totalBlocksOrUnknown is a lock-guarded read of totalBlocks without
// building the missing-block list that missingBlocks computes.
func (p *Peer) totalBlocksOrUnknown() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.totalBlocks
}

// refreshKnownPeers calls listPeers and merges the result into
// KnownPeers (spec.md §4.4 step 2).
func (p *Peer) refreshKnownPeers(ctx context.Context) {
	peers, err := p.tracker.ListPeers(ctx, p.peerID)
	if err != nil {
		p.log.Warn("get_peers failed", "error", err)
		return
	}
	p.addKnownPeers(peers)
}

// fetchBlock requests a single block from source. On success the block
// is recorded and the tracker is told about the peer's full current set.
// Choked/missing/transport errors are logged and dropped — no retry
// bookkeeping, per spec.md §4.4 step 4 and §7. A 404 from update_blocks
// means the tracker no longer recognizes this peer at all (spec.md §7
// PeerUnknown); that is fatal and is returned to the caller instead of
// being swallowed alongside ordinary transport failures.
func (p *Peer) fetchBlock(ctx context.Context, blockID int, source string) error {
	known := p.knownPeersSnapshot()
	addr, ok := known[source]
	if !ok {
		return nil
	}

	resp, err := requestBlock(ctx, p.httpClient, addr, p.peerID, blockID)
	if err != nil {
		switch {
		case errors.Is(err, swarmerr.ErrChoked):
			p.log.Debug("request choked", "source", source, "block", blockID)
		case errors.Is(err, swarmerr.ErrBlockMissing):
			p.log.Debug("source no longer has block", "source", source, "block", blockID)
		default:
			p.log.Warn("transport error requesting block", "source", source, "block", blockID, "error", err)
		}
		return nil
	}

	p.addOwnedBlock(resp.BlockID)
	p.log.Info("block acquired", "block", resp.BlockID, "source", source, "owned", p.OwnedCount(), "total", p.totalBlocksOrUnknown())

	if err := p.tracker.UpdateBlocks(ctx, p.peerID, p.ownedSnapshot()); err != nil {
		if errors.Is(err, swarmerr.ErrPeerUnknown) {
			return fmt.Errorf("update_blocks: %w", err)
		}
		p.log.Warn("update_blocks failed", "error", err)
	}

	return nil
}
