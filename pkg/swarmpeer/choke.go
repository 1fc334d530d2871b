package swarmpeer

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/lattice-fs/swarm/pkg/config"
)

// runChokeScheduler implements spec.md §4.5: a 20-second cycle split
// into an optimistic-unchoke tick at +10s and a tit-for-tat
// recomputation at +20s. It terminates once the peer enters seeding —
// seeders bypass choke policy entirely (spec.md §4.2 step 1).
func (p *Peer) runChokeScheduler(ctx context.Context) error {
	cfg := config.Load()

	for {
		if p.IsSeeding() {
			return nil
		}

		if !sleepCtx(ctx, cfg.ChokeOptimisticInterval) {
			return ctx.Err()
		}
		if p.IsSeeding() {
			return nil
		}
		p.tickOptimisticUnchoke()

		if !sleepCtx(ctx, cfg.ChokeTitForTatInterval) {
			return ctx.Err()
		}
		if p.IsSeeding() {
			return nil
		}
		p.tickTitForTat(ctx)
	}
}

// tickOptimisticUnchoke picks a uniformly random peer from KnownPeers \
// FixedUnchoked as the new optimistic slot (spec.md §4.5 "+10s").
func (p *Peer) tickOptimisticUnchoke() {
	p.mu.Lock()
	candidates := make([]string, 0, len(p.knownPeers))
	for id := range p.knownPeers {
		if _, fixed := p.fixedUnchoked[id]; !fixed {
			candidates = append(candidates, id)
		}
	}
	p.mu.Unlock()

	if len(candidates) == 0 {
		return
	}

	chosen := lo.Sample(candidates)

	p.mu.Lock()
	p.optimisticUnchoked = chosen
	p.mu.Unlock()

	p.log.Info("optimistic unchoke", "peer", chosen)
}

// tickTitForTat recomputes the fixed-unchoke set (spec.md §4.5 "+20s").
// Missing and KnownPeers are snapshotted under the lock, the tracker is
// queried without it, and only the final write re-acquires the lock
// (spec.md's Design Notes: never hold the peer lock during a network
// call).
func (p *Peer) tickTitForTat(ctx context.Context) {
	missing := p.missingBlocks()
	if len(missing) == 0 {
		return
	}

	known := p.knownPeersSnapshot()

	owners, err := p.tracker.GetBlockInfo(ctx, missing)
	if err != nil {
		p.log.Warn("get_block_info failed during tit-for-tat", "error", err)
		return
	}

	cfg := config.Load()

	type scored struct {
		peerID string
		score  int
	}

	scores := make([]scored, 0, len(known))
	for peerID := range known {
		score := 0
		for _, blockID := range missing {
			holders := owners[blockID]
			if len(holders) >= cfg.RareThreshold {
				continue
			}
			if lo.Contains(holders, peerID) {
				score++
			}
		}
		scores = append(scores, scored{peerID, score})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	top := min(cfg.FixedUnchokeCount, len(scores))
	next := make(map[string]struct{}, top)
	for _, s := range scores[:top] {
		next[s.peerID] = struct{}{}
	}

	p.mu.Lock()
	p.fixedUnchoked = next
	p.mu.Unlock()

	p.log.Info("tit-for-tat recomputed", "fixed_unchoked", lo.Keys(next))
}
