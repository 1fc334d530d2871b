package swarmpeer

import (
	"context"

	"github.com/samber/lo"
)

// selectRarestFirst implements spec.md §4.3: query the tracker for
// ownership of every missing block, discard unreachable ones, pick the
// block with the fewest owners (ties broken arbitrarily — the spec
// explicitly does not require deterministic tie-breaking), then a
// uniformly random known owner as the source.
//
// Returns ok=false when there is nothing missing, nothing reachable, or
// no known peer holds the rarest block.
func (p *Peer) selectRarestFirst(ctx context.Context) (blockID int, sourcePeer string, ok bool) {
	missing := p.missingBlocks()
	if len(missing) == 0 {
		return 0, "", false
	}

	owners, err := p.tracker.GetBlockInfo(ctx, missing)
	if err != nil {
		p.log.Warn("get_block_info failed", "error", err)
		return 0, "", false
	}

	reachable := lo.PickBy(owners, func(_ int, holders []string) bool {
		return len(holders) > 0
	})
	if len(reachable) == 0 {
		return 0, "", false
	}

	rarest := lo.MinBy(lo.Keys(reachable), func(a, b int) bool {
		return len(reachable[a]) < len(reachable[b])
	})

	known := p.knownPeersSnapshot()
	candidates := lo.Filter(reachable[rarest], func(id string, _ int) bool {
		_, isKnown := known[id]
		return isKnown
	})
	if len(candidates) == 0 {
		return 0, "", false
	}

	return rarest, lo.Sample(candidates), true
}
