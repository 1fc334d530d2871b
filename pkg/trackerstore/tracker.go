// Package trackerstore implements the tracker's initial-distribution
// policy and peer-discovery/ownership bookkeeping (spec.md §4.1).
package trackerstore

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/samber/lo"

	"github.com/lattice-fs/swarm/pkg/config"
	"github.com/lattice-fs/swarm/pkg/swarmerr"
)

// selfPeerID is the pseudo-peer the tracker owns all blocks under. It is
// advisory only: present in peerBlocks, excluded from every ownership
// response.
const selfPeerID = "tracker"

// Tracker is the process-wide authority over swarm membership and
// per-peer block ownership. One mutex guards all three maps (spec.md §5).
type Tracker struct {
	mu sync.Mutex

	totalBlocks int

	// activePeers maps peer-id to its reachable address.
	activePeers map[string]string

	// peerBlocks maps peer-id to the set of block-ids it owns.
	peerBlocks map[string]map[int]struct{}

	// undistributed holds block-ids never yet handed to any real peer.
	undistributed map[int]struct{}

	rng *rand.Rand
	log *slog.Logger
}

// New constructs a Tracker for a swarm of totalBlocks blocks. The
// pseudo-peer "tracker" is seeded with the full block universe but
// excluded from every ownership response.
func New(totalBlocks int) *Tracker {
	undistributed := make(map[int]struct{}, totalBlocks)
	selfBlocks := make(map[int]struct{}, totalBlocks)
	for b := 0; b < totalBlocks; b++ {
		undistributed[b] = struct{}{}
		selfBlocks[b] = struct{}{}
	}

	t := &Tracker{
		totalBlocks:   totalBlocks,
		activePeers:   make(map[string]string),
		peerBlocks:    map[string]map[int]struct{}{selfPeerID: selfBlocks},
		undistributed: undistributed,
		rng:           rand.New(rand.NewSource(rand.Int63())),
		log:           slog.Default().With("component", "tracker"),
	}

	t.log.Info("tracker started", "total_blocks", totalBlocks)

	return t
}

// TotalBlocks returns the fixed block count for the swarm.
func (t *Tracker) TotalBlocks() int {
	return t.totalBlocks
}

// Register is idempotent on peerID: if the id already exists, nothing is
// recorded and the peer's current owned set is returned — its initial
// assignment plus any blocks UpdateBlocks has added since; the initial
// assignment on its own is not kept. Otherwise it draws
// an initial block set biased toward never-distributed blocks and
// records the peer's address (spec.md §4.1).
func (t *Tracker) Register(peerID, address string) (initialBlocks []int, totalBlocks int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.peerBlocks[peerID]; ok {
		return lo.Keys(existing), t.totalBlocks
	}

	t.activePeers[peerID] = address

	k := min(config.Load().InitialBlocksPerPeer, t.totalBlocks)

	var assigned []int
	if len(t.undistributed) > 0 {
		candidates := lo.Keys(t.undistributed)
		n := min(k, len(candidates))
		assigned = lo.Samples(candidates, n)
		for _, b := range assigned {
			delete(t.undistributed, b)
		}
	} else {
		universe := make([]int, t.totalBlocks)
		for b := range universe {
			universe[b] = b
		}
		assigned = lo.Samples(universe, k)
	}

	set := make(map[int]struct{}, len(assigned))
	for _, b := range assigned {
		set[b] = struct{}{}
	}
	t.peerBlocks[peerID] = set

	t.log.Info("peer registered",
		"peer_id", peerID,
		"initial_blocks", len(assigned),
		"undistributed_remaining", len(t.undistributed),
	)

	return assigned, t.totalBlocks
}

// ListPeers returns up to config.PeerSampleSize (peer-id, address) pairs
// drawn uniformly without replacement from activePeers, excluding
// requesterID. A requester unknown to the tracker is still served
// (spec.md §4.1).
func (t *Tracker) ListPeers(requesterID string) map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	candidates := lo.Filter(lo.Keys(t.activePeers), func(id string, _ int) bool {
		return id != requesterID
	})

	n := min(config.Load().PeerSampleSize, len(candidates))
	chosen := lo.Samples(candidates, n)

	out := make(map[string]string, len(chosen))
	for _, id := range chosen {
		out[id] = t.activePeers[id]
	}

	return out
}

// GetBlockInfo returns, for each requested block-id, the list of
// peer-ids that currently own it. The pseudo-peer "tracker" is excluded.
// Unknown block-ids map to an empty list (spec.md §4.1).
func (t *Tracker) GetBlockInfo(blockIDs []int) map[int][]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	owners := make(map[int][]string, len(blockIDs))
	for _, b := range blockIDs {
		var holders []string
		for peerID, blocks := range t.peerBlocks {
			if peerID == selfPeerID {
				continue
			}
			if _, ok := blocks[b]; ok {
				holders = append(holders, peerID)
			}
		}
		owners[b] = holders
	}

	return owners
}

// UpdateBlocks unions blocks into peerID's owned set. It is monotone: a
// peer can never drop blocks through this API. Returns swarmerr.ErrPeerUnknown
// if peerID was never registered (spec.md §4.1).
func (t *Tracker) UpdateBlocks(peerID string, blocks []int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.peerBlocks[peerID]
	if !ok {
		return fmt.Errorf("%s: %w", peerID, swarmerr.ErrPeerUnknown)
	}

	for _, b := range blocks {
		set[b] = struct{}{}
	}

	t.log.Debug("peer updated blocks", "peer_id", peerID, "owned", len(set))

	return nil
}

// UndistributedCount reports how many blocks have never been assigned to
// any peer. Exposed for tests of the distribution-coverage invariant.
func (t *Tracker) UndistributedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.undistributed)
}
