// Package swarmpeer implements a single peer's swarm-participation
// engine: the block server, the rarest-first selector, the download
// loop, and the choke scheduler (spec.md §4.2–§4.5).
package swarmpeer

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/lattice-fs/swarm/pkg/config"
)

// unknownTotalBlocks is the sentinel TotalBlocks holds before the peer's
// register call resolves (spec.md's data model: "initially sentinel
// unknown").
const unknownTotalBlocks = -1

// Peer holds one peer instance's mutable state (spec.md §3). One mutex
// guards everything below except the HTTP clients, which are
// concurrency-safe on their own and are never called while the lock is
// held (spec.md §5).
type Peer struct {
	mu sync.Mutex

	peerID      string
	selfAddress string

	ownedBlocks map[int]struct{}
	totalBlocks int

	knownPeers map[string]string

	fixedUnchoked      map[string]struct{}
	optimisticUnchoked string // "" means absent

	seeding bool

	tracker    *TrackerClient
	httpClient *http.Client

	log *slog.Logger
}

// New constructs a Peer identified by peerID, reachable at selfAddress,
// talking to the tracker at trackerBaseURL.
func New(peerID, selfAddress, trackerBaseURL string) *Peer {
	cfg := config.Load()

	return &Peer{
		peerID:        peerID,
		selfAddress:   selfAddress,
		ownedBlocks:   make(map[int]struct{}),
		totalBlocks:   unknownTotalBlocks,
		knownPeers:    make(map[string]string),
		fixedUnchoked: make(map[string]struct{}),
		tracker:       NewTrackerClient(trackerBaseURL, cfg.RequestTimeout),
		httpClient:    newPeerHTTPClient(cfg.RequestTimeout),
		log:           slog.Default().With("component", "peer", "peer_id", peerID),
	}
}

// PeerID returns this peer's identity.
func (p *Peer) PeerID() string { return p.peerID }

// OwnedCount returns how many blocks the peer currently owns.
func (p *Peer) OwnedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.ownedBlocks)
}

// TotalBlocks returns the swarm's block count, or unknownTotalBlocks if
// registration hasn't resolved yet.
func (p *Peer) TotalBlocks() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.totalBlocks
}

// IsSeeding reports whether the peer has transitioned to seeding mode.
func (p *Peer) IsSeeding() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.seeding
}

// ownedSnapshot returns a defensive copy of the owned-block set.
func (p *Peer) ownedSnapshot() []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]int, 0, len(p.ownedBlocks))
	for b := range p.ownedBlocks {
		out = append(out, b)
	}
	return out
}

// knownPeersSnapshot returns a defensive copy of KnownPeers, safe to read
// without the lock.
func (p *Peer) knownPeersSnapshot() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]string, len(p.knownPeers))
	for id, addr := range p.knownPeers {
		out[id] = addr
	}
	return out
}

// missingBlocks computes [0, totalBlocks) \ ownedBlocks under the lock
// (spec.md §4.3 step 1). Returns nil if totalBlocks is unknown.
func (p *Peer) missingBlocks() []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.missingBlocksLocked()
}

func (p *Peer) missingBlocksLocked() []int {
	if p.totalBlocks <= 0 {
		return nil
	}

	missing := make([]int, 0, p.totalBlocks-len(p.ownedBlocks))
	for b := 0; b < p.totalBlocks; b++ {
		if _, ok := p.ownedBlocks[b]; !ok {
			missing = append(missing, b)
		}
	}
	return missing
}

// addKnownPeers merges newPeers into KnownPeers. Entries are never
// removed by the core (spec.md §3).
func (p *Peer) addKnownPeers(newPeers map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, addr := range newPeers {
		if id == p.peerID {
			continue
		}
		p.knownPeers[id] = addr
	}
}

// markRegistered installs the initial block set and total block count
// returned by the tracker's register call.
func (p *Peer) markRegistered(initialBlocks []int, totalBlocks int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, b := range initialBlocks {
		p.ownedBlocks[b] = struct{}{}
	}
	p.totalBlocks = totalBlocks
}

// addOwnedBlock records a newly acquired block and returns whether the
// peer now owns every block (spec.md §4.4: "on success add the block to
// OwnedBlocks").
func (p *Peer) addOwnedBlock(blockID int) (complete bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ownedBlocks[blockID] = struct{}{}

	return len(p.ownedBlocks) >= p.totalBlocks && p.totalBlocks > 0
}

// enterSeeding flips Seeding to true. One-shot: spec.md guarantees the
// download loop calls this exactly once.
func (p *Peer) enterSeeding() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seeding = true
	p.log.Info("all blocks acquired, entering seeding mode", "total_blocks", p.totalBlocks)
}
