package swarmpeer

import (
	"net/http/httptest"
	"testing"

	"github.com/lattice-fs/swarm/pkg/config"
	"github.com/lattice-fs/swarm/pkg/trackerstore"
)

// TestTickOptimisticUnchokeExcludesFixed checks spec.md §4.5: the
// optimistic slot is drawn only from KnownPeers \ FixedUnchoked.
func TestTickOptimisticUnchokeExcludesFixed(t *testing.T) {
	p := newTestPeer(t, "http://unused", nil, 10)
	p.addKnownPeers(map[string]string{"only-fixed": "addr"})
	p.mu.Lock()
	p.fixedUnchoked["only-fixed"] = struct{}{}
	p.mu.Unlock()

	p.tickOptimisticUnchoke()

	p.mu.Lock()
	got := p.optimisticUnchoked
	p.mu.Unlock()

	if got != "" {
		t.Fatalf("optimistic slot = %q, want empty: the only known peer is already fixed-unchoked", got)
	}
}

// TestTickOptimisticUnchokePicksFromRemainder checks that a known peer
// outside FixedUnchoked becomes the optimistic pick when it is the only
// candidate.
func TestTickOptimisticUnchokePicksFromRemainder(t *testing.T) {
	p := newTestPeer(t, "http://unused", nil, 10)
	p.addKnownPeers(map[string]string{"fixed-one": "a", "free-one": "b"})
	p.mu.Lock()
	p.fixedUnchoked["fixed-one"] = struct{}{}
	p.mu.Unlock()

	p.tickOptimisticUnchoke()

	p.mu.Lock()
	got := p.optimisticUnchoked
	p.mu.Unlock()

	if got != "free-one" {
		t.Fatalf("optimistic slot = %q, want free-one (the sole non-fixed known peer)", got)
	}
}

// TestTickTitForTatPrefersRareHolders checks spec.md §4.5: a peer that
// holds more of our missing, rare blocks scores higher and is preferred
// for the fixed-unchoke set.
func TestTickTitForTatPrefersRareHolders(t *testing.T) {
	config.Update(func(c *config.Config) {
		c.FixedUnchokeCount = 1
		c.RareThreshold = 3
		// peers register with no blocks, so ownership comes only from
		// the UpdateBlocks calls below.
		c.InitialBlocksPerPeer = 0
	})
	defer config.Init()

	tr := trackerstore.New(4)
	tr.Register("generous", "addr-generous")
	tr.Register("stingy", "addr-stingy")

	// blocks 0,1 held only by "generous" (rare: 1 holder < threshold 3).
	if err := tr.UpdateBlocks("generous", []int{0, 1}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	// block 2 held only by "stingy".
	if err := tr.UpdateBlocks("stingy", []int{2}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	srv := trackerstore.NewServer(tr)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	p := newTestPeer(t, ts.URL, nil, 4)
	p.addKnownPeers(map[string]string{"generous": "addr-generous", "stingy": "addr-stingy"})

	p.tickTitForTat(t.Context())

	p.mu.Lock()
	_, gotGenerous := p.fixedUnchoked["generous"]
	_, gotStingy := p.fixedUnchoked["stingy"]
	count := len(p.fixedUnchoked)
	p.mu.Unlock()

	if count != 1 {
		t.Fatalf("fixed-unchoked size = %d, want 1 (FixedUnchokeCount)", count)
	}
	if !gotGenerous || gotStingy {
		t.Fatalf("fixed-unchoked = {generous:%v stingy:%v}, want only generous (holds 2 rare blocks vs 1)", gotGenerous, gotStingy)
	}
}
