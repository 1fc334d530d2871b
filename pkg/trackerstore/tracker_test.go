package trackerstore

import (
	"fmt"
	"testing"

	"github.com/lattice-fs/swarm/pkg/config"
	"github.com/lattice-fs/swarm/pkg/swarmerr"
)

func init() {
	config.Init()
}

// TestRegisterIdempotent checks that re-registering a known peer-id
// returns its original assignment unchanged (spec.md §4.1).
func TestRegisterIdempotent(t *testing.T) {
	tr := New(10)

	first, total := tr.Register("peer-a", "http://127.0.0.1:6000")
	second, total2 := tr.Register("peer-a", "http://127.0.0.1:9999")

	if total != total2 || total != 10 {
		t.Fatalf("total blocks changed across idempotent registers: %d vs %d", total, total2)
	}
	if len(first) != len(second) {
		t.Fatalf("idempotent register returned different block counts: %d vs %d", len(first), len(second))
	}

	got := make(map[int]bool, len(second))
	for _, b := range second {
		got[b] = true
	}
	for _, b := range first {
		if !got[b] {
			t.Fatalf("idempotent register changed the assigned set: block %d missing on second call", b)
		}
	}
}

// TestDistributionCoverage checks invariant 1: after enough distinct
// registrations, UndistributedBlocks is empty.
func TestDistributionCoverage(t *testing.T) {
	const total = 23
	config.Update(func(c *config.Config) { c.InitialBlocksPerPeer = 10 })
	defer config.Init()

	tr := New(total)

	needed := (total + config.Load().InitialBlocksPerPeer - 1) / config.Load().InitialBlocksPerPeer
	for i := 0; i < needed; i++ {
		tr.Register(fmt.Sprintf("peer-%d", i), fmt.Sprintf("http://127.0.0.1:%d", 6000+i))
	}

	if got := tr.UndistributedCount(); got != 0 {
		t.Fatalf("undistributed count = %d, want 0 after %d registrations", got, needed)
	}
}

// TestUniqueInitialDistribution checks invariant 6: while blocks remain
// undistributed, no block is ever handed to two different peers as part
// of their initial assignment.
func TestUniqueInitialDistribution(t *testing.T) {
	const total = 30
	config.Update(func(c *config.Config) { c.InitialBlocksPerPeer = 4 })
	defer config.Init()

	tr := New(total)

	seenBy := make(map[int]string)
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("peer-%d", i)
		blocks, _ := tr.Register(id, "addr")

		for _, b := range blocks {
			if tr.UndistributedCount() < 0 {
				t.Fatalf("undistributed count went negative")
			}
			if owner, ok := seenBy[b]; ok && owner != id {
				t.Fatalf("block %d initially assigned to both %s and %s", b, owner, id)
			}
			seenBy[b] = id
		}
	}
}

// TestListPeersExcludesRequester checks that listPeers never returns the
// requester itself, and caps results at PeerSampleSize.
func TestListPeersExcludesRequester(t *testing.T) {
	config.Update(func(c *config.Config) { c.PeerSampleSize = 5 })
	defer config.Init()

	tr := New(50)
	for i := 0; i < 10; i++ {
		tr.Register(fmt.Sprintf("peer-%d", i), fmt.Sprintf("addr-%d", i))
	}

	peers := tr.ListPeers("peer-0")
	if len(peers) > 5 {
		t.Fatalf("listPeers returned %d entries, want <= 5", len(peers))
	}
	if _, ok := peers["peer-0"]; ok {
		t.Fatalf("listPeers included the requester")
	}
}

// TestListPeersUnknownRequester checks that a requester unknown to the
// tracker is still served (spec.md §4.1).
func TestListPeersUnknownRequester(t *testing.T) {
	tr := New(10)
	tr.Register("peer-a", "addr-a")
	tr.Register("peer-b", "addr-b")

	peers := tr.ListPeers("ghost")
	if len(peers) != 2 {
		t.Fatalf("listPeers for unknown requester returned %d peers, want 2", len(peers))
	}
}

// TestGetBlockInfoExcludesTrackerPseudoPeer checks that the "tracker"
// pseudo-peer never appears in ownership responses (spec.md §3, §4.1).
func TestGetBlockInfoExcludesTrackerPseudoPeer(t *testing.T) {
	tr := New(5)
	tr.Register("peer-a", "addr-a")

	owners := tr.GetBlockInfo([]int{0, 1, 2, 3, 4})
	for block, holders := range owners {
		for _, id := range holders {
			if id == "tracker" {
				t.Fatalf("block %d ownership includes the tracker pseudo-peer", block)
			}
		}
	}
}

// TestGetBlockInfoUnknownBlock checks that an out-of-range block id maps
// to an empty owner list rather than an error.
func TestGetBlockInfoUnknownBlock(t *testing.T) {
	tr := New(5)
	tr.Register("peer-a", "addr-a")

	owners := tr.GetBlockInfo([]int{999})
	if len(owners[999]) != 0 {
		t.Fatalf("unknown block 999 has owners %v, want none", owners[999])
	}
}

// TestUpdateBlocksMonotone checks invariant 2: successive updateBlocks
// calls only grow a peer's owned set.
func TestUpdateBlocksMonotone(t *testing.T) {
	tr := New(10)
	tr.Register("peer-a", "addr-a")

	if err := tr.UpdateBlocks("peer-a", []int{1, 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tr.UpdateBlocks("peer-a", []int{3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	owners := tr.GetBlockInfo([]int{1, 2, 3})
	for _, b := range []int{1, 2, 3} {
		found := false
		for _, id := range owners[b] {
			if id == "peer-a" {
				found = true
			}
		}
		if !found {
			t.Fatalf("block %d lost from peer-a's set after monotone updates", b)
		}
	}
}

// TestUpdateBlocksUnknownPeer checks that updateBlocks on an
// unregistered peer-id fails with ErrPeerUnknown.
func TestUpdateBlocksUnknownPeer(t *testing.T) {
	tr := New(10)

	err := tr.UpdateBlocks("ghost", []int{1})
	if err == nil {
		t.Fatal("expected error for unknown peer, got nil")
	}
	if !errorsIsPeerUnknown(err) {
		t.Fatalf("expected ErrPeerUnknown, got %v", err)
	}
}

func errorsIsPeerUnknown(err error) bool {
	for err != nil {
		if err == swarmerr.ErrPeerUnknown {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
