package swarmpeer

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/lattice-fs/swarm/pkg/config"
	"github.com/lattice-fs/swarm/pkg/swarmerr"
	"github.com/lattice-fs/swarm/pkg/trackerstore"
)

// TestFetchBlockSuccess checks spec.md §4.4 step 4: a successful fetch is
// recorded locally and reported to the tracker via update_blocks.
func TestFetchBlockSuccess(t *testing.T) {
	// peers register with no blocks, so the tracker only learns that
	// "downloader" owns block 0 through update_blocks.
	config.Update(func(c *config.Config) { c.InitialBlocksPerPeer = 0 })
	defer config.Init()

	tr := trackerstore.New(2)
	tr.Register("downloader", "addr-downloader")
	tr.Register("source-peer", "addr-source")

	trackerSrv := httptest.NewServer(trackerstore.NewServer(tr))
	defer trackerSrv.Close()

	source := New("source-peer", "http://unused", trackerSrv.URL)
	source.markRegistered([]int{0, 1}, 2)
	source.mu.Lock()
	source.seeding = true
	source.mu.Unlock()

	sourceSrv := httptest.NewServer(source.NewServer())
	defer sourceSrv.Close()

	downloader := New("downloader", "http://unused", trackerSrv.URL)
	downloader.markRegistered(nil, 2)
	downloader.addKnownPeers(map[string]string{"source-peer": sourceSrv.URL})

	if err := downloader.fetchBlock(t.Context(), 0, "source-peer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if downloader.OwnedCount() != 1 {
		t.Fatalf("owned count = %d, want 1 after a successful fetch", downloader.OwnedCount())
	}

	owners := tr.GetBlockInfo([]int{0})
	found := false
	for _, id := range owners[0] {
		if id == "downloader" {
			found = true
		}
	}
	if !found {
		t.Fatal("tracker was not updated with the newly fetched block")
	}
}

// TestFetchBlockUnknownSourceIsNoop checks that fetchBlock does nothing
// when the source is not in KnownPeers (defensive against a stale
// selectRarestFirst result).
func TestFetchBlockUnknownSourceIsNoop(t *testing.T) {
	downloader := New("downloader", "http://unused", "http://unused")
	downloader.markRegistered(nil, 2)

	downloader.fetchBlock(t.Context(), 0, "ghost")

	if downloader.OwnedCount() != 0 {
		t.Fatalf("owned count = %d, want 0: source was never known", downloader.OwnedCount())
	}
}

// TestFetchBlockChokedSourceIsDropped checks that a choked response does
// not mark the block owned.
func TestFetchBlockChokedSourceIsDropped(t *testing.T) {
	source := New("source-peer", "http://unused", "http://unused")
	source.markRegistered([]int{0}, 2)
	// no fixed/optimistic unchoke granted to "downloader": every request is choked.

	sourceSrv := httptest.NewServer(source.NewServer())
	defer sourceSrv.Close()

	downloader := New("downloader", "http://unused", "http://unused")
	downloader.markRegistered(nil, 2)
	downloader.addKnownPeers(map[string]string{"source-peer": sourceSrv.URL})

	if err := downloader.fetchBlock(t.Context(), 0, "source-peer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if downloader.OwnedCount() != 0 {
		t.Fatalf("owned count = %d, want 0: request should have been choked", downloader.OwnedCount())
	}
}

// TestFetchBlockPeerUnknownIsFatal checks spec.md §7: a 404 from
// update_blocks means the tracker has forgotten this peer entirely, and
// that must surface as a fatal error rather than being logged and
// dropped like an ordinary transport failure.
func TestFetchBlockPeerUnknownIsFatal(t *testing.T) {
	tr := trackerstore.New(2)
	tr.Register("source-peer", "addr-source")
	// deliberately never register "downloader" with this tracker.

	trackerSrv := httptest.NewServer(trackerstore.NewServer(tr))
	defer trackerSrv.Close()

	source := New("source-peer", "http://unused", trackerSrv.URL)
	source.markRegistered([]int{0, 1}, 2)
	source.mu.Lock()
	source.seeding = true
	source.mu.Unlock()

	sourceSrv := httptest.NewServer(source.NewServer())
	defer sourceSrv.Close()

	downloader := New("downloader", "http://unused", trackerSrv.URL)
	downloader.markRegistered(nil, 2)
	downloader.addKnownPeers(map[string]string{"source-peer": sourceSrv.URL})

	err := downloader.fetchBlock(t.Context(), 0, "source-peer")
	if err == nil {
		t.Fatal("expected a fatal error when the tracker doesn't recognize this peer")
	}
	if !errors.Is(err, swarmerr.ErrPeerUnknown) {
		t.Fatalf("got %v, want an error wrapping ErrPeerUnknown", err)
	}

	if downloader.OwnedCount() != 1 {
		t.Fatalf("owned count = %d, want 1: the block fetch itself still succeeded before update_blocks failed", downloader.OwnedCount())
	}
}
