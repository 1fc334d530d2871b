// Package config holds the tunables that govern swarm behavior: the
// tracker's initial-distribution policy, discovery sample sizes, and the
// peer's choke scheduler cadence.
package config

import "time"

// Config collects every tunable named by the spec's resource bounds and
// cadences. Treat values returned by Load as read-only; mutate only
// through Update.
type Config struct {
	// TotalBlocks is the fixed number of blocks the shared file is split
	// into.
	TotalBlocks int

	// InitialBlocksPerPeer bounds how many blocks a newly registered peer
	// receives.
	InitialBlocksPerPeer int

	// PeerSampleSize bounds how many peers listPeers returns per call.
	PeerSampleSize int

	// FixedUnchokeCount bounds the tit-for-tat fixed-unchoke set size.
	FixedUnchokeCount int

	// RareThreshold is the owner-count ceiling under which a block counts
	// toward a peer's tit-for-tat score.
	RareThreshold int

	// ChokeOptimisticInterval is the +10s leg of the choke scheduler's
	// cadence.
	ChokeOptimisticInterval time.Duration

	// ChokeTitForTatInterval is the +20s leg of the choke scheduler's
	// cadence (measured from the optimistic tick).
	ChokeTitForTatInterval time.Duration

	// DownloadLoopIdleSleep is slept when the selector finds nothing to
	// fetch.
	DownloadLoopIdleSleep time.Duration

	// DownloadLoopMinBackoff and DownloadLoopMaxBackoff bound the random
	// per-iteration pacing sleep.
	DownloadLoopMinBackoff time.Duration
	DownloadLoopMaxBackoff time.Duration

	// DownloadLoopUnknownTotalSleep is slept while TotalBlocks is still
	// unresolved.
	DownloadLoopUnknownTotalSleep time.Duration

	// KnownPeersRefreshChance is the per-iteration probability of
	// refreshing KnownPeers from the tracker.
	KnownPeersRefreshChance float64

	// RequestTimeout bounds outbound tracker/peer HTTP calls.
	RequestTimeout time.Duration
}

// Default returns the reference configuration (TotalBlocks=50, per spec
// §5).
func Default() Config {
	return Config{
		TotalBlocks:                   50,
		InitialBlocksPerPeer:          10,
		PeerSampleSize:                5,
		FixedUnchokeCount:             4,
		RareThreshold:                 3,
		ChokeOptimisticInterval:       10 * time.Second,
		ChokeTitForTatInterval:        10 * time.Second,
		DownloadLoopIdleSleep:         3 * time.Second,
		DownloadLoopMinBackoff:        500 * time.Millisecond,
		DownloadLoopMaxBackoff:        2 * time.Second,
		DownloadLoopUnknownTotalSleep: 1 * time.Second,
		KnownPeersRefreshChance:       0.1,
		RequestTimeout:                5 * time.Second,
	}
}
