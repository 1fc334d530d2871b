package swarmpeer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lattice-fs/swarm/pkg/swarmerr"
	"github.com/lattice-fs/swarm/pkg/wire"
)

// TrackerClient talks to the central tracker over the HTTP transport
// from spec.md §6. The transport wrapping itself is out of scope per
// spec.md §1; this is a concrete choice grounded in the teacher's
// pkg/tracker/http_tracker.go idiom (context-scoped requests, tuned
// transport, structured logging around each call).
type TrackerClient struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewTrackerClient constructs a client for the tracker at baseURL (e.g.
// "http://127.0.0.1:5000").
func NewTrackerClient(baseURL string, timeout time.Duration) *TrackerClient {
	transport := &http.Transport{
		MaxIdleConns:          50,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	return &TrackerClient{
		baseURL: baseURL,
		client:  &http.Client{Transport: transport, Timeout: timeout},
		log:     slog.Default().With("component", "tracker.client"),
	}
}

// Register performs the initial /register call (spec.md §4.1).
func (c *TrackerClient) Register(ctx context.Context, peerID, address string) (*wire.RegisterResponse, error) {
	var out wire.RegisterResponse
	err := c.doJSON(ctx, http.MethodPost, "/register",
		wire.RegisterRequest{PeerID: peerID, Address: address}, &out)
	return &out, err
}

// ListPeers performs the /get_peers discovery call (spec.md §4.1).
func (c *TrackerClient) ListPeers(ctx context.Context, peerID string) (wire.PeerList, error) {
	var out wire.PeerList
	err := c.doJSON(ctx, http.MethodGet, "/get_peers?peer_id="+peerID, nil, &out)
	return out, err
}

// GetBlockInfo performs the /get_block_info ownership query (spec.md
// §4.1), converting the wire's decimal-string keys back to ints.
func (c *TrackerClient) GetBlockInfo(ctx context.Context, blockIDs []int) (map[int][]string, error) {
	var raw wire.BlockInfoResponse
	if err := c.doJSON(ctx, http.MethodPost, "/get_block_info",
		wire.BlockInfoRequest{BlockIDs: blockIDs}, &raw); err != nil {
		return nil, err
	}

	owners := make(map[int][]string, len(raw))
	for key, holders := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		owners[id] = holders
	}

	return owners, nil
}

// UpdateBlocks notifies the tracker of the peer's full current block set
// (spec.md §4.1, §4.4).
func (c *TrackerClient) UpdateBlocks(ctx context.Context, peerID string, blocks []int) error {
	var out wire.StatusResponse
	err := c.doJSON(ctx, http.MethodPost, "/update_blocks",
		wire.UpdateBlocksRequest{PeerID: peerID, Blocks: blocks}, &out)
	if err != nil {
		return err
	}
	if out.Status != "updated" {
		return fmt.Errorf("tracker rejected update_blocks: %s", out.Message)
	}
	return nil
}

func (c *TrackerClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("request failed", "path", path, "error", err, "latency", time.Since(start))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var status wire.StatusResponse
		_ = json.NewDecoder(resp.Body).Decode(&status)

		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("tracker %s: %w", path, swarmerr.ErrPeerUnknown)
		}
		return fmt.Errorf("tracker %s: status %d: %s", path, resp.StatusCode, status.Message)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
