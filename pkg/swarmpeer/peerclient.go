package swarmpeer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lattice-fs/swarm/pkg/swarmerr"
	"github.com/lattice-fs/swarm/pkg/wire"
)

// requestBlock issues GET /request_block/<blockID>?peer_id=... against
// sourceAddress (spec.md §6). A 403 maps to swarmerr.ErrChoked, a 404 to
// swarmerr.ErrBlockMissing; any other failure is returned as-is (the
// download loop's TransportError path).
func requestBlock(ctx context.Context, client *http.Client, sourceAddress, selfPeerID string, blockID int) (wire.BlockResponse, error) {
	url := fmt.Sprintf("%s/request_block/%d?peer_id=%s", sourceAddress, blockID, selfPeerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return wire.BlockResponse{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return wire.BlockResponse{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out wire.BlockResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return wire.BlockResponse{}, err
		}
		return out, nil
	case http.StatusForbidden:
		return wire.BlockResponse{}, swarmerr.ErrChoked
	case http.StatusNotFound:
		return wire.BlockResponse{}, swarmerr.ErrBlockMissing
	default:
		return wire.BlockResponse{}, fmt.Errorf("request_block: unexpected status %d", resp.StatusCode)
	}
}

func newPeerHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
