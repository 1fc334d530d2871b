package swarmpeer

import (
	"fmt"

	"github.com/lattice-fs/swarm/pkg/swarmerr"
)

// serveBlock implements the inbound block-request decision procedure of
// spec.md §4.2, executed atomically under the peer lock. The payload
// itself is an opaque stand-in — block content is not this system's
// concern (spec.md §1 Non-goals).
func (p *Peer) serveBlock(blockID int, requesterID string) (data string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.seeding {
		if _, owned := p.ownedBlocks[blockID]; owned {
			return blockPayload(blockID), nil
		}
		return "", swarmerr.ErrBlockMissing
	}

	_, fixed := p.fixedUnchoked[requesterID]
	allowed := fixed || (p.optimisticUnchoked != "" && requesterID == p.optimisticUnchoked)

	if !allowed {
		return "", swarmerr.ErrChoked
	}

	if _, owned := p.ownedBlocks[blockID]; !owned {
		return "", swarmerr.ErrBlockMissing
	}

	return blockPayload(blockID), nil
}

// blockPayload produces the opaque block representation returned to a
// requester. Its bytes carry no meaning to this system.
func blockPayload(blockID int) string {
	return fmt.Sprintf("block-%d-payload", blockID)
}
