// Package swarmerr collects the semantic error taxonomy from spec.md §7,
// shared between the tracker and peer roles.
package swarmerr

import "errors"

var (
	// ErrPeerUnknown is returned by updateBlocks when the peer-id was
	// never registered. Fatal for the calling peer.
	ErrPeerUnknown = errors.New("peer: unknown peer id")

	// ErrChoked is returned by serveBlock when the requester holds
	// neither a fixed nor an optimistic unchoke slot.
	ErrChoked = errors.New("peer: requester is choked")

	// ErrBlockMissing is returned by serveBlock when the requested block
	// is not owned by the server.
	ErrBlockMissing = errors.New("peer: block not found")

	// ErrRegistrationFailed signals the peer's initial register call
	// failed or returned a non-2xx status. Fatal for that peer.
	ErrRegistrationFailed = errors.New("peer: registration failed")

	// ErrBadRequest signals a tracker endpoint received a malformed
	// request (missing required field).
	ErrBadRequest = errors.New("tracker: bad request")
)
