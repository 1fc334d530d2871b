package trackerstore

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lattice-fs/swarm/pkg/swarmerr"
	"github.com/lattice-fs/swarm/pkg/wire"
)

// Server wraps a Tracker with the HTTP transport from spec.md §6. The
// transport wrapping is out of scope per spec.md §1 ("any request/response
// substrate suffices"); this is one concrete choice, built on echo.
type Server struct {
	tracker *Tracker
	log     *slog.Logger
}

// NewServer builds an echo.Echo exposing the four tracker endpoints.
func NewServer(tracker *Tracker) *echo.Echo {
	s := &Server{tracker: tracker, log: slog.Default().With("component", "tracker.http")}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.requestIDMiddleware)

	e.POST("/register", s.handleRegister)
	e.GET("/get_peers", s.handleListPeers)
	e.POST("/get_block_info", s.handleGetBlockInfo)
	e.POST("/update_blocks", s.handleUpdateBlocks)

	return e
}

func (s *Server) requestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set("request_id", uuid.NewString())
		return next(c)
	}
}

func (s *Server) requestLog(c echo.Context) *slog.Logger {
	return s.log.With("request_id", c.Get("request_id"))
}

func (s *Server) handleRegister(c echo.Context) error {
	var req wire.RegisterRequest
	if err := c.Bind(&req); err != nil || req.PeerID == "" || req.Address == "" {
		return c.JSON(http.StatusBadRequest, wire.BadRequestResponse{Error: "peer_id and address are required"})
	}

	blocks, total := s.tracker.Register(req.PeerID, req.Address)

	return c.JSON(http.StatusOK, wire.RegisterResponse{
		Status:        "registered",
		InitialBlocks: blocks,
		TotalBlocks:   total,
	})
}

func (s *Server) handleListPeers(c echo.Context) error {
	peerID := c.QueryParam("peer_id")
	if peerID == "" {
		return c.JSON(http.StatusBadRequest, wire.BadRequestResponse{Error: "peer_id is required"})
	}

	peers := s.tracker.ListPeers(peerID)

	return c.JSON(http.StatusOK, wire.PeerList(peers))
}

func (s *Server) handleGetBlockInfo(c echo.Context) error {
	var req wire.BlockInfoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, wire.BadRequestResponse{Error: "block_ids is required"})
	}

	owners := s.tracker.GetBlockInfo(req.BlockIDs)

	resp := make(wire.BlockInfoResponse, len(owners))
	for id, holders := range owners {
		resp[strconv.Itoa(id)] = holders
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUpdateBlocks(c echo.Context) error {
	var req wire.UpdateBlocksRequest
	if err := c.Bind(&req); err != nil || req.PeerID == "" {
		return c.JSON(http.StatusBadRequest, wire.BadRequestResponse{Error: "peer_id and blocks are required"})
	}

	if err := s.tracker.UpdateBlocks(req.PeerID, req.Blocks); err != nil {
		if errors.Is(err, swarmerr.ErrPeerUnknown) {
			return c.JSON(http.StatusNotFound, wire.StatusResponse{Status: "error", Message: "peer not registered"})
		}
		s.requestLog(c).Error("update_blocks failed", "error", err)
		return c.JSON(http.StatusInternalServerError, wire.StatusResponse{Status: "error"})
	}

	return c.JSON(http.StatusOK, wire.StatusResponse{Status: "updated"})
}
