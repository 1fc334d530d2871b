package swarmpeer

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lattice-fs/swarm/pkg/swarmerr"
	"github.com/lattice-fs/swarm/pkg/wire"
)

// NewServer builds an echo.Echo exposing the peer's single inbound
// operation (spec.md §6: GET /request_block/<block_id>?peer_id=...).
func (p *Peer) NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("request_id", uuid.NewString())
			return next(c)
		}
	})

	e.GET("/request_block/:block_id", p.handleRequestBlock)

	return e
}

func (p *Peer) handleRequestBlock(c echo.Context) error {
	blockID, err := strconv.Atoi(c.Param("block_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, wire.ErrorResponse{Error: "invalid block id"})
	}

	requesterID := c.QueryParam("peer_id")

	data, err := p.serveBlock(blockID, requesterID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, wire.BlockResponse{BlockID: blockID, Data: data})
	case errors.Is(err, swarmerr.ErrChoked):
		return c.JSON(http.StatusForbidden, wire.ErrorResponse{Error: "choked"})
	case errors.Is(err, swarmerr.ErrBlockMissing):
		return c.JSON(http.StatusNotFound, wire.ErrorResponse{Error: "not found"})
	default:
		return c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Error: "internal error"})
	}
}
