package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coldchain/internal/authorization"
	ledgerdomain "github.com/smallbiznis/coldchain/internal/ledger/domain"
)

func (s *Server) registerLedgerRoutes(g *gin.RouterGroup) {
	entries := g.Group("/allocation-entries")
	entries.GET("",
		s.requireAction(authorization.ObjectAllocationEntry, authorization.ActionAllocationEntryView),
		s.listAllocationEntries)
}

func (s *Server) listAllocationEntries(c *gin.Context) {
	var req ledgerdomain.ListEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	resp, err := s.ledger.List(c.Request.Context(), req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
