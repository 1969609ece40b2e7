package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coldchain/internal/authorization"
	inventorydomain "github.com/smallbiznis/coldchain/internal/inventory/domain"
)

func (s *Server) registerInventoryRoutes(g *gin.RouterGroup) {
	requests := g.Group("/purchase-requests")
	requests.GET("",
		s.requireAction(authorization.ObjectRestockRequest, authorization.ActionRestockRequestView),
		s.listPurchaseRequests)
	requests.GET("/:id",
		s.requireAction(authorization.ObjectRestockRequest, authorization.ActionRestockRequestView),
		s.getPurchaseRequest)
	requests.POST("/:id/approve",
		s.requireAction(authorization.ObjectRestockRequest, authorization.ActionRestockRequestClose),
		s.approvePurchaseRequest)
	requests.POST("/:id/reject",
		s.requireAction(authorization.ObjectRestockRequest, authorization.ActionRestockRequestClose),
		s.rejectPurchaseRequest)

	inventory := g.Group("/inventory")
	inventory.GET("/available-count",
		s.requireAction(authorization.ObjectEquipment, authorization.ActionEquipmentView),
		s.availableCount)
	inventory.POST("/restock-check",
		s.requireAction(authorization.ObjectRestockRequest, authorization.ActionRestockRequestCreate),
		s.triggerRestockCheck)
}

func (s *Server) listPurchaseRequests(c *gin.Context) {
	var req inventorydomain.ListRequestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	resp, err := s.inventory.List(c.Request.Context(), req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getPurchaseRequest(c *gin.Context) {
	request, err := s.inventory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (s *Server) approvePurchaseRequest(c *gin.Context) {
	request, err := s.inventory.Approve(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (s *Server) rejectPurchaseRequest(c *gin.Context) {
	request, err := s.inventory.Reject(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (s *Server) availableCount(c *gin.Context) {
	count, err := s.inventory.AvailableCount(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available_count": count})
}

func (s *Server) triggerRestockCheck(c *gin.Context) {
	created, count, err := s.inventory.CheckAndRequestRestock(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created, "available_count": count})
}
