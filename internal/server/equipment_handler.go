package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coldchain/internal/authorization"
	equipmentdomain "github.com/smallbiznis/coldchain/internal/equipment/domain"
)

func (s *Server) registerEquipmentRoutes(g *gin.RouterGroup) {
	equipment := g.Group("/equipment")
	equipment.POST("/batch",
		s.requireAction(authorization.ObjectEquipment, authorization.ActionEquipmentRegister),
		s.receiveEquipmentBatch)
	equipment.GET("",
		s.requireAction(authorization.ObjectEquipment, authorization.ActionEquipmentView),
		s.listEquipment)
	equipment.GET("/:id",
		s.requireAction(authorization.ObjectEquipment, authorization.ActionEquipmentView),
		s.getEquipment)
	equipment.POST("/:id/allocate",
		s.requireAction(authorization.ObjectEquipment, authorization.ActionEquipmentAllocate),
		s.allocateEquipment)
	equipment.POST("/:id/deallocate",
		s.requireAction(authorization.ObjectEquipment, authorization.ActionEquipmentAllocate),
		s.deallocateEquipment)
	equipment.POST("/:id/scrap",
		s.requireAction(authorization.ObjectEquipment, authorization.ActionEquipmentScrap),
		s.scrapEquipment)
	equipment.GET("/:id/ledger",
		s.requireAction(authorization.ObjectAllocationEntry, authorization.ActionAllocationEntryView),
		s.equipmentLedger)
	equipment.GET("/:id/service-history",
		s.requireAction(authorization.ObjectMaintenance, authorization.ActionMaintenanceView),
		s.equipmentServiceHistory)
}

type receiveBatchBody struct {
	SupplierID   string `json:"supplier_id" binding:"required"`
	Model        string `json:"model" binding:"required"`
	SerialPrefix string `json:"serial_prefix" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required"`
}

func (s *Server) receiveEquipmentBatch(c *gin.Context) {
	var body receiveBatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	resp, err := s.equipment.ReceiveBatch(c.Request.Context(), equipmentdomain.ReceiveBatchRequest{
		SupplierID:   body.SupplierID,
		Model:        body.Model,
		SerialPrefix: body.SerialPrefix,
		Quantity:     body.Quantity,
		Actor:        actorFrom(c),
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

type allocateBody struct {
	CustomerID string `json:"customer_id" binding:"required"`
	Notes      string `json:"notes"`
}

func (s *Server) allocateEquipment(c *gin.Context) {
	var body allocateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	equipment, err := s.equipment.Allocate(c.Request.Context(), equipmentdomain.AllocateRequest{
		EquipmentID: c.Param("id"),
		CustomerID:  body.CustomerID,
		Actor:       actorFrom(c),
		Notes:       body.Notes,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, equipment)
}

type notesBody struct {
	Notes string `json:"notes"`
}

func (s *Server) deallocateEquipment(c *gin.Context) {
	var body notesBody
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		s.abortBadRequest(c, err)
		return
	}

	equipment, err := s.equipment.Deallocate(c.Request.Context(), equipmentdomain.DeallocateRequest{
		EquipmentID: c.Param("id"),
		Actor:       actorFrom(c),
		Notes:       body.Notes,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, equipment)
}

type scrapBody struct {
	Reason string `json:"reason" binding:"required"`
}

func (s *Server) scrapEquipment(c *gin.Context) {
	var body scrapBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	equipment, err := s.equipment.Scrap(c.Request.Context(), equipmentdomain.ScrapRequest{
		EquipmentID: c.Param("id"),
		Actor:       actorFrom(c),
		Reason:      body.Reason,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, equipment)
}

func (s *Server) getEquipment(c *gin.Context) {
	equipment, err := s.equipment.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, equipment)
}

func (s *Server) listEquipment(c *gin.Context) {
	var req equipmentdomain.ListEquipmentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	resp, err := s.equipment.List(c.Request.Context(), req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) equipmentLedger(c *gin.Context) {
	entries, err := s.ledger.ListByEquipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) equipmentServiceHistory(c *gin.Context) {
	entries, err := s.maintenance.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
