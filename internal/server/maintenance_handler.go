package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coldchain/internal/authorization"
	maintenancedomain "github.com/smallbiznis/coldchain/internal/maintenance/domain"
)

func (s *Server) registerMaintenanceRoutes(g *gin.RouterGroup) {
	records := g.Group("/maintenance")
	records.POST("",
		s.requireAction(authorization.ObjectMaintenance, authorization.ActionMaintenanceSchedule),
		s.scheduleMaintenance)
	records.GET("",
		s.requireAction(authorization.ObjectMaintenance, authorization.ActionMaintenanceView),
		s.listMaintenance)
	records.GET("/overdue",
		s.requireAction(authorization.ObjectMaintenance, authorization.ActionMaintenanceView),
		s.overdueMaintenance)
	records.GET("/:id",
		s.requireAction(authorization.ObjectMaintenance, authorization.ActionMaintenanceView),
		s.getMaintenance)
	records.POST("/:id/start",
		s.requireAction(authorization.ObjectMaintenance, authorization.ActionMaintenanceStart),
		s.startMaintenance)
	records.POST("/:id/complete",
		s.requireAction(authorization.ObjectMaintenance, authorization.ActionMaintenanceComplete),
		s.completeMaintenance)
	records.POST("/:id/cancel",
		s.requireAction(authorization.ObjectMaintenance, authorization.ActionMaintenanceCancel),
		s.cancelMaintenance)
}

type scheduleMaintenanceBody struct {
	EquipmentID     string    `json:"equipment_id" binding:"required"`
	TechnicianID    string    `json:"technician_id" binding:"required"`
	ScheduledDate   time.Time `json:"scheduled_date" binding:"required"`
	MaintenanceType string    `json:"maintenance_type"`
	Notes           string    `json:"notes"`
	Checklist       string    `json:"checklist"`
}

func (s *Server) scheduleMaintenance(c *gin.Context) {
	var body scheduleMaintenanceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	record, err := s.maintenance.Schedule(c.Request.Context(), maintenancedomain.ScheduleRequest{
		EquipmentID:     body.EquipmentID,
		TechnicianID:    body.TechnicianID,
		ScheduledDate:   body.ScheduledDate,
		MaintenanceType: body.MaintenanceType,
		Notes:           body.Notes,
		Checklist:       body.Checklist,
		Actor:           actorFrom(c),
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (s *Server) startMaintenance(c *gin.Context) {
	record, err := s.maintenance.Start(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

type completeMaintenanceBody struct {
	PerformedDate *time.Time `json:"performed_date"`
	Notes         string     `json:"notes"`
	Checklist     string     `json:"checklist"`
	PartsUsed     string     `json:"parts_used"`
	TotalCost     *int64     `json:"total_cost"`
}

func (s *Server) completeMaintenance(c *gin.Context) {
	var body completeMaintenanceBody
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		s.abortBadRequest(c, err)
		return
	}

	record, err := s.maintenance.Complete(c.Request.Context(), maintenancedomain.CompleteRequest{
		RecordID:      c.Param("id"),
		Actor:         actorFrom(c),
		PerformedDate: body.PerformedDate,
		Notes:         body.Notes,
		Checklist:     body.Checklist,
		PartsUsed:     body.PartsUsed,
		TotalCost:     body.TotalCost,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

type cancelMaintenanceBody struct {
	Reason string `json:"reason" binding:"required"`
}

func (s *Server) cancelMaintenance(c *gin.Context) {
	var body cancelMaintenanceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	record, err := s.maintenance.Cancel(c.Request.Context(), c.Param("id"), actorFrom(c), body.Reason)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) getMaintenance(c *gin.Context) {
	record, err := s.maintenance.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) listMaintenance(c *gin.Context) {
	var req maintenancedomain.ListRecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	resp, err := s.maintenance.List(c.Request.Context(), req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) overdueMaintenance(c *gin.Context) {
	records, err := s.maintenance.Overdue(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
