package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coldchain/internal/authorization"
	faultdomain "github.com/smallbiznis/coldchain/internal/faultreport/domain"
)

func (s *Server) registerFaultReportRoutes(g *gin.RouterGroup) {
	reports := g.Group("/fault-reports")
	reports.POST("",
		s.requireAction(authorization.ObjectFaultReport, authorization.ActionFaultReportCreate),
		s.reportFault)
	reports.GET("",
		s.requireAction(authorization.ObjectFaultReport, authorization.ActionFaultReportView),
		s.listFaultReports)
	reports.GET("/:id",
		s.requireAction(authorization.ObjectFaultReport, authorization.ActionFaultReportView),
		s.getFaultReport)
	reports.POST("/:id/assign",
		s.requireAction(authorization.ObjectFaultReport, authorization.ActionFaultReportAssign),
		s.assignFaultTechnician)
	reports.POST("/:id/diagnose",
		s.requireAction(authorization.ObjectFaultReport, authorization.ActionFaultReportDiagnose),
		s.diagnoseFault)
	reports.POST("/:id/schedule",
		s.requireAction(authorization.ObjectFaultReport, authorization.ActionFaultReportSchedule),
		s.scheduleFaultRepair)
	reports.POST("/:id/start",
		s.requireAction(authorization.ObjectFaultReport, authorization.ActionFaultReportRepair),
		s.startFaultRepair)
	reports.POST("/:id/complete",
		s.requireAction(authorization.ObjectFaultReport, authorization.ActionFaultReportRepair),
		s.completeFaultRepair)
	reports.POST("/:id/close",
		s.requireAction(authorization.ObjectFaultReport, authorization.ActionFaultReportClose),
		s.closeFaultReport)
	reports.POST("/:id/approve-replacement",
		s.requireAction(authorization.ObjectFaultReport, authorization.ActionFaultReportEscalate),
		s.approveReplacement)
}

type reportFaultBody struct {
	EquipmentID        string `json:"equipment_id"`
	CustomerID         string `json:"customer_id" binding:"required"`
	Description        string `json:"description" binding:"required"`
	RequestReplacement bool   `json:"request_replacement"`
	Notes              string `json:"notes"`
}

func (s *Server) reportFault(c *gin.Context) {
	var body reportFaultBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	report, err := s.faults.Report(c.Request.Context(), faultdomain.ReportRequest{
		EquipmentID:        body.EquipmentID,
		CustomerID:         body.CustomerID,
		Description:        body.Description,
		RequestReplacement: body.RequestReplacement,
		Notes:              body.Notes,
		Actor:              actorFrom(c),
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

type assignTechnicianBody struct {
	TechnicianID string `json:"technician_id" binding:"required"`
}

func (s *Server) assignFaultTechnician(c *gin.Context) {
	var body assignTechnicianBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	report, err := s.faults.AssignTechnician(c.Request.Context(), c.Param("id"), body.TechnicianID, actorFrom(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type diagnoseBody struct {
	Diagnosis     string     `json:"diagnosis" binding:"required"`
	PartsRequired string     `json:"parts_required"`
	EstimatedCost *int64     `json:"estimated_cost"`
	InternalNotes string     `json:"internal_notes"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

func (s *Server) diagnoseFault(c *gin.Context) {
	var body diagnoseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	report, err := s.faults.Diagnose(c.Request.Context(), faultdomain.DiagnoseRequest{
		ReportID:      c.Param("id"),
		Actor:         actorFrom(c),
		Diagnosis:     body.Diagnosis,
		PartsRequired: body.PartsRequired,
		EstimatedCost: body.EstimatedCost,
		InternalNotes: body.InternalNotes,
		ScheduledDate: body.ScheduledDate,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type scheduleRepairBody struct {
	ScheduledDate time.Time `json:"scheduled_date" binding:"required"`
}

func (s *Server) scheduleFaultRepair(c *gin.Context) {
	var body scheduleRepairBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	report, err := s.faults.ScheduleRepair(c.Request.Context(), c.Param("id"), actorFrom(c), body.ScheduledDate)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) startFaultRepair(c *gin.Context) {
	report, err := s.faults.StartRepair(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type completeRepairBody struct {
	RepairNotes string `json:"repair_notes"`
}

func (s *Server) completeFaultRepair(c *gin.Context) {
	var body completeRepairBody
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		s.abortBadRequest(c, err)
		return
	}

	report, err := s.faults.CompleteRepair(c.Request.Context(), c.Param("id"), actorFrom(c), body.RepairNotes)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) closeFaultReport(c *gin.Context) {
	report, err := s.faults.Close(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) approveReplacement(c *gin.Context) {
	report, err := s.faults.ApproveReplacement(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) getFaultReport(c *gin.Context) {
	report, err := s.faults.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) listFaultReports(c *gin.Context) {
	var req faultdomain.ListReportsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	resp, err := s.faults.List(c.Request.Context(), req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
