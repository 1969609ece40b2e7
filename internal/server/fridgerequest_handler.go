package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coldchain/internal/authorization"
	fridgerequestdomain "github.com/smallbiznis/coldchain/internal/fridgerequest/domain"
)

func (s *Server) registerFridgeRequestRoutes(g *gin.RouterGroup) {
	requests := g.Group("/fridge-requests")
	requests.POST("",
		s.requireAction(authorization.ObjectFridgeRequest, authorization.ActionFridgeRequestCreate),
		s.submitFridgeRequest)
	requests.GET("",
		s.requireAction(authorization.ObjectFridgeRequest, authorization.ActionFridgeRequestView),
		s.listFridgeRequests)
	requests.GET("/:id",
		s.requireAction(authorization.ObjectFridgeRequest, authorization.ActionFridgeRequestView),
		s.getFridgeRequest)
	requests.POST("/:id/review",
		s.requireAction(authorization.ObjectFridgeRequest, authorization.ActionFridgeRequestReview),
		s.reviewFridgeRequest)
	requests.POST("/:id/approve",
		s.requireAction(authorization.ObjectFridgeRequest, authorization.ActionFridgeRequestReview),
		s.approveFridgeRequest)
	requests.POST("/:id/reject",
		s.requireAction(authorization.ObjectFridgeRequest, authorization.ActionFridgeRequestReview),
		s.rejectFridgeRequest)
	requests.POST("/:id/allocate",
		s.requireAction(authorization.ObjectFridgeRequest, authorization.ActionFridgeRequestAllocate),
		s.allocateFridgeRequest)
	requests.POST("/:id/complete",
		s.requireAction(authorization.ObjectFridgeRequest, authorization.ActionFridgeRequestAllocate),
		s.completeFridgeRequest)
}

type submitFridgeRequestBody struct {
	CustomerID      string `json:"customer_id" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required"`
	Justification   string `json:"justification" binding:"required"`
	AdditionalNotes string `json:"additional_notes"`
}

func (s *Server) submitFridgeRequest(c *gin.Context) {
	var body submitFridgeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	request, err := s.fridgeRequests.Submit(c.Request.Context(), fridgerequestdomain.SubmitRequest{
		CustomerID:      body.CustomerID,
		Quantity:        body.Quantity,
		Justification:   body.Justification,
		AdditionalNotes: body.AdditionalNotes,
		Actor:           actorFrom(c),
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (s *Server) reviewFridgeRequest(c *gin.Context) {
	request, err := s.fridgeRequests.Review(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type approveFridgeRequestBody struct {
	ApprovedQuantity int    `json:"approved_quantity"`
	Notes            string `json:"notes"`
}

func (s *Server) approveFridgeRequest(c *gin.Context) {
	var body approveFridgeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		s.abortBadRequest(c, err)
		return
	}

	request, err := s.fridgeRequests.Approve(c.Request.Context(), fridgerequestdomain.ApproveRequest{
		RequestID:        c.Param("id"),
		ApprovedQuantity: body.ApprovedQuantity,
		Notes:            body.Notes,
		Actor:            actorFrom(c),
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type rejectFridgeRequestBody struct {
	Reason string `json:"reason"`
}

func (s *Server) rejectFridgeRequest(c *gin.Context) {
	var body rejectFridgeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		s.abortBadRequest(c, err)
		return
	}

	request, err := s.fridgeRequests.Reject(c.Request.Context(), c.Param("id"), actorFrom(c), body.Reason)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type allocateFridgeRequestBody struct {
	EquipmentIDs []string `json:"equipment_ids" binding:"required"`
	Notes        string   `json:"notes"`
}

func (s *Server) allocateFridgeRequest(c *gin.Context) {
	var body allocateFridgeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	request, err := s.fridgeRequests.Allocate(c.Request.Context(), fridgerequestdomain.AllocateRequest{
		RequestID:    c.Param("id"),
		EquipmentIDs: body.EquipmentIDs,
		Notes:        body.Notes,
		Actor:        actorFrom(c),
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (s *Server) completeFridgeRequest(c *gin.Context) {
	request, err := s.fridgeRequests.Complete(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (s *Server) getFridgeRequest(c *gin.Context) {
	request, err := s.fridgeRequests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (s *Server) listFridgeRequests(c *gin.Context) {
	var req fridgerequestdomain.ListRequestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	resp, err := s.fridgeRequests.List(c.Request.Context(), req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
