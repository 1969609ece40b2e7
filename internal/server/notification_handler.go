package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coldchain/internal/authorization"
	"github.com/smallbiznis/coldchain/internal/identity"
	notificationdomain "github.com/smallbiznis/coldchain/internal/notification/domain"
)

func (s *Server) registerNotificationRoutes(g *gin.RouterGroup) {
	notifications := g.Group("/notifications")
	notifications.Use(s.requireAction(authorization.ObjectNotification, authorization.ActionNotificationView))
	notifications.GET("", s.listNotifications)
	notifications.GET("/unread-count", s.unreadNotificationCount)
	notifications.POST("/:id/read", s.markNotificationRead)
	notifications.POST("/read-all", s.markAllNotificationsRead)
}

func (s *Server) listNotifications(c *gin.Context) {
	var req notificationdomain.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.abortBadRequest(c, err)
		return
	}

	actor := actorFrom(c)
	var (
		resp notificationdomain.ListNotificationsResponse
		err  error
	)
	if actor.Role == identity.RoleCustomer {
		resp, err = s.notifications.ListForCustomer(c.Request.Context(), actor.ID, req)
	} else {
		resp, err = s.notifications.ListForUser(c.Request.Context(), actor.ID, req)
	}
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) unreadNotificationCount(c *gin.Context) {
	count, err := s.notifications.UnreadCount(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (s *Server) markNotificationRead(c *gin.Context) {
	if err := s.notifications.MarkRead(c.Request.Context(), c.Param("id"), actorFrom(c).ID); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

func (s *Server) markAllNotificationsRead(c *gin.Context) {
	if err := s.notifications.MarkAllRead(c.Request.Context(), actorFrom(c).ID); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}
