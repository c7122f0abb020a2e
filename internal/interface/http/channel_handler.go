package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	chanapp "github.com/raditya/chatwave/internal/application"
	"github.com/raditya/chatwave/internal/interface/middleware"
	"github.com/raditya/chatwave/pkg/response"
	"github.com/raditya/chatwave/pkg/validation"
)

// ChannelHandler serves the channel membership routes.
type ChannelHandler struct {
	Svc    *chanapp.ChannelService
	Logger *logrus.Logger
}

func NewChannelHandler(svc *chanapp.ChannelService, logger *logrus.Logger) *ChannelHandler {
	return &ChannelHandler{Svc: svc, Logger: logger}
}

type createChannelRequest struct {
	Name    string   `json:"name" binding:"required"`
	Members []string `json:"members" binding:"required,min=1,dive,uuid"`
}

type addMembersRequest struct {
	ChannelID  string   `json:"channelId" binding:"required,uuid"`
	NewMembers []string `json:"newMembers" binding:"required,min=1,dive,uuid"`
}

type removeMembersRequest struct {
	ChannelID     string   `json:"channelId" binding:"required,uuid"`
	RemoveMembers []string `json:"removeMembers" binding:"required,min=1,dive,uuid"`
}

// channelError maps service failures onto the status table.
func (h *ChannelHandler) channelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chanapp.ErrEmptyInput):
		response.Error(c, http.StatusBadRequest, "name and members are required", nil)
	case errors.Is(err, chanapp.ErrInvalidMembers):
		response.Error(c, http.StatusBadRequest, "some members are invalid users", nil)
	case errors.Is(err, chanapp.ErrChannelNotFound):
		response.Error(c, http.StatusNotFound, "channel not found", nil)
	default:
		h.Logger.WithError(err).Error("channel operation failed")
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
	}
}

// Create POST /api/channel/create-channel
func (h *ChannelHandler) Create(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "name and members are required", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)

	ch, err := h.Svc.Create(c.Request.Context(), uid, req.Name, req.Members)
	if err != nil {
		h.channelError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"channel": ch}, "channel created", nil)
}

// GetUserChannels GET /api/channel/get-user-channels
func (h *ChannelHandler) GetUserChannels(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	channels, err := h.Svc.ListForUser(c.Request.Context(), uid)
	if err != nil {
		h.channelError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"channels": channels}, "channels", nil)
}

// AddMembers PUT /api/channel/add-members
func (h *ChannelHandler) AddMembers(c *gin.Context) {
	var req addMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "new members are required", validation.ToDetails(err))
		return
	}

	ch, err := h.Svc.AddMembers(c.Request.Context(), req.ChannelID, req.NewMembers)
	if err != nil {
		h.channelError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"channel": ch}, "members added", nil)
}

// RemoveMembers PUT /api/channel/remove-members
func (h *ChannelHandler) RemoveMembers(c *gin.Context) {
	var req removeMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "members to remove are required", validation.ToDetails(err))
		return
	}

	ch, err := h.Svc.RemoveMembers(c.Request.Context(), req.ChannelID, req.RemoveMembers)
	if err != nil {
		h.channelError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"channel": ch}, "members removed", nil)
}

// Delete DELETE /api/channel/delete-channel/:channelId
func (h *ChannelHandler) Delete(c *gin.Context) {
	channelID := c.Param("channelId")
	if err := h.Svc.Delete(c.Request.Context(), channelID); err != nil {
		h.channelError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "channel deleted successfully", nil)
}
