package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raditya/chatwave/internal/container"
	handlers "github.com/raditya/chatwave/internal/interface/http"
	"github.com/raditya/chatwave/internal/interface/middleware"
	"github.com/raditya/chatwave/pkg/helpers"
)

// ChannelModule wires the channel membership routes; every route sits
// behind the session gate.

type ChannelModule struct {
	Handler *handlers.ChannelHandler
	JWT     *helpers.JWTManager
}

func NewChannelModule(h *handlers.ChannelHandler, jwt *helpers.JWTManager) *ChannelModule {
	return &ChannelModule{Handler: h, JWT: jwt}
}

func (m *ChannelModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/channel")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/create-channel", m.Handler.Create)
		auth.GET("/get-user-channels", m.Handler.GetUserChannels)
		auth.PUT("/add-members", m.Handler.AddMembers)
		auth.PUT("/remove-members", m.Handler.RemoveMembers)
		auth.DELETE("/delete-channel/:channelId", m.Handler.Delete)
	}
}
