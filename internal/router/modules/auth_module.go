package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raditya/chatwave/internal/container"
	handlers "github.com/raditya/chatwave/internal/interface/http"
	"github.com/raditya/chatwave/internal/interface/middleware"
	"github.com/raditya/chatwave/pkg/helpers"
)

// AuthModule wires account routes.
// Public: POST /api/auth/signup, /api/auth/login, /api/auth/logout
// Protected: GET /api/auth/user-info, POST /api/auth/update-profile,
// POST /api/auth/add-profile-image, DELETE /api/auth/remove-profile-image,
// GET /api/contacts/search

type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	signupLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())

	rg.POST("/auth/signup", signupLimiter, m.Handler.Signup)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	// logout only clears the cookie; no session required
	rg.POST("/auth/logout", m.Handler.Logout)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/auth/user-info", m.Handler.GetUserInfo)
		auth.POST("/auth/update-profile", m.Handler.UpdateProfile)
		auth.POST("/auth/add-profile-image", m.Handler.AddProfileImage)
		auth.DELETE("/auth/remove-profile-image", m.Handler.RemoveProfileImage)
		auth.GET("/contacts/search", m.Handler.SearchContacts)
	}
}
