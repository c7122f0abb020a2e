package router

import (
	app "github.com/raditya/chatwave/internal/application"
	"github.com/raditya/chatwave/internal/container"
	pginfra "github.com/raditya/chatwave/internal/infrastructure/postgres"
	handlers "github.com/raditya/chatwave/internal/interface/http"
	"github.com/raditya/chatwave/internal/router/modules"
)

// InitModules initializes all application modules and registers them with the router registry.
// Called once during application startup to wire up all modules.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	userRepo := pginfra.NewUserRepository(container.GetPGPool())
	channelRepo := pginfra.NewChannelRepository(container.GetPGPool())

	userSvc := app.NewUserService(
		userRepo,
		container.GetJWT(),
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetLogger(),
		container.GetES(),
		cfg.ESUsersIndex,
	)
	channelSvc := app.NewChannelService(channelRepo, userRepo, container.GetLogger())

	authHandler := handlers.NewAuthHandler(userSvc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	channelHandler := handlers.NewChannelHandler(channelSvc, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewChannelModule(channelHandler, container.GetJWT()))
}
