package http

import (
	"context"
	"fmt"
	stdhttp "net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"overlay-service/internal/auth"
	"overlay-service/internal/broadcast"
	"overlay-service/internal/config"
	"overlay-service/internal/directory"
	"overlay-service/internal/http/handler"
	"overlay-service/internal/http/middleware"
	"overlay-service/pkg/metrics"
	"overlay-service/pkg/profiling"
)

const (
	jsonKeyStatus = "status"
	statusOK      = "ok"
)

type ServerDependencies struct {
	Config         *config.Config
	Directory      *directory.Service
	Hub            *broadcast.Hub
	AuthMiddleware *auth.Middleware
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Set custom HTTP error handler
	e.HTTPErrorHandler = CustomHTTPErrorHandler

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	// Request ID middleware (first, so all logs have request ID)
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	// Body limit tracks the upload ceiling, with headroom for multipart
	// framing.
	e.Use(echomiddleware.BodyLimit(fmt.Sprintf("%dM", deps.Config.Media.MaxUploadSize>>20+1)))

	e.Use(metrics.MetricsMiddleware())

	// Global rate limiting
	globalRateLimiter := middleware.NewGlobalRateLimiter()
	e.Use(globalRateLimiter.Middleware())

	// Strict rate limiting for the ingestion endpoints
	strictRateLimiter := middleware.NewStrictRateLimiter()

	channelHandler := handler.NewChannelHandler(deps.Directory)
	assetHandler := handler.NewAssetHandler(deps.Directory)
	publicHandler := handler.NewPublicHandler(deps.Directory)
	feedHandler := handler.NewFeedHandler(deps.Hub, deps.Config.Redis.TopicPrefix)

	// Anonymous renderer surface
	e.GET("/health", healthCheck)
	e.GET("/channels/:broadcaster/overlay", publicHandler.GetOverlay)
	e.GET("/channels/:broadcaster/canvas", publicHandler.GetCanvas)
	e.GET("/assets/:id/content", publicHandler.GetAssetContent)
	e.GET("/assets/:id/preview", publicHandler.GetAssetPreview)
	e.GET("/ws/:broadcaster", feedHandler.Subscribe)

	metrics.RegisterMetricsRoute(e)
	if profiling.IsProfilingEnabled() {
		profiling.RegisterPprofRoutes(e)
		profiling.RegisterMemoryRoutes(e)
	}

	api := e.Group("/api")
	api.Use(deps.AuthMiddleware.RequireJWT())

	api.GET("/channels/:broadcaster", channelHandler.GetChannel)
	api.POST("/channels/:broadcaster/admins", channelHandler.AddAdmin)
	api.DELETE("/channels/:broadcaster/admins/:username", channelHandler.RemoveAdmin)
	api.PUT("/channels/:broadcaster/canvas", channelHandler.UpdateCanvas)
	api.PUT("/channels/:broadcaster/features", channelHandler.UpdateFeatureFlags)

	// Asset mutations are scoped to their channel; an asset reached through
	// the wrong channel path reports as missing.
	api.GET("/channels/:broadcaster/assets", assetHandler.ListAssets)
	api.POST("/channels/:broadcaster/assets", assetHandler.CreateAsset, strictRateLimiter.Middleware())
	api.DELETE("/channels/:broadcaster/assets/:id", assetHandler.DeleteAsset)
	api.PATCH("/channels/:broadcaster/assets/:id/transform", assetHandler.UpdateTransform)
	api.POST("/channels/:broadcaster/assets/:id/preview", assetHandler.PreviewTransform)
	api.POST("/channels/:broadcaster/assets/:id/play", assetHandler.TriggerPlayback)
	api.PUT("/channels/:broadcaster/assets/:id/visibility", assetHandler.UpdateVisibility)
	api.PUT("/channels/:broadcaster/assets/:id/script", assetHandler.UpdateScript)
	api.POST("/channels/:broadcaster/assets/:id/attachments", assetHandler.AddAttachment, strictRateLimiter.Middleware())
	api.DELETE("/channels/:broadcaster/assets/:id/attachments/:attachment_id", assetHandler.RemoveAttachment)
	api.GET("/channels/:broadcaster/assets/:id/download-url", assetHandler.GetDownloadURL)

	return &Server{
		echo: e,
		deps: deps,
	}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func healthCheck(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{
		jsonKeyStatus: statusOK,
	})
}
