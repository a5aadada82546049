package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

func NewRouter(cfg *config.Config, logger out.LoggerPort, clock out.ClockPort, availability in.AvailabilityUseCase, reservations in.ReservationUseCase) *gin.Engine {
	if cfg.IsNotLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger = logger.WithModule("HTTP")

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": cfg.App.Version,
		})
	})

	api := router.Group("/api/v1")
	api.Use(basicAuth(cfg.Auth.BasicClients))

	NewAvailabilityController(availability, clock, cfg).RegisterRoutes(api)

	limiter := newRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, logger)
	NewReservationController(reservations).RegisterRoutes(api, limiter.middleware())

	return router
}
