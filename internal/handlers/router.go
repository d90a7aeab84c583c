package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/services"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/utils"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/validator"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	learnerHandler *LearnerHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(serviceManager.Session(), serviceManager.Report(), validator, logger),
		learnerHandler: NewLearnerHandler(serviceManager.Session(), serviceManager.Analytics(), logger),
	}
}

// NewRouter builds the gin engine with middleware and all routes mounted
func NewRouter(hm *HandlerManager, logger utils.Logger, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.RequestID())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(utils.ContextLogger(logger))
	router.Use(cors.New(corsConfig(allowedOrigins)))

	hm.SetupRoutes(router)
	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	// Credentials cannot be combined with a wildcard origin
	if len(allowedOrigins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.GET("/:id/item", hm.sessionHandler.GetCurrentItem)
			sessions.POST("/:id/responses", hm.sessionHandler.SubmitResponse)
			sessions.POST("/:id/abort", hm.sessionHandler.AbortSession)
			sessions.GET("/:id/summary", hm.sessionHandler.GetSummary)
			sessions.GET("/:id/export", hm.sessionHandler.ExportSession)
		}

		learners := v1.Group("/learners/:learner_id")
		{
			learners.GET("/estimates", hm.learnerHandler.ListEstimates)
			learners.GET("/estimates/:topic", hm.learnerHandler.GetEstimate)
			learners.GET("/analytics", hm.learnerHandler.GetAnalytics)
			learners.GET("/sessions", hm.learnerHandler.ListSessions)
		}
	}
}
