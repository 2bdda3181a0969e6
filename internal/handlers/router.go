package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/curricula-hub/access-service/internal/config"
	"github.com/curricula-hub/access-service/internal/repositories"
	"github.com/curricula-hub/access-service/internal/services"
	"github.com/curricula-hub/access-service/internal/utils"
	"github.com/curricula-hub/access-service/internal/validator"
)

const healthCheckTimeout = 5 * time.Second

// HandlerManager wires services into HTTP handlers and owns route setup.
type HandlerManager struct {
	serviceManager services.ServiceManager
	logger         utils.Logger

	accountHandler *AccountHandler
	accessHandler  *AccessHandler
	authMiddleware *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	profileRepo repositories.ProfileRepository,
	v *validator.Validator,
	logger utils.Logger,
	casdoorCfg config.CasdoorConfig,
) *HandlerManager {
	return &HandlerManager{
		serviceManager: serviceManager,
		logger:         logger,
		accountHandler: NewAccountHandler(serviceManager.Account(), serviceManager.Export(), v, logger),
		accessHandler:  NewAccessHandler(serviceManager.Access(), logger),
		authMiddleware: NewCasdoorAuthMiddleware(casdoorCfg, profileRepo),
	}
}

// SetupRoutes registers all endpoints on the router.
//
// The access-check route uses optional auth so an unresolved session maps to
// a pending decision instead of a 401. The accounts group requires the
// manage-users capability.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	access := v1.Group("/access")
	access.Use(hm.authMiddleware.OptionalAuthMiddleware())
	{
		access.GET("/check", hm.accessHandler.CheckAccess)
	}

	accounts := v1.Group("/accounts")
	accounts.Use(hm.authMiddleware.AuthMiddleware())
	accounts.Use(hm.authMiddleware.RequireAccess(hm.serviceManager.Access(), services.AccessRequirement{
		RequireManageUsers: true,
	}))
	{
		accounts.POST("", hm.accountHandler.CreateAccount)
		accounts.GET("", hm.accountHandler.ListAccounts)
		accounts.GET("/export", hm.accountHandler.ExportAccounts)
		accounts.POST("/resend-invite", hm.accountHandler.ResendInvite)
		accounts.POST("/password-reset", hm.accountHandler.SendPasswordReset)
		accounts.GET("/:id", hm.accountHandler.GetAccount)
		accounts.PUT("/:id", hm.accountHandler.UpdateAccount)
		accounts.DELETE("/:id", hm.accountHandler.DeleteAccount)
		accounts.PUT("/:id/suspended", hm.accountHandler.SetSuspended)
		accounts.GET("/:id/purchases", hm.accountHandler.ListPurchases)
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
