package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/curricula-hub/access-service/internal/config"
	"github.com/curricula-hub/access-service/internal/models"
	"github.com/curricula-hub/access-service/internal/repositories"
	"github.com/curricula-hub/access-service/internal/services"
)

// CasdoorAuthMiddleware authenticates requests with the Casdoor SDK and
// reconciles the viewer's account from both stores: identity fields (id,
// email, display name) come from the token claims, profile fields (role,
// status, flags) from the local projection.
type CasdoorAuthMiddleware struct {
	client      *casdoorsdk.Client
	profileRepo repositories.ProfileRepository
	config      config.CasdoorConfig
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, profileRepo repositories.ProfileRepository) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &CasdoorAuthMiddleware{
		client:      client,
		profileRepo: profileRepo,
		config:      cfg,
	}
}

// AuthMiddleware requires a valid bearer token and sets the reconciled
// account in the request context.
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "authorization header missing or malformed",
			})
			c.Abort()
			return
		}

		claims, err := cam.client.ParseJwtToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": fmt.Sprintf("invalid token: %v", err),
			})
			c.Abort()
			return
		}

		account, err := cam.reconcileAccount(c.Request.Context(), claims)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": fmt.Sprintf("failed to resolve account: %v", err),
			})
			c.Abort()
			return
		}

		setAccountContext(c, account)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the account when a valid token is present
// and continues silently otherwise. Used by the access-check endpoint, where
// an unresolved session is a pending outcome rather than a 401.
func (cam *CasdoorAuthMiddleware) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := cam.client.ParseJwtToken(token)
		if err != nil {
			c.Next()
			return
		}

		if account, err := cam.reconcileAccount(c.Request.Context(), claims); err == nil {
			setAccountContext(c, account)
		}
		c.Next()
	}
}

// RequireAccess enforces an access requirement on a route group, using the
// same guard the check endpoint exposes.
func (cam *CasdoorAuthMiddleware) RequireAccess(access services.AccessService, req services.AccessRequirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, _ := GetAccountFromContext(c)

		switch access.Check(account, req) {
		case services.DecisionAllowed:
			c.Next()
		case services.DecisionPending:
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "session not resolved",
			})
			c.Abort()
		default:
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "insufficient permissions",
			})
			c.Abort()
		}
	}
}

// reconcileAccount merges the token claims with the profile projection.
// Identity fields always come from the claims; profile fields come from the
// projection when a row exists, else from claims metadata with viewer/active
// defaults.
func (cam *CasdoorAuthMiddleware) reconcileAccount(ctx context.Context, claims *casdoorsdk.Claims) (*models.Account, error) {
	id := claims.Id
	if id == "" {
		return nil, fmt.Errorf("token carries no user id")
	}

	email := claims.User.Email

	account, err := cam.profileRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		// No projection row yet: fall back to claims metadata.
		account = &models.Account{
			ID:        id,
			Role:      models.ParseRole(claims.User.Type),
			Status:    models.StatusActive,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
	}

	if email != "" {
		account.Email = &email
	}
	if claims.User.DisplayName != "" && account.DisplayName == nil {
		displayName := claims.User.DisplayName
		account.DisplayName = &displayName
	}
	account.Status = account.EffectiveStatus()

	return account, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func setAccountContext(c *gin.Context, account *models.Account) {
	c.Set("account", account)
	c.Set("account_id", account.ID)
	c.Set("account_role", account.Role)
	c.Set("account_email", account.EmailOrEmpty())
}

// GetAccountFromContext extracts the reconciled viewer account from the Gin
// context. A false return means the session has not resolved.
func GetAccountFromContext(c *gin.Context) (*models.Account, bool) {
	v, exists := c.Get("account")
	if !exists {
		return nil, false
	}
	account, ok := v.(*models.Account)
	if !ok {
		return nil, false
	}
	return account, true
}
