package casdoor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/curricula-hub/access-service/internal/cache"
	"github.com/curricula-hub/access-service/internal/models"
	"github.com/curricula-hub/access-service/internal/repositories"
)

// CasdoorConfig holds the configuration for the Casdoor connection.
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// IdentityCasdoor implements IdentityRepository against Casdoor, with a Redis
// read-through cache for identity lookups.
type IdentityCasdoor struct {
	client *casdoorsdk.Client
	config CasdoorConfig

	cache       *cache.CacheHelper
	existsCache *cache.CacheHelper
}

func NewIdentityCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.IdentityRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &IdentityCasdoor{
		client:      client,
		config:      config,
		cache:       cache.NewCacheHelper(redisClient, cache.IdentityCacheConfig.Prefix),
		existsCache: cache.NewCacheHelper(redisClient, cache.ExistsCacheConfig.Prefix),
	}
}

// ===== PROVISIONING =====

// CreateWithPassword creates an identity that is immediately usable: the
// email is marked confirmed and no invitation is dispatched.
func (i *IdentityCasdoor) CreateWithPassword(ctx context.Context, email, password, displayName string, role models.AccountRole) (*repositories.IdentityRecord, error) {
	user := i.newCasdoorUser(email, displayName, role)
	user.Password = password
	user.EmailVerified = true

	ok, err := i.client.AddUser(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user in Casdoor: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("Casdoor rejected user creation for %s", email)
	}

	record := i.convertCasdoorUser(user)
	i.setRecordCache(ctx, record)
	i.invalidateExistsCache(ctx, email)
	return record, nil
}

// Invite creates a pending identity and dispatches the invitation email. The
// invitee sets a password through the redirect target; acceptance itself is
// handled by the provider.
func (i *IdentityCasdoor) Invite(ctx context.Context, email, displayName string, role models.AccountRole, redirectTo string) (*repositories.IdentityRecord, error) {
	user := i.newCasdoorUser(email, displayName, role)

	ok, err := i.client.AddUser(user)
	if err != nil {
		return nil, fmt.Errorf("failed to invite user in Casdoor: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("Casdoor rejected invitation for %s", email)
	}

	if err := i.sendInviteEmail(email, displayName, redirectTo); err != nil {
		return nil, fmt.Errorf("failed to send invitation email: %w", err)
	}

	record := i.convertCasdoorUser(user)
	i.setRecordCache(ctx, record)
	i.invalidateExistsCache(ctx, email)
	return record, nil
}

// ResendInvite re-dispatches the invitation email for an existing identity.
// No identity fields are mutated.
func (i *IdentityCasdoor) ResendInvite(ctx context.Context, email, redirectTo string) error {
	record, err := i.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := i.sendInviteEmail(record.Email, record.DisplayName, redirectTo); err != nil {
		return fmt.Errorf("failed to resend invitation email: %w", err)
	}
	return nil
}

// SendPasswordReset dispatches a password reset email. Valid for any identity
// with a known email, regardless of status.
func (i *IdentityCasdoor) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	record, err := i.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	content := fmt.Sprintf("A password reset was requested for your account. Set a new password here: %s", redirectTo)
	if err := i.client.SendEmail("Reset your password", content, i.config.ApplicationName, record.Email); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// ===== READ OPERATIONS =====

func (i *IdentityCasdoor) GetByEmail(ctx context.Context, email string) (*repositories.IdentityRecord, error) {
	cacheKey := fmt.Sprintf("email:%s", email)
	var cached repositories.IdentityRecord
	if err := i.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	casdoorUser, err := i.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email from Casdoor: %w", err)
	}
	if casdoorUser == nil {
		return nil, repositories.ErrNotFound
	}

	record := i.convertCasdoorUser(casdoorUser)
	i.setRecordCache(ctx, record)
	return record, nil
}

func (i *IdentityCasdoor) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	cacheKey := fmt.Sprintf("email:%s", email)
	var cached bool
	if err := i.existsCache.Get(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	}

	casdoorUser, err := i.client.GetUserByEmail(email)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence by email: %w", err)
	}

	exists := casdoorUser != nil
	_ = i.existsCache.Set(ctx, cacheKey, exists, cache.ExistsCacheConfig.TTL)
	return exists, nil
}

// ===== HELPERS =====

func (i *IdentityCasdoor) newCasdoorUser(email, displayName string, role models.AccountRole) *casdoorsdk.User {
	if displayName == "" {
		displayName = email
	}
	return &casdoorsdk.User{
		Owner:       i.config.OrganizationName,
		Name:        usernameFromEmail(email),
		Id:          uuid.New().String(),
		DisplayName: displayName,
		Email:       email,
		Type:        string(role),
		CreatedTime: time.Now().UTC().Format(time.RFC3339),
	}
}

func (i *IdentityCasdoor) sendInviteEmail(email, displayName, redirectTo string) error {
	content := fmt.Sprintf("Hello %s, you have been invited. Set your password here: %s", displayName, redirectTo)
	return i.client.SendEmail("You have been invited", content, i.config.ApplicationName, email)
}

func (i *IdentityCasdoor) convertCasdoorUser(casdoorUser *casdoorsdk.User) *repositories.IdentityRecord {
	if casdoorUser == nil {
		return nil
	}

	var createdAt, updatedAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}
	if casdoorUser.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, casdoorUser.UpdatedTime)
	}

	return &repositories.IdentityRecord{
		ID:          casdoorUser.Id,
		Email:       casdoorUser.Email,
		DisplayName: casdoorUser.DisplayName,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

func (i *IdentityCasdoor) setRecordCache(ctx context.Context, record *repositories.IdentityRecord) {
	if record == nil || record.Email == "" {
		return
	}
	_ = i.cache.Set(ctx, fmt.Sprintf("email:%s", record.Email), record, cache.IdentityCacheConfig.TTL)
}

// invalidateExistsCache drops the existence entry for an email after a
// successful provisioning, since the pre-check may have cached a miss moments
// earlier.
func (i *IdentityCasdoor) invalidateExistsCache(ctx context.Context, email string) {
	cache.SafeDelete(ctx, i.existsCache, fmt.Sprintf("email:%s", email))
}

func usernameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	return strings.ToLower(local)
}
