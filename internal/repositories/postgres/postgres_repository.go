package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/curricula-hub/access-service/internal/repositories"
	"github.com/curricula-hub/access-service/internal/repositories/casdoor"
)

// PostgreSQLRepository implements the main Repository interface. Profiles and
// purchases live in Postgres; the identity repository talks to Casdoor.
type PostgreSQLRepository struct {
	db          *gorm.DB
	redisClient *redis.Client

	profile  repositories.ProfileRepository
	purchase repositories.PurchaseRepository
	identity repositories.IdentityRepository
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	DB            *gorm.DB
	RedisClient   *redis.Client
	CasdoorConfig casdoor.CasdoorConfig
}

// RepositoryManager wires up and owns the repository set.
type RepositoryManager struct {
	config RepositoryConfig
	repo   *PostgreSQLRepository
}

func NewRepositoryManager(config RepositoryConfig) *RepositoryManager {
	return &RepositoryManager{config: config}
}

// Initialize constructs all sub-repositories.
func (m *RepositoryManager) Initialize() error {
	if m.config.DB == nil {
		return fmt.Errorf("repository manager requires a database connection")
	}

	m.repo = &PostgreSQLRepository{
		db:          m.config.DB,
		redisClient: m.config.RedisClient,
		profile:     NewProfileRepository(m.config.DB),
		purchase:    NewPurchaseRepository(m.config.DB),
		identity:    casdoor.NewIdentityCasdoor(m.config.CasdoorConfig, m.config.RedisClient),
	}
	return nil
}

func (m *RepositoryManager) GetRepository() repositories.Repository {
	return m.repo
}

func (r *PostgreSQLRepository) Profile() repositories.ProfileRepository {
	return r.profile
}

func (r *PostgreSQLRepository) Purchase() repositories.PurchaseRepository {
	return r.purchase
}

func (r *PostgreSQLRepository) Identity() repositories.IdentityRepository {
	return r.identity
}

// Ping checks database connectivity.
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connections.
func (r *PostgreSQLRepository) Close() error {
	if sqlDB, err := r.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			return err
		}
	}
	if r.redisClient != nil {
		return r.redisClient.Close()
	}
	return nil
}
