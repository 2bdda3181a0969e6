package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/curricula-hub/access-service/internal/events"
	"github.com/curricula-hub/access-service/internal/repositories"
	"github.com/curricula-hub/access-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager.
type ServiceManagerConfig struct {
	// Migration shim for the guard; see AccessService.
	SuperAdminEmail string

	// Redirect target for invitation and reset emails.
	InviteRedirectURL string
}

// serviceManager implements ServiceManager.
type serviceManager struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	config    ServiceManagerConfig

	accountService AccountService
	accessService  AccessService
	exportService  ExportService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(
	repo repositories.Repository,
	logger *slog.Logger,
	v *validator.Validator,
	publisher events.EventPublisher,
	config ServiceManagerConfig,
) ServiceManager {
	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		config:    config,
	}
}

func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.accountService = NewAccountService(sm.repo, sm.logger, sm.validator, sm.publisher, sm.config.InviteRedirectURL)
	sm.accessService = NewAccessService(sm.config.SuperAdminEmail)
	sm.exportService = NewExportService(sm.repo, sm.logger)

	// One connectivity probe at startup; mutations later have no client-side
	// timeout of their own.
	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository ping failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("service manager initialized")
	return nil
}

func (sm *serviceManager) Account() AccountService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.accountService
}

func (sm *serviceManager) Access() AccessService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.accessService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.exportService
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.shutdown {
		return fmt.Errorf("service manager not ready")
	}
	return sm.repo.Ping(ctx)
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.shutdown = true

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("failed to close event publisher", "error", err)
		}
	}

	sm.logger.Info("service manager shut down")
	return nil
}
