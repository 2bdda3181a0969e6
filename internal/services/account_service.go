package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/curricula-hub/access-service/internal/events"
	"github.com/curricula-hub/access-service/internal/metrics"
	"github.com/curricula-hub/access-service/internal/models"
	"github.com/curricula-hub/access-service/internal/repositories"
	"github.com/curricula-hub/access-service/internal/validator"
)

type accountService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher

	// Base URL invitees and reset recipients are redirected to.
	inviteRedirectURL string
}

func NewAccountService(
	repo repositories.Repository,
	logger *slog.Logger,
	v *validator.Validator,
	publisher events.EventPublisher,
	inviteRedirectURL string,
) AccountService {
	return &accountService{
		repo:              repo,
		logger:            logger,
		validator:         v,
		publisher:         publisher,
		inviteRedirectURL: inviteRedirectURL,
	}
}

// ===== PROVISIONING =====

// Create provisions exactly one new account, either password-activated or
// invitation-pending. The local profile projection upsert is best-effort: the
// identity-level account is the primary outcome.
func (s *accountService) Create(ctx context.Context, req *CreateAccountRequest) (*CreateAccountResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		metrics.ProvisioningErrorsTotal.WithLabelValues("validation").Inc()
		return nil, validator.ValidationErrors{{Field: "email", Message: "is required", Rule: "required"}}
	}
	req.Email = email

	if verrs := s.validator.Validate(req); verrs != nil {
		metrics.ProvisioningErrorsTotal.WithLabelValues("validation").Inc()
		return nil, verrs
	}

	// Unknown role/status values fall back rather than failing; the admin
	// form sends free-form strings for both.
	role := models.ParseRole(req.Role)
	status := models.ParseStatus(req.Status)

	displayName := ""
	if req.DisplayName != nil {
		displayName = strings.TrimSpace(*req.DisplayName)
	}

	// Duplicate pre-check, advisory only: a stale or failed answer falls
	// through to the provider, which rejects duplicates authoritatively.
	exists, err := s.repo.Identity().ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Warn("email existence pre-check failed", "email", email, "error", err)
	} else if exists {
		metrics.ProvisioningErrorsTotal.WithLabelValues("duplicate").Inc()
		return nil, &ProvisioningError{Message: fmt.Sprintf("an account with email %s already exists", email)}
	}

	// Invite unless explicitly told to send one is false and a usable
	// password was supplied.
	useInvite := (req.SendInviteEmail != nil && *req.SendInviteEmail) ||
		(req.Password == "" && status == models.StatusInvited)

	var record *repositories.IdentityRecord
	if !useInvite && len(req.Password) >= 6 {
		record, err = s.repo.Identity().CreateWithPassword(ctx, email, req.Password, displayName, role)
	} else {
		useInvite = true
		record, err = s.repo.Identity().Invite(ctx, email, displayName, role, s.inviteRedirectURL)
	}
	if err != nil {
		metrics.ProvisioningErrorsTotal.WithLabelValues("provider").Inc()
		return nil, NewProvisioningError(err)
	}

	resolvedEmail := record.Email
	if resolvedEmail == "" {
		resolvedEmail = email
	}

	account := &models.Account{
		ID:        record.ID,
		Email:     &resolvedEmail,
		Role:      role,
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}
	if displayName != "" {
		account.DisplayName = &displayName
	}

	// Best-effort: the provider-side trigger may also populate the row, and
	// the identity account already exists either way.
	if err := s.repo.Profile().Upsert(ctx, account); err != nil {
		s.logger.Warn("profile upsert failed after account creation",
			"account_id", record.ID,
			"error", err)
	}

	eventType := events.TopicAccountCreated
	mode := "password"
	if useInvite {
		eventType = events.TopicAccountInvited
		mode = "invite"
	}
	s.publishEvent(ctx, eventType, record.ID, resolvedEmail, map[string]any{"role": role})
	metrics.AccountsProvisionedTotal.WithLabelValues(mode).Inc()

	resp := &CreateAccountResponse{
		Success: true,
		User: CreatedAccount{
			ID:    record.ID,
			Email: resolvedEmail,
			Role:  role,
		},
		Invited: useInvite,
	}
	if account.DisplayName != nil {
		resp.User.DisplayName = account.DisplayName
	}
	return resp, nil
}

// ===== READS =====

func (s *accountService) GetByID(ctx context.Context, id string) (*AccountResponse, error) {
	account, err := s.repo.Profile().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	purchases, err := s.repo.Purchase().ListByUser(ctx, id)
	if err != nil {
		// Subscription status is ancillary; degrade to None.
		s.logger.Warn("failed to load purchases", "account_id", id, "error", err)
		purchases = nil
	}

	return &AccountResponse{
		Account:            account,
		SubscriptionStatus: models.DeriveSubscriptionStatus(purchases),
	}, nil
}

func (s *accountService) List(ctx context.Context, filters repositories.AccountFilters) (*AccountListResponse, error) {
	accounts, total, err := s.repo.Profile().List(ctx, filters)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}

	purchasesByUser, err := s.repo.Purchase().ListByUsers(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to load purchases for account list", "error", err)
		purchasesByUser = nil
	}

	responses := make([]*AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		responses = append(responses, &AccountResponse{
			Account:            a,
			SubscriptionStatus: models.DeriveSubscriptionStatus(purchasesByUser[a.ID]),
		})
	}

	page := 1
	if filters.Limit > 0 {
		page = (filters.Offset / filters.Limit) + 1
	}

	return &AccountListResponse{
		Accounts: responses,
		Total:    total,
		Page:     page,
		Size:     filters.Limit,
	}, nil
}

func (s *accountService) ListPurchases(ctx context.Context, accountID string) ([]*models.Purchase, error) {
	if _, err := s.repo.Profile().GetByID(ctx, accountID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return s.repo.Purchase().ListByUser(ctx, accountID)
}

// ===== ADMINISTRATIVE MUTATIONS =====

func (s *accountService) Update(ctx context.Context, id string, req *UpdateAccountRequest) (*models.Account, error) {
	if verrs := s.validator.Validate(req); verrs != nil {
		return nil, verrs
	}

	account, err := s.repo.Profile().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if req.DisplayName != nil {
		account.DisplayName = req.DisplayName
	}
	if req.Role != nil {
		account.Role = models.AccountRole(*req.Role)
	}
	if req.Status != nil {
		account.Status = models.AccountStatus(*req.Status)
	}
	if req.CanEditActivities != nil {
		account.CanEditActivities = *req.CanEditActivities
	}
	if req.CanEditLessons != nil {
		account.CanEditLessons = *req.CanEditLessons
	}
	if req.CanManageYearGroups != nil {
		account.CanManageYearGroups = *req.CanManageYearGroups
	}
	if req.CanManageUsers != nil {
		account.CanManageUsers = *req.CanManageUsers
	}
	if req.AllowedYearGroups != nil {
		account.AllowedYearGroups = *req.AllowedYearGroups
	}
	account.UpdatedAt = time.Now().UTC()

	if err := s.repo.Profile().Update(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	s.publishEvent(ctx, events.TopicAccountUpdated, account.ID, account.EmailOrEmpty(), nil)
	metrics.AccountMutationsTotal.WithLabelValues("update").Inc()
	return account, nil
}

// SetSuspended is the binary status toggle. Suspending is allowed from any
// status; reactivating always lands on active, even if the account was
// invited before suspension ("invited-but-suspended" is not tracked).
func (s *accountService) SetSuspended(ctx context.Context, id string, suspended bool) (*models.Account, error) {
	account, err := s.repo.Profile().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if suspended {
		account.Status = models.StatusSuspended
	} else {
		account.Status = models.StatusActive
	}
	account.UpdatedAt = time.Now().UTC()

	if err := s.repo.Profile().Update(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	eventType := events.TopicAccountReactivated
	action := "reactivate"
	if suspended {
		eventType = events.TopicAccountSuspended
		action = "suspend"
	}
	s.publishEvent(ctx, eventType, account.ID, account.EmailOrEmpty(), nil)
	metrics.AccountMutationsTotal.WithLabelValues(action).Inc()
	return account, nil
}

// Delete removes the local projection row. The identity provider record is
// deliberately left in place: automating its removal would require elevated
// credentials scoped beyond this flow, so the operator is warned instead.
func (s *accountService) Delete(ctx context.Context, id string) (*DeleteAccountResponse, error) {
	if err := s.repo.Profile().Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	s.publishEvent(ctx, events.TopicAccountDeleted, id, "", nil)
	metrics.AccountMutationsTotal.WithLabelValues("delete").Inc()

	return &DeleteAccountResponse{
		Success:                 true,
		IdentityRemovalRequired: true,
		Message:                 "Profile removed. The identity provider record may need separate removal.",
	}, nil
}

// ===== EMAIL DISPATCH =====

// ResendInvite re-triggers the invitation email. Intended for accounts still
// in invited status but valid to call regardless; no stored field changes.
func (s *accountService) ResendInvite(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return validator.ValidationErrors{{Field: "email", Message: "is required", Rule: "required"}}
	}

	if err := s.repo.Identity().ResendInvite(ctx, email, s.inviteRedirectURL); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAccountNotFound
		}
		return NewProvisioningError(err)
	}

	s.publishEvent(ctx, events.TopicInviteResent, "", email, nil)
	metrics.AccountMutationsTotal.WithLabelValues("resend_invite").Inc()
	return nil
}

// SendPasswordReset dispatches a reset email. Valid for any account with a
// known email, regardless of status; no stored field changes.
func (s *accountService) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return validator.ValidationErrors{{Field: "email", Message: "is required", Rule: "required"}}
	}

	if err := s.repo.Identity().SendPasswordReset(ctx, email, s.inviteRedirectURL); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAccountNotFound
		}
		return NewProvisioningError(err)
	}

	s.publishEvent(ctx, events.TopicPasswordResetRequested, "", email, nil)
	metrics.AccountMutationsTotal.WithLabelValues("password_reset").Inc()
	return nil
}

// publishEvent publishes best-effort; a publish failure never fails the
// mutation that already committed.
func (s *accountService) publishEvent(ctx context.Context, eventType, accountID, email string, data map[string]any) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, &events.AccountEvent{
		Type:      eventType,
		AccountID: accountID,
		Email:     email,
		Data:      data,
	})
	if err != nil {
		s.logger.Warn("failed to publish account event", "type", eventType, "error", err)
	}
}
