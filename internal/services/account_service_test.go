package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/curricula-hub/access-service/internal/events"
	"github.com/curricula-hub/access-service/internal/models"
	"github.com/curricula-hub/access-service/internal/repositories"
	"github.com/curricula-hub/access-service/internal/validator"
)

// ===== MOCKS =====

type mockProfileRepo struct {
	accounts map[string]*models.Account

	upsertErr  error
	upsertSeen []*models.Account
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{accounts: make(map[string]*models.Account)}
}

func (m *mockProfileRepo) Upsert(_ context.Context, account *models.Account) error {
	m.upsertSeen = append(m.upsertSeen, account)
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (m *mockProfileRepo) List(_ context.Context, _ repositories.AccountFilters) ([]*models.Account, int64, error) {
	out := make([]*models.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (m *mockProfileRepo) Update(_ context.Context, account *models.Account) error {
	if _, ok := m.accounts[account.ID]; !ok {
		return repositories.ErrNotFound
	}
	copied := *account
	m.accounts[account.ID] = &copied
	return nil
}

func (m *mockProfileRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.accounts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

type mockPurchaseRepo struct {
	purchases map[string][]*models.Purchase
	err       error
}

func (m *mockPurchaseRepo) ListByUser(_ context.Context, userID string) ([]*models.Purchase, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.purchases[userID], nil
}

func (m *mockPurchaseRepo) ListByUsers(_ context.Context, userIDs []string) (map[string][]*models.Purchase, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string][]*models.Purchase)
	for _, id := range userIDs {
		if ps, ok := m.purchases[id]; ok {
			out[id] = ps
		}
	}
	return out, nil
}

type mockIdentityRepo struct {
	providerErr error
	existsErr   error

	createCalls int
	inviteCalls int
	resendCalls int
	resetCalls  int

	knownEmails map[string]bool
}

func (m *mockIdentityRepo) CreateWithPassword(_ context.Context, email, _, displayName string, _ models.AccountRole) (*repositories.IdentityRecord, error) {
	m.createCalls++
	if m.providerErr != nil {
		return nil, m.providerErr
	}
	return &repositories.IdentityRecord{ID: "id-" + email, Email: email, DisplayName: displayName}, nil
}

func (m *mockIdentityRepo) Invite(_ context.Context, email, displayName string, _ models.AccountRole, _ string) (*repositories.IdentityRecord, error) {
	m.inviteCalls++
	if m.providerErr != nil {
		return nil, m.providerErr
	}
	return &repositories.IdentityRecord{ID: "id-" + email, Email: email, DisplayName: displayName}, nil
}

func (m *mockIdentityRepo) ResendInvite(_ context.Context, email, _ string) error {
	m.resendCalls++
	if m.knownEmails != nil && !m.knownEmails[email] {
		return repositories.ErrNotFound
	}
	return m.providerErr
}

func (m *mockIdentityRepo) SendPasswordReset(_ context.Context, email, _ string) error {
	m.resetCalls++
	if m.knownEmails != nil && !m.knownEmails[email] {
		return repositories.ErrNotFound
	}
	return m.providerErr
}

func (m *mockIdentityRepo) GetByEmail(_ context.Context, email string) (*repositories.IdentityRecord, error) {
	if m.knownEmails != nil && m.knownEmails[email] {
		return &repositories.IdentityRecord{ID: "id-" + email, Email: email}, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockIdentityRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.knownEmails != nil && m.knownEmails[email], nil
}

type mockRepository struct {
	profile  *mockProfileRepo
	purchase *mockPurchaseRepo
	identity *mockIdentityRepo
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		profile:  newMockProfileRepo(),
		purchase: &mockPurchaseRepo{purchases: make(map[string][]*models.Purchase)},
		identity: &mockIdentityRepo{},
	}
}

func (m *mockRepository) Profile() repositories.ProfileRepository   { return m.profile }
func (m *mockRepository) Purchase() repositories.PurchaseRepository { return m.purchase }
func (m *mockRepository) Identity() repositories.IdentityRepository { return m.identity }
func (m *mockRepository) Ping(_ context.Context) error              { return nil }
func (m *mockRepository) Close() error                              { return nil }

func newTestAccountService(repo *mockRepository) (AccountService, *events.MockEventPublisher) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewMockEventPublisher(logger)
	svc := NewAccountService(repo, logger, validator.New(), publisher, "https://app.example.test/set-password")
	return svc, publisher
}

func seedAccount(repo *mockRepository, id, email string, role models.AccountRole, status models.AccountStatus) {
	e := email
	repo.profile.accounts[id] = &models.Account{ID: id, Email: &e, Role: role, Status: status}
}

// ===== PROVISIONING =====

func TestAccountService_Create_PasswordPath(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newTestAccountService(repo)

	resp, err := svc.Create(context.Background(), &CreateAccountRequest{
		Email:    "new@school.test",
		Password: "secret99",
		Role:     "teacher",
		Status:   "active",
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if resp.Invited {
		t.Fatalf("password path must not report invited")
	}
	if repo.identity.createCalls != 1 || repo.identity.inviteCalls != 0 {
		t.Fatalf("expected one password creation, got create=%d invite=%d",
			repo.identity.createCalls, repo.identity.inviteCalls)
	}
	if resp.User.Role != models.RoleTeacher {
		t.Fatalf("expected teacher role, got %q", resp.User.Role)
	}

	// Projection row written with the provider-assigned id.
	stored, ok := repo.profile.accounts[resp.User.ID]
	if !ok {
		t.Fatalf("profile projection not written")
	}
	if stored.Status != models.StatusActive {
		t.Fatalf("expected active status, got %q", stored.Status)
	}

	evts := publisher.GetPublishedEvents()
	if len(evts) != 1 || evts[0].Type != events.TopicAccountCreated {
		t.Fatalf("expected one %s event, got %+v", events.TopicAccountCreated, evts)
	}
}

func TestAccountService_Create_InvitePath(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newTestAccountService(repo)

	resp, err := svc.Create(context.Background(), &CreateAccountRequest{
		Email:  "invitee@school.test",
		Status: "invited",
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if !resp.Invited {
		t.Fatalf("no password plus invited status must take the invite path")
	}
	if repo.identity.inviteCalls != 1 || repo.identity.createCalls != 0 {
		t.Fatalf("expected one invite, got create=%d invite=%d",
			repo.identity.createCalls, repo.identity.inviteCalls)
	}

	evts := publisher.GetPublishedEvents()
	if len(evts) != 1 || evts[0].Type != events.TopicAccountInvited {
		t.Fatalf("expected one %s event, got %+v", events.TopicAccountInvited, evts)
	}
}

func TestAccountService_Create_ExplicitInviteOverridesPassword(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAccountService(repo)

	sendInvite := true
	resp, err := svc.Create(context.Background(), &CreateAccountRequest{
		Email:           "both@school.test",
		Password:        "secret99",
		Status:          "active",
		SendInviteEmail: &sendInvite,
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if !resp.Invited || repo.identity.inviteCalls != 1 {
		t.Fatalf("explicit send_invite_email must win over the supplied password")
	}
}

func TestAccountService_Create_EmptyEmail(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAccountService(repo)

	_, err := svc.Create(context.Background(), &CreateAccountRequest{Email: "   "})

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if repo.identity.createCalls != 0 || repo.identity.inviteCalls != 0 {
		t.Fatalf("validation must fail before any provider call")
	}
}

func TestAccountService_Create_ShortPassword(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAccountService(repo)

	_, err := svc.Create(context.Background(), &CreateAccountRequest{
		Email:    "short@school.test",
		Password: "abc",
	})

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors for short password, got %v", err)
	}
	if repo.identity.createCalls != 0 || repo.identity.inviteCalls != 0 {
		t.Fatalf("short password must not reach the provider")
	}
}

func TestAccountService_Create_ProviderRejection(t *testing.T) {
	repo := newMockRepository()
	repo.identity.providerErr = fmt.Errorf("email already registered")
	svc, publisher := newTestAccountService(repo)

	_, err := svc.Create(context.Background(), &CreateAccountRequest{
		Email:    "dup@school.test",
		Password: "secret99",
		Status:   "active",
	})

	var provErr *ProvisioningError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProvisioningError, got %v", err)
	}
	// Provider message must survive verbatim.
	if provErr.Message != "email already registered" {
		t.Fatalf("provider message altered: %q", provErr.Message)
	}
	if len(publisher.GetPublishedEvents()) != 0 {
		t.Fatalf("no event on a failed provisioning")
	}
}

func TestAccountService_Create_DuplicateEmailPreCheck(t *testing.T) {
	repo := newMockRepository()
	repo.identity.knownEmails = map[string]bool{"taken@school.test": true}
	svc, publisher := newTestAccountService(repo)

	_, err := svc.Create(context.Background(), &CreateAccountRequest{
		Email:    "taken@school.test",
		Password: "secret99",
		Status:   "active",
	})

	var provErr *ProvisioningError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProvisioningError for duplicate email, got %v", err)
	}
	if repo.identity.createCalls != 0 || repo.identity.inviteCalls != 0 {
		t.Fatalf("duplicate pre-check must stop before the provider, got create=%d invite=%d",
			repo.identity.createCalls, repo.identity.inviteCalls)
	}
	if len(publisher.GetPublishedEvents()) != 0 {
		t.Fatalf("no event on a rejected provisioning")
	}
}

func TestAccountService_Create_PreCheckFailureFallsThrough(t *testing.T) {
	repo := newMockRepository()
	repo.identity.existsErr = fmt.Errorf("provider timeout")
	svc, _ := newTestAccountService(repo)

	// The pre-check is advisory; its failure must not block provisioning.
	resp, err := svc.Create(context.Background(), &CreateAccountRequest{
		Email:    "flaky-check@school.test",
		Password: "secret99",
		Status:   "active",
	})
	if err != nil {
		t.Fatalf("pre-check failure must fall through to the provider: %v", err)
	}
	if !resp.Success || repo.identity.createCalls != 1 {
		t.Fatalf("expected provisioning to proceed, got create=%d", repo.identity.createCalls)
	}
}

func TestAccountService_Create_UpsertFailureIsNotFatal(t *testing.T) {
	repo := newMockRepository()
	repo.profile.upsertErr = fmt.Errorf("connection reset")
	svc, _ := newTestAccountService(repo)

	resp, err := svc.Create(context.Background(), &CreateAccountRequest{
		Email:    "flaky@school.test",
		Password: "secret99",
		Status:   "active",
	})
	if err != nil {
		t.Fatalf("projection failure must not fail provisioning: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success despite upsert failure")
	}
	if len(repo.profile.upsertSeen) != 1 {
		t.Fatalf("upsert should have been attempted once")
	}
}

func TestAccountService_Create_UnknownRoleFallsBack(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAccountService(repo)

	resp, err := svc.Create(context.Background(), &CreateAccountRequest{
		Email:    "odd@school.test",
		Password: "secret99",
		Role:     "grandmaster",
		Status:   "active",
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if resp.User.Role != models.RoleViewer {
		t.Fatalf("unknown role must fall back to viewer, got %q", resp.User.Role)
	}
}

// ===== STATE MACHINE =====

func TestAccountService_SetSuspended_RoundTrip(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newTestAccountService(repo)
	seedAccount(repo, "u1", "t@school.test", models.RoleTeacher, models.StatusInvited)

	suspended, err := svc.SetSuspended(context.Background(), "u1", true)
	if err != nil {
		t.Fatalf("suspend error: %v", err)
	}
	if suspended.Status != models.StatusSuspended {
		t.Fatalf("expected suspended, got %q", suspended.Status)
	}

	// Reactivation always lands on active, even though the account was
	// invited before suspension.
	reactivated, err := svc.SetSuspended(context.Background(), "u1", false)
	if err != nil {
		t.Fatalf("reactivate error: %v", err)
	}
	if reactivated.Status != models.StatusActive {
		t.Fatalf("expected active after reactivation, got %q", reactivated.Status)
	}

	evts := publisher.GetPublishedEvents()
	if len(evts) != 2 ||
		evts[0].Type != events.TopicAccountSuspended ||
		evts[1].Type != events.TopicAccountReactivated {
		t.Fatalf("unexpected event sequence: %+v", evts)
	}
}

func TestAccountService_SetSuspended_Idempotent(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAccountService(repo)
	seedAccount(repo, "u1", "t@school.test", models.RoleTeacher, models.StatusSuspended)

	account, err := svc.SetSuspended(context.Background(), "u1", true)
	if err != nil {
		t.Fatalf("suspending a suspended account must succeed: %v", err)
	}
	if account.Status != models.StatusSuspended {
		t.Fatalf("expected suspended, got %q", account.Status)
	}
}

func TestAccountService_SetSuspended_NotFound(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAccountService(repo)

	if _, err := svc.SetSuspended(context.Background(), "ghost", true); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

// ===== EMAIL DISPATCH =====

func TestAccountService_ResendInvite(t *testing.T) {
	repo := newMockRepository()
	repo.identity.knownEmails = map[string]bool{"invitee@school.test": true}
	svc, publisher := newTestAccountService(repo)
	seedAccount(repo, "u1", "invitee@school.test", models.RoleTeacher, models.StatusInvited)

	if err := svc.ResendInvite(context.Background(), "invitee@school.test"); err != nil {
		t.Fatalf("ResendInvite() error: %v", err)
	}

	// No stored field changes.
	stored := repo.profile.accounts["u1"]
	if stored.Status != models.StatusInvited {
		t.Fatalf("resend must not mutate status, got %q", stored.Status)
	}

	evts := publisher.GetPublishedEvents()
	if len(evts) != 1 || evts[0].Type != events.TopicInviteResent {
		t.Fatalf("expected one %s event, got %+v", events.TopicInviteResent, evts)
	}
}

func TestAccountService_ResendInvite_UnknownEmail(t *testing.T) {
	repo := newMockRepository()
	repo.identity.knownEmails = map[string]bool{}
	svc, _ := newTestAccountService(repo)

	if err := svc.ResendInvite(context.Background(), "nobody@school.test"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_SendPasswordReset(t *testing.T) {
	repo := newMockRepository()
	repo.identity.knownEmails = map[string]bool{"active@school.test": true}
	svc, _ := newTestAccountService(repo)
	seedAccount(repo, "u1", "active@school.test", models.RoleTeacher, models.StatusActive)

	if err := svc.SendPasswordReset(context.Background(), "active@school.test"); err != nil {
		t.Fatalf("SendPasswordReset() error: %v", err)
	}
	if repo.identity.resetCalls != 1 {
		t.Fatalf("expected one reset dispatch, got %d", repo.identity.resetCalls)
	}
	if repo.profile.accounts["u1"].Status != models.StatusActive {
		t.Fatalf("reset must not mutate status")
	}
}

func TestAccountService_SendPasswordReset_EmptyEmail(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAccountService(repo)

	err := svc.SendPasswordReset(context.Background(), "")
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if repo.identity.resetCalls != 0 {
		t.Fatalf("empty email must not reach the provider")
	}
}

// ===== READS / MUTATIONS =====

func TestAccountService_GetByID_SubscriptionStatus(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAccountService(repo)
	seedAccount(repo, "u1", "t@school.test", models.RoleTeacher, models.StatusActive)
	repo.purchase.purchases["u1"] = []*models.Purchase{{UserID: "u1", Status: "active"}}

	resp, err := svc.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if resp.SubscriptionStatus != models.SubscriptionActive {
		t.Fatalf("expected Active subscription, got %q", resp.SubscriptionStatus)
	}
}

func TestAccountService_GetByID_PurchaseFailureDegrades(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAccountService(repo)
	seedAccount(repo, "u1", "t@school.test", models.RoleTeacher, models.StatusActive)
	repo.purchase.err = fmt.Errorf("table missing")

	resp, err := svc.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("purchase failure must not fail the read: %v", err)
	}
	if resp.SubscriptionStatus != models.SubscriptionNone {
		t.Fatalf("expected None on degraded read, got %q", resp.SubscriptionStatus)
	}
}

func TestAccountService_Update_RejectsUnknownRole(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAccountService(repo)
	seedAccount(repo, "u1", "t@school.test", models.RoleTeacher, models.StatusActive)

	badRole := "warlock"
	_, err := svc.Update(context.Background(), "u1", &UpdateAccountRequest{Role: &badRole})

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors for unknown role, got %v", err)
	}
	if repo.profile.accounts["u1"].Role != models.RoleTeacher {
		t.Fatalf("failed update must not mutate the account")
	}
}

func TestAccountService_Update_AppliesPartialFields(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAccountService(repo)
	seedAccount(repo, "u1", "t@school.test", models.RoleTeacher, models.StatusActive)

	newRole := "admin"
	manage := true
	account, err := svc.Update(context.Background(), "u1", &UpdateAccountRequest{
		Role:           &newRole,
		CanManageUsers: &manage,
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if account.Role != models.RoleAdmin || !account.CanManageUsers {
		t.Fatalf("partial update not applied: %+v", account)
	}
	if account.Status != models.StatusActive {
		t.Fatalf("untouched field changed: %q", account.Status)
	}
}

func TestAccountService_Delete(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newTestAccountService(repo)
	seedAccount(repo, "u1", "t@school.test", models.RoleTeacher, models.StatusActive)

	resp, err := svc.Delete(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if !resp.IdentityRemovalRequired {
		t.Fatalf("delete must warn about the identity provider record")
	}
	if _, ok := repo.profile.accounts["u1"]; ok {
		t.Fatalf("projection row not removed")
	}

	evts := publisher.GetPublishedEvents()
	if len(evts) != 1 || evts[0].Type != events.TopicAccountDeleted {
		t.Fatalf("expected one %s event, got %+v", events.TopicAccountDeleted, evts)
	}
}

func TestAccountService_Delete_NotFound(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAccountService(repo)

	if _, err := svc.Delete(context.Background(), "ghost"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
