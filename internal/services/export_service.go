package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/curricula-hub/access-service/internal/models"
	"github.com/curricula-hub/access-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

const exportSheet = "Accounts"

var exportHeaders = []string{
	"Email", "Display name", "Role", "Status", "Subscription",
	"Can manage users", "Allowed year groups", "Created",
}

// ExportAccounts renders the full account roster as an .xlsx workbook.
func (s *exportService) ExportAccounts(ctx context.Context) ([]byte, error) {
	accounts, _, err := s.repo.Profile().List(ctx, repositories.AccountFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts for export: %w", err)
	}

	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	purchasesByUser, err := s.repo.Purchase().ListByUsers(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to load purchases for export", "error", err)
		purchasesByUser = nil
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create export sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write export header: %w", err)
		}
	}

	for row, account := range accounts {
		values := []any{
			account.EmailOrEmpty(),
			displayNameOrEmpty(account),
			string(account.Role),
			string(account.EffectiveStatus()),
			string(models.DeriveSubscriptionStatus(purchasesByUser[account.ID])),
			account.CanManageUsers,
			yearGroupsCell(account),
			account.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write export row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export: %w", err)
	}
	return buf.Bytes(), nil
}

func displayNameOrEmpty(a *models.Account) string {
	if a.DisplayName == nil {
		return ""
	}
	return *a.DisplayName
}

func yearGroupsCell(a *models.Account) string {
	if a.AllowedYearGroups == nil {
		return "all"
	}
	return strings.Join(a.AllowedYearGroups, ", ")
}
