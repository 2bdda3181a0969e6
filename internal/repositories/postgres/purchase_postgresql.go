package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/curricula-hub/access-service/internal/models"
	"github.com/curricula-hub/access-service/internal/repositories"
)

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) repositories.PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) ListByUser(ctx context.Context, userID string) ([]*models.Purchase, error) {
	var purchases []*models.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchased_at DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

func (r *purchaseRepository) ListByUsers(ctx context.Context, userIDs []string) (map[string][]*models.Purchase, error) {
	result := make(map[string][]*models.Purchase, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var purchases []*models.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("purchased_at DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases by users: %w", err)
	}

	for _, p := range purchases {
		result[p.UserID] = append(result[p.UserID], p)
	}
	return result, nil
}
