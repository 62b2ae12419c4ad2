package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
	"gorm.io/gorm"
)

type pointsRepository struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) *pointsRepository {
	return &pointsRepository{db: db}
}

func (r *pointsRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.PointTransaction, error) {
	var transactions []*domain.PointTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}
