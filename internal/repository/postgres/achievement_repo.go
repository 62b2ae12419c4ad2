package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
	"gorm.io/gorm"
)

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *achievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) Create(ctx context.Context, achievement *domain.Achievement) error {
	return r.db.WithContext(ctx).Create(achievement).Error
}

func (r *achievementRepository) ListActiveByCategory(ctx context.Context, category string) ([]*domain.Achievement, error) {
	var achievements []*domain.Achievement
	err := r.db.WithContext(ctx).
		Where("category = ? AND is_active = true", category).
		Order("target_value ASC").
		Find(&achievements).Error
	if err != nil {
		return nil, err
	}
	return achievements, nil
}

func (r *achievementRepository) ListActive(ctx context.Context) ([]*domain.Achievement, error) {
	var achievements []*domain.Achievement
	err := r.db.WithContext(ctx).
		Where("is_active = true").
		Order("category ASC, target_value ASC").
		Find(&achievements).Error
	if err != nil {
		return nil, err
	}
	return achievements, nil
}

func (r *achievementRepository) ListProgress(ctx context.Context, userID uuid.UUID) ([]*domain.UserAchievementProgress, error) {
	var progress []*domain.UserAchievementProgress
	err := r.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Find(&progress).Error
	if err != nil {
		return nil, err
	}
	return progress, nil
}
