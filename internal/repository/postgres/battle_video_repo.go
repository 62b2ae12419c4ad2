package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
	"gorm.io/gorm"
)

type battleVideoRepository struct {
	db *gorm.DB
}

func NewBattleVideoRepository(db *gorm.DB) *battleVideoRepository {
	return &battleVideoRepository{db: db}
}

func (r *battleVideoRepository) Create(ctx context.Context, video *domain.BattleVideo) error {
	return r.db.WithContext(ctx).Create(video).Error
}

func (r *battleVideoRepository) ListByBattle(ctx context.Context, battleID uuid.UUID) ([]*domain.BattleVideo, error) {
	var videos []*domain.BattleVideo
	err := r.db.WithContext(ctx).
		Preload("Participant").
		Preload("Participant.User").
		Where("battle_id = ?", battleID).
		Order("created_at ASC").
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}
