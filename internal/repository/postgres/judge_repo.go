package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
	"gorm.io/gorm"
)

type judgeRepository struct {
	db *gorm.DB
}

func NewJudgeRepository(db *gorm.DB) *judgeRepository {
	return &judgeRepository{db: db}
}

func (r *judgeRepository) Add(ctx context.Context, judge *domain.BattleJudge) error {
	return r.db.WithContext(ctx).Create(judge).Error
}

func (r *judgeRepository) IsJudge(ctx context.Context, battleID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.BattleJudge{}).
		Where("battle_id = ? AND user_id = ?", battleID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *judgeRepository) ListByBattle(ctx context.Context, battleID uuid.UUID) ([]*domain.BattleJudge, error) {
	var judges []*domain.BattleJudge
	err := r.db.WithContext(ctx).
		Where("battle_id = ?", battleID).
		Find(&judges).Error
	if err != nil {
		return nil, err
	}
	return judges, nil
}
