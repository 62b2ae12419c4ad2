package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
	"gorm.io/gorm"
)

type participantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *participantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) ListByBattle(ctx context.Context, battleID uuid.UUID) ([]*domain.BattleParticipant, error) {
	var participants []*domain.BattleParticipant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("battle_id = ?", battleID).
		Order("join_order ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}
