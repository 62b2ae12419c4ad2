package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
	"gorm.io/gorm"
)

type battleRepository struct {
	db *gorm.DB
}

func NewBattleRepository(db *gorm.DB) *battleRepository {
	return &battleRepository{db: db}
}

func (r *battleRepository) Create(ctx context.Context, battle *domain.Battle) error {
	return r.db.WithContext(ctx).Create(battle).Error
}

func (r *battleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Battle, error) {
	var battle domain.Battle
	err := r.db.WithContext(ctx).
		Preload("Organizer").
		Preload("Winner").
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("join_order ASC")
		}).
		Preload("Participants.User").
		First(&battle, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &battle, nil
}

func (r *battleRepository) GetBySlug(ctx context.Context, slug string) (*domain.Battle, error) {
	var battle domain.Battle
	err := r.db.WithContext(ctx).
		Preload("Organizer").
		Preload("Winner").
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("join_order ASC")
		}).
		Preload("Participants.User").
		First(&battle, "share_slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &battle, nil
}

func (r *battleRepository) List(ctx context.Context, statuses []domain.BattleStatus, limit, offset int) ([]*domain.Battle, error) {
	var battles []*domain.Battle
	q := r.db.WithContext(ctx).Preload("Organizer")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&battles).Error
	if err != nil {
		return nil, err
	}
	return battles, nil
}

// ListOverdue returns IDs of active battles whose turn deadline has passed.
// Used by the expiry worker; the expiry handler itself re-checks under lock.
func (r *battleRepository) ListOverdue(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.Battle{}).
		Where("status = ? AND current_deadline IS NOT NULL AND current_deadline <= ?",
			domain.BattleStatusActive, time.Now()).
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
