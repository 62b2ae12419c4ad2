package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
	"github.com/trickspot/backend/internal/repository"
	"gorm.io/gorm"
)

// PointsService is the point ledger. Every credit appends a transaction row
// and bumps the user balance in one database transaction.
type PointsService struct {
	db         *gorm.DB
	pointsRepo repository.PointsRepository
	userRepo   repository.UserRepository
}

func NewPointsService(db *gorm.DB, pointsRepo repository.PointsRepository, userRepo repository.UserRepository) *PointsService {
	return &PointsService{
		db:         db,
		pointsRepo: pointsRepo,
		userRepo:   userRepo,
	}
}

func (s *PointsService) CreditPoints(ctx context.Context, userID uuid.UUID, amount int, reason string) error {
	if amount == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := &domain.PointTransaction{
			ID:        uuid.New(),
			UserID:    userID,
			Amount:    amount,
			Reason:    reason,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		return tx.Model(&domain.User{}).
			Where("id = ?", userID).
			Update("points", gorm.Expr("points + ?", amount)).Error
	})
}

func (s *PointsService) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Points, nil
}

func (s *PointsService) GetTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.PointTransaction, error) {
	return s.pointsRepo.ListByUser(ctx, userID, limit, offset)
}
