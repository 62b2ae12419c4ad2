package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
	"github.com/trickspot/backend/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressUpdate describes how a category metric changed. Exactly one mode
// applies: NewValue sets progress to max(current, NewValue) — the caller
// passes the recomputed total so replays are harmless — while Increment adds
// atomically.
type ProgressUpdate struct {
	NewValue  *int
	Increment int
}

// AchievementService evaluates every active achievement of a category
// against a user's progress. Progress is monotonic and completion flips
// exactly once; the reward is credited only on that flip.
type AchievementService struct {
	db              *gorm.DB
	achievementRepo repository.AchievementRepository
	ledger          PointLedger
	notifier        Notifier
}

func NewAchievementService(db *gorm.DB, achievementRepo repository.AchievementRepository, ledger PointLedger, notifier Notifier) *AchievementService {
	return &AchievementService{
		db:              db,
		achievementRepo: achievementRepo,
		ledger:          ledger,
		notifier:        notifier,
	}
}

// UpdateProgress applies the update to every active achievement in the
// category and returns the ones newly completed by it.
func (s *AchievementService) UpdateProgress(ctx context.Context, userID uuid.UUID, category string, update ProgressUpdate) ([]*domain.Achievement, error) {
	achievements, err := s.achievementRepo.ListActiveByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	var completed []*domain.Achievement
	for _, achievement := range achievements {
		newlyCompleted, err := s.applyUpdate(ctx, userID, achievement, update)
		if err != nil {
			return completed, err
		}
		if newlyCompleted {
			completed = append(completed, achievement)
		}
	}

	for _, achievement := range completed {
		s.reward(ctx, userID, achievement)
	}

	return completed, nil
}

// GrantCategoryAchievement completes every one-shot achievement in the
// category. Safe to call repeatedly: already-completed achievements are
// untouched and never re-award.
func (s *AchievementService) GrantCategoryAchievement(ctx context.Context, userID uuid.UUID, category string) error {
	achievements, err := s.achievementRepo.ListActiveByCategory(ctx, category)
	if err != nil {
		return err
	}

	for _, achievement := range achievements {
		target := achievement.TargetValue
		newlyCompleted, err := s.applyUpdate(ctx, userID, achievement, ProgressUpdate{NewValue: &target})
		if err != nil {
			return err
		}
		if newlyCompleted {
			s.reward(ctx, userID, achievement)
		}
	}
	return nil
}

// applyUpdate mutates one progress row atomically and reports whether the
// achievement was completed by this call.
func (s *AchievementService) applyUpdate(ctx context.Context, userID uuid.UUID, achievement *domain.Achievement, update ProgressUpdate) (bool, error) {
	newlyCompleted := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ensure the row exists; concurrent first events race on the unique
		// (user, achievement) index, so conflicts are ignored.
		row := &domain.UserAchievementProgress{
			ID:            uuid.New(),
			UserID:        userID,
			AchievementID: achievement.ID,
			UpdatedAt:     time.Now(),
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
			return err
		}

		q := tx.Model(&domain.UserAchievementProgress{}).
			Where("user_id = ? AND achievement_id = ?", userID, achievement.ID)

		var progressExpr interface{}
		if update.NewValue != nil {
			progressExpr = gorm.Expr("GREATEST(current_progress, ?)", *update.NewValue)
		} else {
			progressExpr = gorm.Expr("current_progress + ?", update.Increment)
		}
		if err := q.Updates(map[string]interface{}{
			"current_progress": progressExpr,
			"updated_at":       time.Now(),
		}).Error; err != nil {
			return err
		}

		// Completion flips at most once: the guard on is_completed makes a
		// replayed or concurrent update a no-op.
		res := tx.Model(&domain.UserAchievementProgress{}).
			Where("user_id = ? AND achievement_id = ? AND is_completed = false AND current_progress >= ?",
				userID, achievement.ID, achievement.TargetValue).
			Updates(map[string]interface{}{
				"is_completed": true,
				"completed_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		newlyCompleted = res.RowsAffected > 0
		return nil
	})

	return newlyCompleted, err
}

// reward runs after the progress transaction committed. Ledger or
// notification failures must not undo the completion.
func (s *AchievementService) reward(ctx context.Context, userID uuid.UUID, achievement *domain.Achievement) {
	if achievement.RewardPoints > 0 {
		if err := s.ledger.CreditPoints(ctx, userID, achievement.RewardPoints, domain.PointReasonAchievement); err != nil {
			log.Printf("ERROR [AchievementService] failed to credit reward for %s: %v", achievement.Name, err)
		}
	}

	if s.notifier != nil {
		err := s.notifier.Notify(ctx, userID, domain.NotificationAchievementEarned, map[string]interface{}{
			"achievementId": achievement.ID.String(),
			"name":          achievement.Name,
			"rewardPoints":  achievement.RewardPoints,
		})
		if err != nil {
			log.Printf("ERROR [AchievementService] failed to notify achievement %s: %v", achievement.Name, err)
		}
	}
}

func (s *AchievementService) ListAchievements(ctx context.Context) ([]*domain.Achievement, error) {
	return s.achievementRepo.ListActive(ctx)
}

func (s *AchievementService) ListProgress(ctx context.Context, userID uuid.UUID) ([]*domain.UserAchievementProgress, error) {
	return s.achievementRepo.ListProgress(ctx, userID)
}
