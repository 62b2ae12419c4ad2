package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSession, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type BattleRepository interface {
	Create(ctx context.Context, battle *domain.Battle) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Battle, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Battle, error)
	List(ctx context.Context, statuses []domain.BattleStatus, limit, offset int) ([]*domain.Battle, error)
	ListOverdue(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// ParticipantRepository serves roster reads. Writes and turn-sensitive reads
// go through the battle row lock instead, never this interface.
type ParticipantRepository interface {
	ListByBattle(ctx context.Context, battleID uuid.UUID) ([]*domain.BattleParticipant, error)
}

type BattleVideoRepository interface {
	Create(ctx context.Context, video *domain.BattleVideo) error
	ListByBattle(ctx context.Context, battleID uuid.UUID) ([]*domain.BattleVideo, error)
}

type JudgeRepository interface {
	Add(ctx context.Context, judge *domain.BattleJudge) error
	IsJudge(ctx context.Context, battleID, userID uuid.UUID) (bool, error)
	ListByBattle(ctx context.Context, battleID uuid.UUID) ([]*domain.BattleJudge, error)
}

type AchievementRepository interface {
	Create(ctx context.Context, achievement *domain.Achievement) error
	ListActiveByCategory(ctx context.Context, category string) ([]*domain.Achievement, error)
	ListActive(ctx context.Context) ([]*domain.Achievement, error)
	ListProgress(ctx context.Context, userID uuid.UUID) ([]*domain.UserAchievementProgress, error)
}

type PointsRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.PointTransaction, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

type Repositories struct {
	User         UserRepository
	Session      SessionRepository
	Battle       BattleRepository
	Participant  ParticipantRepository
	BattleVideo  BattleVideoRepository
	Judge        JudgeRepository
	Achievement  AchievementRepository
	Points       PointsRepository
	Notification NotificationRepository
}
