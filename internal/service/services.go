package service

import (
	"github.com/trickspot/backend/internal/config"
	"github.com/trickspot/backend/internal/repository"
	"gorm.io/gorm"
)

type Services struct {
	Auth         *AuthService
	Battle       *BattleService
	Submission   *SubmissionService
	Achievement  *AchievementService
	Scoring      *ScoringService
	Points       *PointsService
	Notification *NotificationService
}

func NewServices(db *gorm.DB, repos *repository.Repositories, events EventPublisher, cfg *config.Config) *Services {
	points := NewPointsService(db, repos.Points, repos.User)
	notifications := NewNotificationService(repos.Notification, events)
	achievements := NewAchievementService(db, repos.Achievement, points, notifications)
	scoring := NewScoringService(points, achievements, notifications)
	battles := NewBattleService(db, repos.Battle, repos.Participant, repos.BattleVideo, repos.Judge,
		points, scoring, notifications, events)
	submissions := NewSubmissionService(db, battles, repos.BattleVideo, repos.Judge, scoring, events)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.Session, cfg),
		Battle:       battles,
		Submission:   submissions,
		Achievement:  achievements,
		Scoring:      scoring,
		Points:       points,
		Notification: notifications,
	}
}
