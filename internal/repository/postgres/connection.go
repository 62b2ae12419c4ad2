package postgres

import (
	"github.com/trickspot/backend/internal/domain"
	"github.com/trickspot/backend/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs the schema auto-migration for all domain models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.UserSession{},
		&domain.Battle{},
		&domain.BattleParticipant{},
		&domain.BattleVideo{},
		&domain.BattleJudge{},
		&domain.Achievement{},
		&domain.UserAchievementProgress{},
		&domain.PointTransaction{},
		&domain.Notification{},
	)
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		Battle:       NewBattleRepository(db),
		Participant:  NewParticipantRepository(db),
		BattleVideo:  NewBattleVideoRepository(db),
		Judge:        NewJudgeRepository(db),
		Achievement:  NewAchievementRepository(db),
		Points:       NewPointsRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
