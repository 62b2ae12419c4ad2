package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NotificationKind string

const (
	NotificationYourTurn          NotificationKind = "your_turn"
	NotificationLetterReceived    NotificationKind = "letter_received"
	NotificationEliminated        NotificationKind = "eliminated"
	NotificationBattleWon         NotificationKind = "battle_won"
	NotificationBattleCancelled   NotificationKind = "battle_cancelled"
	NotificationAchievementEarned NotificationKind = "achievement_earned"
	NotificationPointsCredited    NotificationKind = "points_credited"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID        `json:"userId" gorm:"type:uuid;not null;index"`
	Kind      NotificationKind `json:"kind" gorm:"type:varchar(40);not null"`
	Payload   datatypes.JSON   `json:"payload"`
	IsRead    bool             `json:"isRead" gorm:"not null;default:false"`
	CreatedAt time.Time        `json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
