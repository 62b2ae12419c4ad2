package domain

import (
	"time"

	"github.com/google/uuid"
)

// Point credit reasons recorded on ledger entries.
const (
	PointReasonBattlePrize = "battle_prize"
	PointReasonAchievement = "achievement_reward"
	PointReasonVideoLiked  = "video_liked"
	PointReasonVideoViewed = "video_viewed"
	PointReasonComment     = "comment_posted"
	PointReasonDailyWinner = "daily_winner"
)

// PointTransaction is an append-only ledger entry. The user's Points balance
// is updated in the same database transaction that inserts the entry.
type PointTransaction struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Amount    int       `json:"amount" gorm:"not null"`
	Reason    string    `json:"reason" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}

func (PointTransaction) TableName() string {
	return "point_transactions"
}
