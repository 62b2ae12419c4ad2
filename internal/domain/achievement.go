package domain

import (
	"time"

	"github.com/google/uuid"
)

// Achievement categories group tiered achievements over the same metric.
const (
	CategoryLikesReceived  = "likes_received"
	CategoryViewsReceived  = "views_received"
	CategoryVideosUploaded = "videos_uploaded"
	CategoryCommentsPosted = "comments_posted"
	CategoryWins           = "wins"
	CategoryLikeStreak     = "like_streak"
	CategoryFirstVideo     = "first_video"
	CategoryFirstComment   = "first_comment"
	CategorySocialLike     = "social_like"
)

type Achievement struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name         string    `json:"name" gorm:"uniqueIndex;not null"`
	Description  string    `json:"description"`
	Category     string    `json:"category" gorm:"not null;index"`
	TargetValue  int       `json:"targetValue" gorm:"not null;default:1"`
	RewardPoints int       `json:"rewardPoints" gorm:"not null;default:0"`
	IsActive     bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// UserAchievementProgress tracks one user against one achievement.
// CurrentProgress never decreases and IsCompleted flips exactly once.
type UserAchievementProgress struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID          uuid.UUID  `json:"userId" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_achievement"`
	AchievementID   uuid.UUID  `json:"achievementId" gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement"`
	CurrentProgress int        `json:"currentProgress" gorm:"not null;default:0"`
	IsCompleted     bool       `json:"isCompleted" gorm:"not null;default:false"`
	CompletedAt     *time.Time `json:"completedAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	// Relations
	Achievement *Achievement `json:"achievement,omitempty" gorm:"foreignKey:AchievementID"`
}

func (UserAchievementProgress) TableName() string {
	return "user_achievement_progress"
}
