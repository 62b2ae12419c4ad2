package domain

import (
	"time"

	"github.com/google/uuid"
)

// BattleVideo is a single turn submission. IsApproved is tri-state:
// nil means pending judgment, true/false is the judge's final decision.
// A decision is written exactly once.
type BattleVideo struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BattleID       uuid.UUID  `json:"battleId" gorm:"type:uuid;not null;index"`
	ParticipantID  uuid.UUID  `json:"participantId" gorm:"type:uuid;not null;index"`
	SequenceNumber int        `json:"sequenceNumber" gorm:"not null"`
	VideoURL       string     `json:"videoUrl" gorm:"not null"`
	Title          string     `json:"title"`
	IsApproved     *bool      `json:"isApproved"`
	ApprovedBy     *uuid.UUID `json:"approvedBy" gorm:"type:uuid"`
	ApprovedAt     *time.Time `json:"approvedAt"`
	CreatedAt      time.Time  `json:"createdAt"`

	// Relations
	Participant *BattleParticipant `json:"participant,omitempty" gorm:"foreignKey:ParticipantID"`
}

func (BattleVideo) TableName() string {
	return "battle_videos"
}

func (v *BattleVideo) IsPending() bool {
	return v.IsApproved == nil
}
