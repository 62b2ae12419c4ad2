package domain

import (
	"time"

	"github.com/google/uuid"
)

type BattleStatus string

const (
	BattleStatusRegistration BattleStatus = "registration"
	BattleStatusActive       BattleStatus = "active"
	BattleStatusCompleted    BattleStatus = "completed"
	BattleStatusCancelled    BattleStatus = "cancelled"
)

// MinBattleParticipants is the minimum number of joined participants
// required before the organizer can start a battle.
const MinBattleParticipants = 2

// Battle is a turn-based elimination contest. Participants take turns
// extending the reference video; a judge approves or rejects each attempt.
// While status is active, CurrentParticipantID points at exactly one active
// participant and CurrentDeadline is the moment their turn runs out.
type Battle struct {
	ID                   uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title                string       `json:"title" gorm:"not null"`
	Description          string       `json:"description"`
	ShareSlug            string       `json:"shareSlug" gorm:"uniqueIndex;not null"`
	ReferenceVideoURL    string       `json:"referenceVideoUrl" gorm:"not null"`
	ReferenceVideoTitle  string       `json:"referenceVideoTitle"`
	OrganizerID          uuid.UUID    `json:"organizerId" gorm:"type:uuid;not null"`
	Status               BattleStatus `json:"status" gorm:"type:varchar(20);not null;default:'registration'"`
	StartTime            *time.Time   `json:"startTime"`
	TimeLimitMinutes     int          `json:"timeLimitMinutes" gorm:"not null;default:60"`
	PrizePoints          int          `json:"prizePoints" gorm:"not null;default:0"`
	CurrentParticipantID *uuid.UUID   `json:"currentParticipantId" gorm:"type:uuid"`
	CurrentDeadline      *time.Time   `json:"currentDeadline"`
	CurrentVideoSequence int          `json:"currentVideoSequence" gorm:"not null;default:1"`
	WinnerID             *uuid.UUID   `json:"winnerId" gorm:"type:uuid"`
	CreatedAt            time.Time    `json:"createdAt"`
	StartedAt            *time.Time   `json:"startedAt"`
	CompletedAt          *time.Time   `json:"completedAt"`

	// Relations
	Organizer    *User               `json:"organizer,omitempty" gorm:"foreignKey:OrganizerID"`
	Winner       *User               `json:"winner,omitempty" gorm:"foreignKey:WinnerID"`
	Participants []BattleParticipant `json:"participants,omitempty" gorm:"foreignKey:BattleID"`
}

func (Battle) TableName() string {
	return "battles"
}

// TurnDuration returns the per-turn time limit.
func (b *Battle) TurnDuration() time.Duration {
	return time.Duration(b.TimeLimitMinutes) * time.Minute
}

// DeadlinePassed reports whether the current turn deadline is behind now.
func (b *Battle) DeadlinePassed(now time.Time) bool {
	return b.CurrentDeadline != nil && !now.Before(*b.CurrentDeadline)
}

// BattleJudge is a roster entry authorizing a user to judge submissions in a
// battle. The organizer is always an implicit judge.
type BattleJudge struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BattleID uuid.UUID `json:"battleId" gorm:"type:uuid;not null;index;uniqueIndex:idx_battle_judge"`
	UserID   uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_battle_judge"`
	AddedAt  time.Time `json:"addedAt"`
}

func (BattleJudge) TableName() string {
	return "battle_judges"
}
