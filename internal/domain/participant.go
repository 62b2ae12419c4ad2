package domain

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantStatus string

const (
	ParticipantStatusActive     ParticipantStatus = "active"
	ParticipantStatusEliminated ParticipantStatus = "eliminated"
)

// EliminationWord is spelled out letter by letter on rejected submissions.
// Completing the word eliminates the participant.
const EliminationWord = "FULL"

// BattleParticipant is one user's entry in a battle. JoinOrder fixes the
// turn rotation: participants take turns in the order they joined.
type BattleParticipant struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BattleID    uuid.UUID         `json:"battleId" gorm:"type:uuid;not null;index;uniqueIndex:idx_battle_user"`
	UserID      uuid.UUID         `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_battle_user"`
	Status      ParticipantStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	FullLetters string            `json:"fullLetters" gorm:"type:varchar(10);not null;default:''"`
	JoinOrder   int               `json:"joinOrder" gorm:"not null;default:0"`
	JoinedAt    time.Time         `json:"joinedAt"`

	// Relations
	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Battle *Battle `json:"-" gorm:"foreignKey:BattleID"`
}

func (BattleParticipant) TableName() string {
	return "battle_participants"
}

// NextLetter returns the letter the participant would receive on their next
// rejection, or empty string if the word is already complete.
func (p *BattleParticipant) NextLetter() string {
	if len(p.FullLetters) >= len(EliminationWord) {
		return ""
	}
	return string(EliminationWord[len(p.FullLetters)])
}

// AddLetter appends the next elimination letter and flips the participant to
// eliminated once the word is complete. Returns true on elimination.
func (p *BattleParticipant) AddLetter() bool {
	if next := p.NextLetter(); next != "" {
		p.FullLetters += next
	}
	if len(p.FullLetters) >= len(EliminationWord) {
		p.Status = ParticipantStatusEliminated
		return true
	}
	return false
}

func (p *BattleParticipant) IsEliminated() bool {
	return p.Status == ParticipantStatusEliminated
}
