package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trickspot/backend/internal/domain"
)

func TestBattleParticipant_AddLetter(t *testing.T) {
	p := &domain.BattleParticipant{Status: domain.ParticipantStatusActive}

	assert.Equal(t, "F", p.NextLetter())

	assert.False(t, p.AddLetter())
	assert.Equal(t, "F", p.FullLetters)
	assert.Equal(t, domain.ParticipantStatusActive, p.Status)

	assert.False(t, p.AddLetter())
	assert.False(t, p.AddLetter())
	assert.Equal(t, "FUL", p.FullLetters)
	assert.Equal(t, "L", p.NextLetter())

	// Fourth letter completes the word and eliminates
	assert.True(t, p.AddLetter())
	assert.Equal(t, "FULL", p.FullLetters)
	assert.Equal(t, domain.ParticipantStatusEliminated, p.Status)
	assert.True(t, p.IsEliminated())

	// Further letters are no-ops
	assert.Equal(t, "", p.NextLetter())
	assert.True(t, p.AddLetter())
	assert.Equal(t, "FULL", p.FullLetters)
}
