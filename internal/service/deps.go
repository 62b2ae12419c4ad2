package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
)

// PointLedger credits points to a user's balance. State-machine transitions
// commit before the credit is attempted; a failed credit is logged and
// retried by the caller's boundary, never rolled into the transition.
type PointLedger interface {
	CreditPoints(ctx context.Context, userID uuid.UUID, amount int, reason string) error
}

// Notifier delivers a user-facing notification. Best effort: callers log
// failures and move on.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind domain.NotificationKind, payload map[string]interface{}) error
}

// EventPublisher pushes realtime events to connected clients after a battle
// transition has committed.
type EventPublisher interface {
	PublishBattleEvent(battleID uuid.UUID, eventType string, payload interface{})
	PushToUser(userID uuid.UUID, eventType string, payload interface{})
}

// Battle event types carried over the realtime channel.
const (
	EventBattleStarted   = "BATTLE_STARTED"
	EventTurnStarted     = "TURN_STARTED"
	EventVideoSubmitted  = "VIDEO_SUBMITTED"
	EventVideoJudged     = "VIDEO_JUDGED"
	EventLetterAdded     = "LETTER_ADDED"
	EventEliminated      = "PARTICIPANT_ELIMINATED"
	EventBattleCompleted = "BATTLE_COMPLETED"
	EventBattleCancelled = "BATTLE_CANCELLED"
	EventNotification    = "NOTIFICATION"
)
