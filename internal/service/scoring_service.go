package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
)

// Engagement event kinds accepted from the feed service.
const (
	EventKindVideoLiked    = "video_liked"
	EventKindVideoViewed   = "video_viewed"
	EventKindCommentPosted = "comment_posted"
	EventKindDailyWinner   = "daily_winner"
)

var ErrUnknownEventKind = errors.New("unknown engagement event kind")

// EngagementEvent is a scored domain event. NewTotal carries the
// recomputed source-of-truth metric after the event (not a delta), so
// redelivery cannot inflate achievement progress. StreakLength, when set on a
// like event, is the owner's current consecutive-day like streak.
type EngagementEvent struct {
	Kind         string
	UserID       uuid.UUID // owner of the scored content
	ActorID      *uuid.UUID
	NewTotal     int
	StreakLength int
}

type eventRule struct {
	points       int
	pointReason  string
	category     string
	notification domain.NotificationKind
}

var eventRules = map[string]eventRule{
	EventKindVideoLiked: {
		points:       2,
		pointReason:  domain.PointReasonVideoLiked,
		category:     domain.CategoryLikesReceived,
		notification: domain.NotificationPointsCredited,
	},
	EventKindVideoViewed: {
		points:      1,
		pointReason: domain.PointReasonVideoViewed,
		category:    domain.CategoryViewsReceived,
	},
	EventKindCommentPosted: {
		points:      3,
		pointReason: domain.PointReasonComment,
		category:    domain.CategoryCommentsPosted,
	},
	EventKindDailyWinner: {
		points:       50,
		pointReason:  domain.PointReasonDailyWinner,
		category:     domain.CategoryWins,
		notification: domain.NotificationPointsCredited,
	},
}

// ScoringService converts completed game actions into point credits,
// achievement progress and best-effort notifications. It is the only
// boundary the out-of-scope feed subsystem talks to.
type ScoringService struct {
	ledger       PointLedger
	achievements *AchievementService
	notifier     Notifier
}

func NewScoringService(ledger PointLedger, achievements *AchievementService, notifier Notifier) *ScoringService {
	return &ScoringService{
		ledger:       ledger,
		achievements: achievements,
		notifier:     notifier,
	}
}

// HandleEvent scores one engagement event. Point and progress updates are
// applied in order; a notification failure is logged and swallowed so the
// already-committed updates stand.
func (s *ScoringService) HandleEvent(ctx context.Context, event EngagementEvent) error {
	rule, ok := eventRules[event.Kind]
	if !ok {
		return ErrUnknownEventKind
	}

	if err := s.ledger.CreditPoints(ctx, event.UserID, rule.points, rule.pointReason); err != nil {
		return err
	}

	if event.Kind == EventKindDailyWinner {
		// Daily wins count incrementally; the feed has no win total to replay.
		if _, err := s.achievements.UpdateProgress(ctx, event.UserID, rule.category, ProgressUpdate{Increment: 1}); err != nil {
			return err
		}
	} else {
		total := event.NewTotal
		if _, err := s.achievements.UpdateProgress(ctx, event.UserID, rule.category, ProgressUpdate{NewValue: &total}); err != nil {
			return err
		}
	}

	// Social one-shots for the actor (e.g. "gave your first like").
	if event.Kind == EventKindVideoLiked && event.ActorID != nil {
		if err := s.achievements.GrantCategoryAchievement(ctx, *event.ActorID, domain.CategorySocialLike); err != nil {
			log.Printf("ERROR [ScoringService] social like grant failed: %v", err)
		}
	}

	// Streak progress tracks the best streak reached, never the current one.
	if event.Kind == EventKindVideoLiked && event.StreakLength > 0 {
		streak := event.StreakLength
		if _, err := s.achievements.UpdateProgress(ctx, event.UserID, domain.CategoryLikeStreak, ProgressUpdate{NewValue: &streak}); err != nil {
			log.Printf("ERROR [ScoringService] like streak progress failed: %v", err)
		}
	}

	if event.Kind == EventKindCommentPosted {
		if err := s.achievements.GrantCategoryAchievement(ctx, event.UserID, domain.CategoryFirstComment); err != nil {
			log.Printf("ERROR [ScoringService] first comment grant failed: %v", err)
		}
	}

	if rule.notification != "" && s.notifier != nil {
		err := s.notifier.Notify(ctx, event.UserID, rule.notification, map[string]interface{}{
			"event":  event.Kind,
			"points": rule.points,
		})
		if err != nil {
			log.Printf("ERROR [ScoringService] notification dispatch failed: %v", err)
		}
	}

	return nil
}

// OnBattleVideoApproved records an approved battle submission for the
// uploader's upload achievements.
func (s *ScoringService) OnBattleVideoApproved(ctx context.Context, userID uuid.UUID) {
	if _, err := s.achievements.UpdateProgress(ctx, userID, domain.CategoryVideosUploaded, ProgressUpdate{Increment: 1}); err != nil {
		log.Printf("ERROR [ScoringService] videos_uploaded progress failed: %v", err)
	}
	if err := s.achievements.GrantCategoryAchievement(ctx, userID, domain.CategoryFirstVideo); err != nil {
		log.Printf("ERROR [ScoringService] first_video grant failed: %v", err)
	}
}

// OnBattleWon records a battle victory for the winner's achievements.
func (s *ScoringService) OnBattleWon(ctx context.Context, userID uuid.UUID) {
	if _, err := s.achievements.UpdateProgress(ctx, userID, domain.CategoryWins, ProgressUpdate{Increment: 1}); err != nil {
		log.Printf("ERROR [ScoringService] wins progress failed: %v", err)
	}
}
