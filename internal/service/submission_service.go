package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
	"github.com/trickspot/backend/internal/repository"
	"gorm.io/gorm"
)

// SubmissionService accepts exactly one video submission per turn and routes
// it through judge approval or rejection. All checks run against the locked
// battle row, so a submission racing a deadline expiry sees the stored turn
// pointer, not a stale read.
type SubmissionService struct {
	db        *gorm.DB
	battles   *BattleService
	videoRepo repository.BattleVideoRepository
	judgeRepo repository.JudgeRepository
	scoring   *ScoringService
	events    EventPublisher
}

func NewSubmissionService(
	db *gorm.DB,
	battles *BattleService,
	videoRepo repository.BattleVideoRepository,
	judgeRepo repository.JudgeRepository,
	scoring *ScoringService,
	events EventPublisher,
) *SubmissionService {
	return &SubmissionService{
		db:        db,
		battles:   battles,
		videoRepo: videoRepo,
		judgeRepo: judgeRepo,
		scoring:   scoring,
		events:    events,
	}
}

type SubmitVideoInput struct {
	VideoURL string
	Title    string
}

// SubmitVideo records the active participant's attempt for the current turn.
func (s *SubmissionService) SubmitVideo(ctx context.Context, battleID, userID uuid.UUID, input SubmitVideoInput) (*domain.BattleVideo, error) {
	var video *domain.BattleVideo

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		battle, err := s.battles.lockBattle(tx, battleID)
		if err != nil {
			return err
		}

		if battle.Status != domain.BattleStatusActive {
			return domain.ErrBattleNotActive
		}

		var participant domain.BattleParticipant
		err = tx.First(&participant, "battle_id = ? AND user_id = ?", battleID, userID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotAParticipant
			}
			return err
		}

		if battle.CurrentParticipantID == nil || *battle.CurrentParticipantID != participant.ID {
			return domain.ErrNotYourTurn
		}
		// Defensive: the expiry handler owns overdue turns, but a submission
		// sneaking in between deadline and tick must still be refused.
		if battle.DeadlinePassed(time.Now()) {
			return domain.ErrDeadlineExpired
		}

		var pending int64
		err = tx.Model(&domain.BattleVideo{}).
			Where("battle_id = ? AND sequence_number = ? AND is_approved IS NULL",
				battleID, battle.CurrentVideoSequence).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return domain.ErrDuplicateSubmission
		}

		video = &domain.BattleVideo{
			ID:             uuid.New(),
			BattleID:       battleID,
			ParticipantID:  participant.ID,
			SequenceNumber: battle.CurrentVideoSequence,
			VideoURL:       input.VideoURL,
			Title:          input.Title,
			CreatedAt:      time.Now(),
		}
		return tx.Create(video).Error
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.PublishBattleEvent(battleID, EventVideoSubmitted, map[string]interface{}{
			"videoId":  video.ID.String(),
			"sequence": video.SequenceNumber,
		})
	}
	return video, nil
}

type JudgeDecisionInput struct {
	Approve bool
	// DeclareWinner lets a judge end the battle on an approved final
	// submission, crowning the submitter without waiting for eliminations.
	DeclareWinner bool
}

// JudgeDecision resolves a pending submission. Approval promotes the video
// to the battle's new reference clip and rotates the turn; rejection spells
// a FULL letter and may eliminate the participant. The decision write is a
// compare-and-set on the pending state, so a second judge (or a double
// click) gets ErrAlreadyJudged.
func (s *SubmissionService) JudgeDecision(ctx context.Context, videoID, judgeID uuid.UUID, input JudgeDecisionInput) (*domain.BattleVideo, error) {
	var outcome turnOutcome
	var video domain.BattleVideo
	var approvedUserID uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&video, "id = ?", videoID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrVideoNotFound
			}
			return err
		}

		battle, err := s.battles.lockBattle(tx, video.BattleID)
		if err != nil {
			return err
		}

		if battle.Status != domain.BattleStatusActive {
			return domain.ErrBattleNotActive
		}

		isJudge, err := s.judgeRepo.IsJudge(ctx, battle.ID, judgeID)
		if err != nil {
			return err
		}
		if !isJudge {
			return domain.ErrNotAJudge
		}

		// Single-writer per video: only the pending -> decided transition
		// can succeed, and only once.
		now := time.Now()
		res := tx.Model(&domain.BattleVideo{}).
			Where("id = ? AND is_approved IS NULL", video.ID).
			Updates(map[string]interface{}{
				"is_approved": input.Approve,
				"approved_by": judgeID,
				"approved_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyJudged
		}

		approved := input.Approve
		video.IsApproved = &approved
		video.ApprovedBy = &judgeID
		video.ApprovedAt = &now

		var participant domain.BattleParticipant
		if err := tx.First(&participant, "id = ?", video.ParticipantID).Error; err != nil {
			return err
		}

		outcome.battle = battle
		if input.Approve {
			outcome.approved = &video
			approvedUserID = participant.UserID

			// The approved clip becomes the line everyone must now extend.
			battle.ReferenceVideoURL = video.VideoURL
			battle.ReferenceVideoTitle = video.Title
			battle.CurrentVideoSequence++
			if err := tx.Model(&domain.Battle{}).Where("id = ?", battle.ID).Updates(map[string]interface{}{
				"reference_video_url":    battle.ReferenceVideoURL,
				"reference_video_title":  battle.ReferenceVideoTitle,
				"current_video_sequence": battle.CurrentVideoSequence,
			}).Error; err != nil {
				return err
			}

			if input.DeclareWinner {
				return s.battles.finalize(tx, battle, &participant, &outcome)
			}
			return s.battles.advanceOrFinalize(tx, battle, &participant, &outcome)
		}

		outcome.rejected = &video
		return s.battles.resolveRejection(tx, battle, &participant, &outcome)
	})
	if err != nil {
		return nil, err
	}

	s.battles.applyOutcome(ctx, &outcome)
	if input.Approve && s.scoring != nil {
		s.scoring.OnBattleVideoApproved(ctx, approvedUserID)
	}
	return &video, nil
}

func (s *SubmissionService) ListBattleVideos(ctx context.Context, battleID uuid.UUID) ([]*domain.BattleVideo, error) {
	return s.videoRepo.ListByBattle(ctx, battleID)
}
