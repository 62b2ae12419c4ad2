package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/trickspot/backend/internal/domain"
	"github.com/trickspot/backend/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errNoEligibleParticipant is internal to the scheduler: it means "finalize
// the battle", never an error surfaced to callers.
var errNoEligibleParticipant = errors.New("no eligible participant remains")

// BattleService owns the battle lifecycle and the turn scheduler: whose turn
// it is, the turn deadline, elimination and winner detection. Every state
// transition runs in a transaction holding a row lock on the battle, which
// serializes submissions, judgments and deadline expiries per battle.
type BattleService struct {
	db              *gorm.DB
	battleRepo      repository.BattleRepository
	participantRepo repository.ParticipantRepository
	videoRepo       repository.BattleVideoRepository
	judgeRepo       repository.JudgeRepository
	ledger          PointLedger
	scoring         *ScoringService
	notifier        Notifier
	events          EventPublisher
}

func NewBattleService(
	db *gorm.DB,
	battleRepo repository.BattleRepository,
	participantRepo repository.ParticipantRepository,
	videoRepo repository.BattleVideoRepository,
	judgeRepo repository.JudgeRepository,
	ledger PointLedger,
	scoring *ScoringService,
	notifier Notifier,
	events EventPublisher,
) *BattleService {
	return &BattleService{
		db:              db,
		battleRepo:      battleRepo,
		participantRepo: participantRepo,
		videoRepo:       videoRepo,
		judgeRepo:       judgeRepo,
		ledger:          ledger,
		scoring:         scoring,
		notifier:        notifier,
		events:          events,
	}
}

type CreateBattleInput struct {
	Title               string
	Description         string
	ReferenceVideoURL   string
	ReferenceVideoTitle string
	TimeLimitMinutes    int
	PrizePoints         int
	StartTime           *time.Time
}

func (s *BattleService) CreateBattle(ctx context.Context, organizerID uuid.UUID, input CreateBattleInput) (*domain.Battle, error) {
	timeLimit := input.TimeLimitMinutes
	if timeLimit <= 0 {
		timeLimit = 60
	}

	battle := &domain.Battle{
		ID:                   uuid.New(),
		Title:                input.Title,
		Description:          input.Description,
		ShareSlug:            generateShareSlug(input.Title),
		ReferenceVideoURL:    input.ReferenceVideoURL,
		ReferenceVideoTitle:  input.ReferenceVideoTitle,
		OrganizerID:          organizerID,
		Status:               domain.BattleStatusRegistration,
		StartTime:            input.StartTime,
		TimeLimitMinutes:     timeLimit,
		PrizePoints:          input.PrizePoints,
		CurrentVideoSequence: 1,
		CreatedAt:            time.Now(),
	}

	if err := s.battleRepo.Create(ctx, battle); err != nil {
		return nil, err
	}

	// The organizer always sits on the judge roster.
	judge := &domain.BattleJudge{
		ID:       uuid.New(),
		BattleID: battle.ID,
		UserID:   organizerID,
		AddedAt:  time.Now(),
	}
	if err := s.judgeRepo.Add(ctx, judge); err != nil {
		return nil, err
	}

	return battle, nil
}

func (s *BattleService) GetBattle(ctx context.Context, idOrSlug string) (*domain.Battle, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		battle, err := s.battleRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrBattleNotFound
			}
			return nil, err
		}
		return battle, nil
	}

	battle, err := s.battleRepo.GetBySlug(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBattleNotFound
		}
		return nil, err
	}
	return battle, nil
}

func (s *BattleService) ListBattles(ctx context.Context, statuses []domain.BattleStatus, limit, offset int) ([]*domain.Battle, error) {
	return s.battleRepo.List(ctx, statuses, limit, offset)
}

// ListParticipants returns the roster in join order, eliminated
// participants included.
func (s *BattleService) ListParticipants(ctx context.Context, battleID uuid.UUID) ([]*domain.BattleParticipant, error) {
	return s.participantRepo.ListByBattle(ctx, battleID)
}

func (s *BattleService) ListJudges(ctx context.Context, battleID uuid.UUID) ([]*domain.BattleJudge, error) {
	return s.judgeRepo.ListByBattle(ctx, battleID)
}

func (s *BattleService) AddJudge(ctx context.Context, battleID, organizerID, judgeUserID uuid.UUID) error {
	battle, err := s.battleRepo.GetByID(ctx, battleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrBattleNotFound
		}
		return err
	}
	if battle.OrganizerID != organizerID {
		return domain.ErrNotOrganizer
	}

	already, err := s.judgeRepo.IsJudge(ctx, battleID, judgeUserID)
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	return s.judgeRepo.Add(ctx, &domain.BattleJudge{
		ID:       uuid.New(),
		BattleID: battleID,
		UserID:   judgeUserID,
		AddedAt:  time.Now(),
	})
}

// JoinBattle registers a user as a participant. Joining is only possible
// while the battle is in registration, and once per user; join order fixes
// the turn rotation.
func (s *BattleService) JoinBattle(ctx context.Context, battleID, userID uuid.UUID) (*domain.BattleParticipant, error) {
	var participant *domain.BattleParticipant

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		battle, err := s.lockBattle(tx, battleID)
		if err != nil {
			return err
		}

		if battle.Status != domain.BattleStatusRegistration {
			return domain.ErrRegistrationClosed
		}

		var existing domain.BattleParticipant
		err = tx.First(&existing, "battle_id = ? AND user_id = ?", battleID, userID).Error
		if err == nil {
			return domain.ErrAlreadyJoined
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var count int64
		if err := tx.Model(&domain.BattleParticipant{}).Where("battle_id = ?", battleID).Count(&count).Error; err != nil {
			return err
		}

		participant = &domain.BattleParticipant{
			ID:        uuid.New(),
			BattleID:  battleID,
			UserID:    userID,
			Status:    domain.ParticipantStatusActive,
			JoinOrder: int(count),
			JoinedAt:  time.Now(),
		}
		return tx.Create(participant).Error
	})
	if err != nil {
		return nil, err
	}

	return participant, nil
}

// StartBattle moves a battle from registration to active and schedules the
// first turn. Only the organizer may start, and at least two participants
// must have joined.
func (s *BattleService) StartBattle(ctx context.Context, battleID, organizerID uuid.UUID) (*domain.Battle, error) {
	var outcome turnOutcome

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		battle, err := s.lockBattle(tx, battleID)
		if err != nil {
			return err
		}

		if battle.OrganizerID != organizerID {
			return domain.ErrNotOrganizer
		}
		if battle.Status != domain.BattleStatusRegistration {
			return domain.ErrBattleNotActive
		}

		participants, err := s.activeParticipants(tx, battleID)
		if err != nil {
			return err
		}
		if len(participants) < domain.MinBattleParticipants {
			return domain.ErrInsufficientParticipants
		}

		now := time.Now()
		battle.Status = domain.BattleStatusActive
		battle.StartedAt = &now
		if battle.StartTime == nil {
			battle.StartTime = &now
		}
		if err := tx.Model(&domain.Battle{}).Where("id = ?", battle.ID).Updates(map[string]interface{}{
			"status":     battle.Status,
			"started_at": battle.StartedAt,
			"start_time": battle.StartTime,
		}).Error; err != nil {
			return err
		}

		// First turn goes to the earliest joiner.
		if err := s.setTurn(tx, battle, participants[0], &outcome); err != nil {
			return err
		}

		outcome.battle = battle
		outcome.started = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.applyOutcome(ctx, &outcome)
	return s.battleRepo.GetByID(ctx, battleID)
}

// CancelBattle aborts a battle that has not completed. Organizer only.
func (s *BattleService) CancelBattle(ctx context.Context, battleID, organizerID uuid.UUID) (*domain.Battle, error) {
	var participants []*domain.BattleParticipant

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		battle, err := s.lockBattle(tx, battleID)
		if err != nil {
			return err
		}

		if battle.OrganizerID != organizerID {
			return domain.ErrNotOrganizer
		}
		if battle.Status == domain.BattleStatusCompleted || battle.Status == domain.BattleStatusCancelled {
			return domain.ErrBattleNotActive
		}

		now := time.Now()
		if err := tx.Model(&domain.Battle{}).Where("id = ?", battle.ID).Updates(map[string]interface{}{
			"status":                 domain.BattleStatusCancelled,
			"current_participant_id": nil,
			"current_deadline":       nil,
			"completed_at":           now,
		}).Error; err != nil {
			return err
		}

		participants, err = s.activeParticipants(tx, battleID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.PublishBattleEvent(battleID, EventBattleCancelled, map[string]interface{}{"battleId": battleID.String()})
	}
	for _, p := range participants {
		s.notify(ctx, p.UserID, domain.NotificationBattleCancelled, map[string]interface{}{"battleId": battleID.String()})
	}

	return s.battleRepo.GetByID(ctx, battleID)
}

// HandleDeadlineExpiry applies the implicit rejection for an overdue turn:
// the current participant receives a FULL letter exactly as if a judge had
// rejected with no video, and the turn rotates or the battle finalizes.
// Safe to call redundantly — if the deadline has not passed, or another
// caller already advanced the turn, it is a no-op.
func (s *BattleService) HandleDeadlineExpiry(ctx context.Context, battleID uuid.UUID) error {
	var outcome turnOutcome

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		battle, err := s.lockBattle(tx, battleID)
		if err != nil {
			if errors.Is(err, domain.ErrBattleNotFound) {
				return nil
			}
			return err
		}

		if battle.Status != domain.BattleStatusActive || battle.CurrentParticipantID == nil {
			return nil
		}
		if !battle.DeadlinePassed(time.Now()) {
			return nil
		}

		var current domain.BattleParticipant
		if err := tx.First(&current, "id = ?", *battle.CurrentParticipantID).Error; err != nil {
			return err
		}

		// A submission that never got judged expires with the turn.
		var pending domain.BattleVideo
		err = tx.First(&pending, "battle_id = ? AND participant_id = ? AND sequence_number = ? AND is_approved IS NULL",
			battle.ID, current.ID, battle.CurrentVideoSequence).Error
		switch {
		case err == nil:
			now := time.Now()
			if err := tx.Model(&domain.BattleVideo{}).Where("id = ?", pending.ID).Updates(map[string]interface{}{
				"is_approved": false,
				"approved_at": now,
			}).Error; err != nil {
				return err
			}
			rejected := false
			pending.IsApproved = &rejected
			pending.ApprovedAt = &now
			outcome.rejected = &pending
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		outcome.battle = battle
		return s.resolveRejection(tx, battle, &current, &outcome)
	})
	if err != nil {
		return err
	}

	s.applyOutcome(ctx, &outcome)
	return nil
}

// turnOutcome collects the side effects of a committed transition. They run
// after the transaction so an infrastructure failure cannot roll the
// transition back.
type turnOutcome struct {
	battle     *domain.Battle
	started    bool
	letter     *domain.BattleParticipant
	eliminated bool
	next       *domain.BattleParticipant
	winner     *domain.BattleParticipant
	approved   *domain.BattleVideo
	rejected   *domain.BattleVideo
}

// lockBattle loads the battle row under SELECT ... FOR UPDATE. All state
// transitions for a battle funnel through this lock.
func (s *BattleService) lockBattle(tx *gorm.DB, battleID uuid.UUID) (*domain.Battle, error) {
	var battle domain.Battle
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&battle, "id = ?", battleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBattleNotFound
		}
		return nil, err
	}
	return &battle, nil
}

func (s *BattleService) activeParticipants(tx *gorm.DB, battleID uuid.UUID) ([]*domain.BattleParticipant, error) {
	var participants []*domain.BattleParticipant
	err := tx.Where("battle_id = ? AND status = ?", battleID, domain.ParticipantStatusActive).
		Order("join_order ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// resolveRejection records a letter against the participant, eliminates them
// if the word completed, and advances the turn or finalizes the battle.
// Shared by judge rejections and deadline expiries.
func (s *BattleService) resolveRejection(tx *gorm.DB, battle *domain.Battle, participant *domain.BattleParticipant, outcome *turnOutcome) error {
	eliminated := participant.AddLetter()
	if err := tx.Model(&domain.BattleParticipant{}).Where("id = ?", participant.ID).Updates(map[string]interface{}{
		"full_letters": participant.FullLetters,
		"status":       participant.Status,
	}).Error; err != nil {
		return err
	}

	outcome.letter = participant
	outcome.eliminated = eliminated

	return s.advanceOrFinalize(tx, battle, participant, outcome)
}

// advanceOrFinalize is the scheduler's pivot: it rotates the turn to the
// next active participant after the one that just resolved, or finalizes
// the battle once at most one active participant remains.
func (s *BattleService) advanceOrFinalize(tx *gorm.DB, battle *domain.Battle, resolved *domain.BattleParticipant, outcome *turnOutcome) error {
	participants, err := s.activeParticipants(tx, battle.ID)
	if err != nil {
		return err
	}
	if len(participants) <= 1 {
		return s.finalize(tx, battle, resolved, outcome)
	}

	next, err := s.selectNextParticipant(tx, battle, resolved)
	if err != nil {
		if errors.Is(err, errNoEligibleParticipant) {
			return s.finalize(tx, battle, resolved, outcome)
		}
		return err
	}
	return s.setTurn(tx, battle, next, outcome)
}

// selectNextParticipant picks the next active participant by join order,
// wrapping around, excluding the participant whose submission just resolved.
// Returns errNoEligibleParticipant when nobody else can take the turn.
func (s *BattleService) selectNextParticipant(tx *gorm.DB, battle *domain.Battle, exclude *domain.BattleParticipant) (*domain.BattleParticipant, error) {
	participants, err := s.activeParticipants(tx, battle.ID)
	if err != nil {
		return nil, err
	}

	candidates := make([]*domain.BattleParticipant, 0, len(participants))
	for _, p := range participants {
		if exclude != nil && p.ID == exclude.ID {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil, errNoEligibleParticipant
	}

	afterOrder := -1
	if exclude != nil {
		afterOrder = exclude.JoinOrder
	}
	for _, p := range candidates {
		if p.JoinOrder > afterOrder {
			return p, nil
		}
	}
	return candidates[0], nil
}

// setTurn hands the turn to the participant and arms their deadline.
func (s *BattleService) setTurn(tx *gorm.DB, battle *domain.Battle, next *domain.BattleParticipant, outcome *turnOutcome) error {
	deadline := time.Now().Add(battle.TurnDuration())
	if err := tx.Model(&domain.Battle{}).Where("id = ?", battle.ID).Updates(map[string]interface{}{
		"current_participant_id": next.ID,
		"current_deadline":       deadline,
	}).Error; err != nil {
		return err
	}

	battle.CurrentParticipantID = &next.ID
	battle.CurrentDeadline = &deadline
	outcome.battle = battle
	outcome.next = next
	return nil
}

// finalize freezes a battle with a winner. The status guard makes repeated
// calls no-ops: whoever completes the battle first wins the conditional
// update, everyone else sees zero rows affected.
func (s *BattleService) finalize(tx *gorm.DB, battle *domain.Battle, winner *domain.BattleParticipant, outcome *turnOutcome) error {
	// A rejection may finalize with the survivor rather than the resolved
	// participant: if the resolved one was eliminated, the winner is the
	// remaining active participant.
	if winner != nil && winner.IsEliminated() {
		survivors, err := s.activeParticipants(tx, battle.ID)
		if err != nil {
			return err
		}
		if len(survivors) == 1 {
			winner = survivors[0]
		} else {
			winner = nil
		}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":                 domain.BattleStatusCompleted,
		"current_participant_id": nil,
		"current_deadline":       nil,
		"completed_at":           now,
	}
	if winner != nil {
		updates["winner_id"] = winner.UserID
	}

	res := tx.Model(&domain.Battle{}).
		Where("id = ? AND status = ?", battle.ID, domain.BattleStatusActive).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Already completed elsewhere; nothing to re-award.
		return nil
	}

	battle.Status = domain.BattleStatusCompleted
	battle.CurrentParticipantID = nil
	battle.CurrentDeadline = nil
	battle.CompletedAt = &now
	if winner != nil {
		battle.WinnerID = &winner.UserID
	}
	outcome.battle = battle
	outcome.next = nil
	outcome.winner = winner
	return nil
}

// applyOutcome dispatches side effects of a committed transition: prize and
// achievement credits, notifications and realtime events. Failures here are
// logged, never propagated — the transition stands.
func (s *BattleService) applyOutcome(ctx context.Context, outcome *turnOutcome) {
	battle := outcome.battle
	if battle == nil {
		return
	}

	if outcome.started && s.events != nil {
		s.events.PublishBattleEvent(battle.ID, EventBattleStarted, map[string]interface{}{
			"battleId": battle.ID.String(),
		})
	}

	if outcome.letter != nil {
		payload := map[string]interface{}{
			"battleId":    battle.ID.String(),
			"fullLetters": outcome.letter.FullLetters,
		}
		if s.events != nil {
			s.events.PublishBattleEvent(battle.ID, EventLetterAdded, payload)
		}
		s.notify(ctx, outcome.letter.UserID, domain.NotificationLetterReceived, payload)

		if outcome.eliminated {
			if s.events != nil {
				s.events.PublishBattleEvent(battle.ID, EventEliminated, payload)
			}
			s.notify(ctx, outcome.letter.UserID, domain.NotificationEliminated, payload)
		}
	}

	if outcome.approved != nil && s.events != nil {
		s.events.PublishBattleEvent(battle.ID, EventVideoJudged, map[string]interface{}{
			"videoId":  outcome.approved.ID.String(),
			"approved": true,
		})
	}
	if outcome.rejected != nil && s.events != nil {
		s.events.PublishBattleEvent(battle.ID, EventVideoJudged, map[string]interface{}{
			"videoId":  outcome.rejected.ID.String(),
			"approved": false,
		})
	}

	if outcome.next != nil {
		payload := map[string]interface{}{
			"battleId":      battle.ID.String(),
			"participantId": outcome.next.ID.String(),
			"deadline":      battle.CurrentDeadline,
		}
		if s.events != nil {
			s.events.PublishBattleEvent(battle.ID, EventTurnStarted, payload)
		}
		s.notify(ctx, outcome.next.UserID, domain.NotificationYourTurn, payload)
	}

	if outcome.winner != nil {
		if battle.PrizePoints > 0 {
			if err := s.ledger.CreditPoints(ctx, outcome.winner.UserID, battle.PrizePoints, domain.PointReasonBattlePrize); err != nil {
				log.Printf("ERROR [BattleService] prize credit failed for battle %s: %v", battle.ID, err)
			}
		}
		if s.scoring != nil {
			s.scoring.OnBattleWon(ctx, outcome.winner.UserID)
		}
		payload := map[string]interface{}{
			"battleId": battle.ID.String(),
			"winnerId": outcome.winner.UserID.String(),
			"prize":    battle.PrizePoints,
		}
		if s.events != nil {
			s.events.PublishBattleEvent(battle.ID, EventBattleCompleted, payload)
		}
		s.notify(ctx, outcome.winner.UserID, domain.NotificationBattleWon, payload)
	} else if battle.Status == domain.BattleStatusCompleted && outcome.letter != nil && s.events != nil {
		s.events.PublishBattleEvent(battle.ID, EventBattleCompleted, map[string]interface{}{
			"battleId": battle.ID.String(),
		})
	}
}

func (s *BattleService) notify(ctx context.Context, userID uuid.UUID, kind domain.NotificationKind, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, kind, payload); err != nil {
		log.Printf("ERROR [BattleService] notification %s failed: %v", kind, err)
	}
}

func generateShareSlug(title string) string {
	return fmt.Sprintf("%s-%s", slug.Make(title), uuid.New().String()[:6])
}
