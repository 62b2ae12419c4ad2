package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trickspot/backend/internal/domain"
	"github.com/trickspot/backend/internal/repository"
	"github.com/trickspot/backend/internal/repository/postgres"
	"github.com/trickspot/backend/internal/service"
	"github.com/trickspot/backend/internal/testutil"
)

func setupServices(t *testing.T) (*testutil.TestDB, *repository.Repositories, *service.Services) {
	t.Helper()

	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	services := service.NewServices(testDB.DB, repos, nil, testutil.TestConfig())
	return testDB, repos, services
}

func TestBattleService_CreateBattle(t *testing.T) {
	testDB, repos, services := setupServices(t)
	ctx := context.Background()

	organizer := testutil.NewUserBuilder().Build(t, testDB.DB)

	battle, err := services.Battle.CreateBattle(ctx, organizer.ID, service.CreateBattleInput{
		Title:             "Kickflip Challenge",
		ReferenceVideoURL: "https://cdn.test/kickflip.mp4",
		TimeLimitMinutes:  30,
		PrizePoints:       100,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.BattleStatusRegistration, battle.Status)
	assert.Equal(t, organizer.ID, battle.OrganizerID)
	assert.Equal(t, 1, battle.CurrentVideoSequence)
	assert.Contains(t, battle.ShareSlug, "kickflip-challenge")

	// The organizer is always on the judge roster
	isJudge, err := repos.Judge.IsJudge(ctx, battle.ID, organizer.ID)
	require.NoError(t, err)
	assert.True(t, isJudge)

	// Battles resolve by id or share slug
	bySlug, err := services.Battle.GetBattle(ctx, battle.ShareSlug)
	require.NoError(t, err)
	assert.Equal(t, battle.ID, bySlug.ID)

	byID, err := services.Battle.GetBattle(ctx, battle.ID.String())
	require.NoError(t, err)
	assert.Equal(t, battle.ID, byID.ID)
}

func TestBattleService_JoinBattle(t *testing.T) {
	testDB, _, services := setupServices(t)
	ctx := context.Background()

	organizer := testutil.NewUserBuilder().Build(t, testDB.DB)
	u1 := testutil.NewUserBuilder().Build(t, testDB.DB)
	u2 := testutil.NewUserBuilder().Build(t, testDB.DB)

	battle := testutil.NewBattleBuilder(organizer).Build(t, testDB.DB)

	p1, err := services.Battle.JoinBattle(ctx, battle.ID, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p1.JoinOrder)

	p2, err := services.Battle.JoinBattle(ctx, battle.ID, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p2.JoinOrder)

	// Joining twice is rejected
	_, err = services.Battle.JoinBattle(ctx, battle.ID, u1.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyJoined)

	// Joining after the battle starts is rejected
	_, err = services.Battle.StartBattle(ctx, battle.ID, organizer.ID)
	require.NoError(t, err)

	u3 := testutil.NewUserBuilder().Build(t, testDB.DB)
	_, err = services.Battle.JoinBattle(ctx, battle.ID, u3.ID)
	assert.ErrorIs(t, err, domain.ErrRegistrationClosed)
}

func TestBattleService_StartBattle(t *testing.T) {
	testDB, _, services := setupServices(t)
	ctx := context.Background()

	organizer := testutil.NewUserBuilder().Build(t, testDB.DB)
	u1 := testutil.NewUserBuilder().Build(t, testDB.DB)
	u2 := testutil.NewUserBuilder().Build(t, testDB.DB)

	t.Run("requires at least two participants", func(t *testing.T) {
		battle := testutil.NewBattleBuilder(organizer).WithParticipants(u1).Build(t, testDB.DB)

		_, err := services.Battle.StartBattle(ctx, battle.ID, organizer.ID)
		assert.ErrorIs(t, err, domain.ErrInsufficientParticipants)
	})

	t.Run("organizer only", func(t *testing.T) {
		battle := testutil.NewBattleBuilder(organizer).WithParticipants(u1, u2).Build(t, testDB.DB)

		_, err := services.Battle.StartBattle(ctx, battle.ID, u1.ID)
		assert.ErrorIs(t, err, domain.ErrNotOrganizer)
	})

	t.Run("first turn goes to the earliest joiner", func(t *testing.T) {
		battle := testutil.NewBattleBuilder(organizer).WithParticipants(u1, u2).Build(t, testDB.DB)

		started, err := services.Battle.StartBattle(ctx, battle.ID, organizer.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.BattleStatusActive, started.Status)
		require.NotNil(t, started.CurrentParticipantID)
		require.NotNil(t, started.CurrentDeadline)
		assert.NotNil(t, started.StartedAt)

		var current domain.BattleParticipant
		require.NoError(t, testDB.DB.First(&current, "id = ?", *started.CurrentParticipantID).Error)
		assert.Equal(t, u1.ID, current.UserID)
		assert.True(t, started.CurrentDeadline.After(time.Now()))

		// A started battle cannot be started again
		_, err = services.Battle.StartBattle(ctx, battle.ID, organizer.ID)
		assert.ErrorIs(t, err, domain.ErrBattleNotActive)
	})
}

func TestBattleService_RejectionLifecycle(t *testing.T) {
	testDB, repos, services := setupServices(t)
	ctx := context.Background()

	organizer := testutil.NewUserBuilder().Build(t, testDB.DB)
	u1 := testutil.NewUserBuilder().Build(t, testDB.DB)
	u2 := testutil.NewUserBuilder().Build(t, testDB.DB)

	winsAchievement := testutil.NewAchievementBuilder(domain.CategoryWins).
		WithTarget(1).WithReward(25).Build(t, testDB.DB)

	battle := testutil.NewBattleBuilder(organizer).
		WithParticipants(u1, u2).
		WithPrize(100).
		Build(t, testDB.DB)

	_, err := services.Battle.StartBattle(ctx, battle.ID, organizer.ID)
	require.NoError(t, err)

	currentUser := func() *domain.User {
		b, err := repos.Battle.GetByID(ctx, battle.ID)
		require.NoError(t, err)
		require.NotNil(t, b.CurrentParticipantID)
		var p domain.BattleParticipant
		require.NoError(t, testDB.DB.First(&p, "id = ?", *b.CurrentParticipantID).Error)
		if p.UserID == u1.ID {
			return u1
		}
		return u2
	}

	// u1 collects F-U-L-L across four rejected turns; u2's submissions are
	// approved in between, which rotates the turn back each time.
	letters := []string{"F", "FU", "FUL", "FULL"}
	for i, expected := range letters {
		require.Equal(t, u1.ID, currentUser().ID, "round %d should be u1's turn", i)

		video, err := services.Submission.SubmitVideo(ctx, battle.ID, u1.ID, service.SubmitVideoInput{
			VideoURL: "https://cdn.test/attempt.mp4",
		})
		require.NoError(t, err)

		_, err = services.Submission.JudgeDecision(ctx, video.ID, organizer.ID, service.JudgeDecisionInput{Approve: false})
		require.NoError(t, err)

		var p domain.BattleParticipant
		require.NoError(t, testDB.DB.First(&p, "battle_id = ? AND user_id = ?", battle.ID, u1.ID).Error)
		assert.Equal(t, expected, p.FullLetters)

		if i < len(letters)-1 {
			assert.Equal(t, domain.ParticipantStatusActive, p.Status)

			// u2 takes their turn and gets approved
			require.Equal(t, u2.ID, currentUser().ID)
			v2, err := services.Submission.SubmitVideo(ctx, battle.ID, u2.ID, service.SubmitVideoInput{
				VideoURL: "https://cdn.test/reply.mp4",
			})
			require.NoError(t, err)
			_, err = services.Submission.JudgeDecision(ctx, v2.ID, organizer.ID, service.JudgeDecisionInput{Approve: true})
			require.NoError(t, err)
		} else {
			assert.Equal(t, domain.ParticipantStatusEliminated, p.Status)
		}
	}

	// The last rejection eliminated u1, leaving u2 the sole survivor
	final, err := repos.Battle.GetByID(ctx, battle.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BattleStatusCompleted, final.Status)
	require.NotNil(t, final.WinnerID)
	assert.Equal(t, u2.ID, *final.WinnerID)
	assert.Nil(t, final.CurrentParticipantID)
	assert.Nil(t, final.CurrentDeadline)
	assert.NotNil(t, final.CompletedAt)

	// Prize and wins achievement reward both landed on the winner's balance
	balance, err := services.Points.GetBalance(ctx, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, 100+25, balance)

	progress, err := services.Achievement.ListProgress(ctx, u2.ID)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, winsAchievement.ID, progress[0].AchievementID)
	assert.True(t, progress[0].IsCompleted)
}

func TestBattleService_HandleDeadlineExpiry(t *testing.T) {
	testDB, repos, services := setupServices(t)
	ctx := context.Background()

	organizer := testutil.NewUserBuilder().Build(t, testDB.DB)
	u1 := testutil.NewUserBuilder().Build(t, testDB.DB)
	u2 := testutil.NewUserBuilder().Build(t, testDB.DB)

	battle := testutil.NewBattleBuilder(organizer).WithParticipants(u1, u2).Build(t, testDB.DB)
	_, err := services.Battle.StartBattle(ctx, battle.ID, organizer.ID)
	require.NoError(t, err)

	t.Run("no-op before the deadline", func(t *testing.T) {
		require.NoError(t, services.Battle.HandleDeadlineExpiry(ctx, battle.ID))

		var p domain.BattleParticipant
		require.NoError(t, testDB.DB.First(&p, "battle_id = ? AND user_id = ?", battle.ID, u1.ID).Error)
		assert.Equal(t, "", p.FullLetters)
	})

	t.Run("overdue turn letters the current participant and rotates", func(t *testing.T) {
		expireCurrentTurn(t, testDB, battle.ID)

		require.NoError(t, services.Battle.HandleDeadlineExpiry(ctx, battle.ID))

		var p domain.BattleParticipant
		require.NoError(t, testDB.DB.First(&p, "battle_id = ? AND user_id = ?", battle.ID, u1.ID).Error)
		assert.Equal(t, "F", p.FullLetters)

		b, err := repos.Battle.GetByID(ctx, battle.ID)
		require.NoError(t, err)
		require.NotNil(t, b.CurrentParticipantID)

		var next domain.BattleParticipant
		require.NoError(t, testDB.DB.First(&next, "id = ?", *b.CurrentParticipantID).Error)
		assert.Equal(t, u2.ID, next.UserID)
	})

	t.Run("redundant expiry is a no-op", func(t *testing.T) {
		// The turn rotation armed a fresh deadline, so an immediate
		// second tick must not letter anyone.
		require.NoError(t, services.Battle.HandleDeadlineExpiry(ctx, battle.ID))

		var p1, p2 domain.BattleParticipant
		require.NoError(t, testDB.DB.First(&p1, "battle_id = ? AND user_id = ?", battle.ID, u1.ID).Error)
		require.NoError(t, testDB.DB.First(&p2, "battle_id = ? AND user_id = ?", battle.ID, u2.ID).Error)
		assert.Equal(t, "F", p1.FullLetters)
		assert.Equal(t, "", p2.FullLetters)
	})

	t.Run("the lettered participant cannot submit after the turn advanced", func(t *testing.T) {
		// The expiry above handed the turn to u2, so u1's late attempt is
		// refused against the stored turn pointer.
		_, err := services.Submission.SubmitVideo(ctx, battle.ID, u1.ID, service.SubmitVideoInput{
			VideoURL: "https://cdn.test/too-late.mp4",
		})
		assert.ErrorIs(t, err, domain.ErrNotYourTurn)
	})

	t.Run("expiry rejects a still-pending submission", func(t *testing.T) {
		video, err := services.Submission.SubmitVideo(ctx, battle.ID, u2.ID, service.SubmitVideoInput{
			VideoURL: "https://cdn.test/late.mp4",
		})
		require.NoError(t, err)

		expireCurrentTurn(t, testDB, battle.ID)
		require.NoError(t, services.Battle.HandleDeadlineExpiry(ctx, battle.ID))

		var resolved domain.BattleVideo
		require.NoError(t, testDB.DB.First(&resolved, "id = ?", video.ID).Error)
		require.NotNil(t, resolved.IsApproved)
		assert.False(t, *resolved.IsApproved)
		assert.Nil(t, resolved.ApprovedBy)

		// Judging the expired video afterwards fails the compare-and-set
		_, err = services.Submission.JudgeDecision(ctx, video.ID, organizer.ID, service.JudgeDecisionInput{Approve: true})
		assert.ErrorIs(t, err, domain.ErrAlreadyJudged)
	})
}

func TestBattleService_TurnRotationThreeParticipants(t *testing.T) {
	testDB, repos, services := setupServices(t)
	ctx := context.Background()

	organizer := testutil.NewUserBuilder().Build(t, testDB.DB)
	u1 := testutil.NewUserBuilder().Build(t, testDB.DB)
	u2 := testutil.NewUserBuilder().Build(t, testDB.DB)
	u3 := testutil.NewUserBuilder().Build(t, testDB.DB)

	battle := testutil.NewBattleBuilder(organizer).WithParticipants(u1, u2, u3).Build(t, testDB.DB)
	_, err := services.Battle.StartBattle(ctx, battle.ID, organizer.ID)
	require.NoError(t, err)

	currentUserID := func() uuid.UUID {
		b, err := repos.Battle.GetByID(ctx, battle.ID)
		require.NoError(t, err)
		require.NotNil(t, b.CurrentParticipantID)
		var p domain.BattleParticipant
		require.NoError(t, testDB.DB.First(&p, "id = ?", *b.CurrentParticipantID).Error)
		return p.UserID
	}

	judgeTurn := func(user *domain.User, approve bool) {
		t.Helper()
		video, err := services.Submission.SubmitVideo(ctx, battle.ID, user.ID, service.SubmitVideoInput{
			VideoURL: "https://cdn.test/run.mp4",
		})
		require.NoError(t, err)
		_, err = services.Submission.JudgeDecision(ctx, video.ID, organizer.ID, service.JudgeDecisionInput{Approve: approve})
		require.NoError(t, err)
	}

	// Rejections hand the turn down the join order and wrap back around
	assert.Equal(t, u1.ID, currentUserID())
	judgeTurn(u1, false)
	assert.Equal(t, u2.ID, currentUserID())
	judgeTurn(u2, false)
	assert.Equal(t, u3.ID, currentUserID())
	judgeTurn(u3, false)
	assert.Equal(t, u1.ID, currentUserID())

	// Fast-forward u1 to one letter short, then reject them out
	require.NoError(t, testDB.DB.Model(&domain.BattleParticipant{}).
		Where("battle_id = ? AND user_id = ?", battle.ID, u1.ID).
		Update("full_letters", "FUL").Error)
	judgeTurn(u1, false)

	var p1 domain.BattleParticipant
	require.NoError(t, testDB.DB.First(&p1, "battle_id = ? AND user_id = ?", battle.ID, u1.ID).Error)
	assert.Equal(t, domain.ParticipantStatusEliminated, p1.Status)

	// The battle keeps going with the two survivors
	b, err := repos.Battle.GetByID(ctx, battle.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BattleStatusActive, b.Status)
	assert.Equal(t, u2.ID, currentUserID())

	// Approvals rotate too, and the rotation skips the eliminated participant
	judgeTurn(u2, true)
	assert.Equal(t, u3.ID, currentUserID())
	judgeTurn(u3, true)
	assert.Equal(t, u2.ID, currentUserID())
}

// eventRecorder captures published battle events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *eventRecorder) PublishBattleEvent(battleID uuid.UUID, eventType string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func (r *eventRecorder) PushToUser(userID uuid.UUID, eventType string, payload interface{}) {}

func (r *eventRecorder) has(eventType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == eventType {
			return true
		}
	}
	return false
}

func TestBattleService_ExpiryPublishesVideoJudged(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	recorder := &eventRecorder{}
	services := service.NewServices(testDB.DB, repos, recorder, testutil.TestConfig())
	ctx := context.Background()

	organizer := testutil.NewUserBuilder().Build(t, testDB.DB)
	u1 := testutil.NewUserBuilder().Build(t, testDB.DB)
	u2 := testutil.NewUserBuilder().Build(t, testDB.DB)

	battle := testutil.NewBattleBuilder(organizer).WithParticipants(u1, u2).Build(t, testDB.DB)
	_, err := services.Battle.StartBattle(ctx, battle.ID, organizer.ID)
	require.NoError(t, err)

	_, err = services.Submission.SubmitVideo(ctx, battle.ID, u1.ID, service.SubmitVideoInput{
		VideoURL: "https://cdn.test/unjudged.mp4",
	})
	require.NoError(t, err)

	expireCurrentTurn(t, testDB, battle.ID)
	require.NoError(t, services.Battle.HandleDeadlineExpiry(ctx, battle.ID))

	// Subscribers see the expired submission resolved the same way a judge
	// rejection is announced.
	assert.True(t, recorder.has(service.EventVideoJudged))
	assert.True(t, recorder.has(service.EventLetterAdded))
	assert.True(t, recorder.has(service.EventTurnStarted))
}

func TestBattleService_CancelBattle(t *testing.T) {
	testDB, repos, services := setupServices(t)
	ctx := context.Background()

	organizer := testutil.NewUserBuilder().Build(t, testDB.DB)
	u1 := testutil.NewUserBuilder().Build(t, testDB.DB)
	u2 := testutil.NewUserBuilder().Build(t, testDB.DB)

	battle := testutil.NewBattleBuilder(organizer).WithParticipants(u1, u2).Build(t, testDB.DB)
	_, err := services.Battle.StartBattle(ctx, battle.ID, organizer.ID)
	require.NoError(t, err)

	_, err = services.Battle.CancelBattle(ctx, battle.ID, u1.ID)
	assert.ErrorIs(t, err, domain.ErrNotOrganizer)

	cancelled, err := services.Battle.CancelBattle(ctx, battle.ID, organizer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BattleStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.CurrentParticipantID)
	assert.Nil(t, cancelled.CurrentDeadline)

	// No submissions, judging or re-cancelling on a cancelled battle
	_, err = services.Submission.SubmitVideo(ctx, battle.ID, u1.ID, service.SubmitVideoInput{
		VideoURL: "https://cdn.test/too-late.mp4",
	})
	assert.ErrorIs(t, err, domain.ErrBattleNotActive)

	_, err = services.Battle.CancelBattle(ctx, battle.ID, organizer.ID)
	assert.ErrorIs(t, err, domain.ErrBattleNotActive)

	b, err := repos.Battle.GetByID(ctx, battle.ID)
	require.NoError(t, err)
	assert.Nil(t, b.WinnerID)
}

// expireCurrentTurn rewinds the battle's turn deadline into the past.
func expireCurrentTurn(t *testing.T, testDB *testutil.TestDB, battleID uuid.UUID) {
	t.Helper()

	err := testDB.DB.Model(&domain.Battle{}).
		Where("id = ?", battleID).
		Update("current_deadline", time.Now().Add(-time.Minute)).Error
	require.NoError(t, err)
}
