package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trickspot/backend/internal/domain"
	"github.com/trickspot/backend/internal/service"
	"github.com/trickspot/backend/internal/testutil"
)

func TestSubmissionService_SubmitVideo(t *testing.T) {
	testDB, _, services := setupServices(t)
	ctx := context.Background()

	organizer := testutil.NewUserBuilder().Build(t, testDB.DB)
	u1 := testutil.NewUserBuilder().Build(t, testDB.DB)
	u2 := testutil.NewUserBuilder().Build(t, testDB.DB)
	outsider := testutil.NewUserBuilder().Build(t, testDB.DB)

	battle := testutil.NewBattleBuilder(organizer).WithParticipants(u1, u2).Build(t, testDB.DB)

	t.Run("rejected before the battle starts", func(t *testing.T) {
		_, err := services.Submission.SubmitVideo(ctx, battle.ID, u1.ID, service.SubmitVideoInput{
			VideoURL: "https://cdn.test/early.mp4",
		})
		assert.ErrorIs(t, err, domain.ErrBattleNotActive)
	})

	_, err := services.Battle.StartBattle(ctx, battle.ID, organizer.ID)
	require.NoError(t, err)

	t.Run("non-participants cannot submit", func(t *testing.T) {
		_, err := services.Submission.SubmitVideo(ctx, battle.ID, outsider.ID, service.SubmitVideoInput{
			VideoURL: "https://cdn.test/outsider.mp4",
		})
		assert.ErrorIs(t, err, domain.ErrNotAParticipant)
	})

	t.Run("only the current participant may submit", func(t *testing.T) {
		_, err := services.Submission.SubmitVideo(ctx, battle.ID, u2.ID, service.SubmitVideoInput{
			VideoURL: "https://cdn.test/out-of-turn.mp4",
		})
		assert.ErrorIs(t, err, domain.ErrNotYourTurn)
	})

	t.Run("successful submission is pending at the current sequence", func(t *testing.T) {
		video, err := services.Submission.SubmitVideo(ctx, battle.ID, u1.ID, service.SubmitVideoInput{
			VideoURL: "https://cdn.test/attempt.mp4",
			Title:    "my kickflip",
		})
		require.NoError(t, err)

		assert.Equal(t, 1, video.SequenceNumber)
		assert.True(t, video.IsPending())
	})

	t.Run("one pending submission per turn", func(t *testing.T) {
		_, err := services.Submission.SubmitVideo(ctx, battle.ID, u1.ID, service.SubmitVideoInput{
			VideoURL: "https://cdn.test/double.mp4",
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateSubmission)
	})

	t.Run("rejected after the deadline", func(t *testing.T) {
		expired := testutil.NewBattleBuilder(organizer).WithParticipants(u1, u2).Build(t, testDB.DB)
		_, err := services.Battle.StartBattle(ctx, expired.ID, organizer.ID)
		require.NoError(t, err)

		expireCurrentTurn(t, testDB, expired.ID)

		_, err = services.Submission.SubmitVideo(ctx, expired.ID, u1.ID, service.SubmitVideoInput{
			VideoURL: "https://cdn.test/late.mp4",
		})
		assert.ErrorIs(t, err, domain.ErrDeadlineExpired)
	})
}

func TestSubmissionService_JudgeDecision(t *testing.T) {
	testDB, repos, services := setupServices(t)
	ctx := context.Background()

	organizer := testutil.NewUserBuilder().Build(t, testDB.DB)
	u1 := testutil.NewUserBuilder().Build(t, testDB.DB)
	u2 := testutil.NewUserBuilder().Build(t, testDB.DB)

	battle := testutil.NewBattleBuilder(organizer).WithParticipants(u1, u2).Build(t, testDB.DB)
	_, err := services.Battle.StartBattle(ctx, battle.ID, organizer.ID)
	require.NoError(t, err)

	video, err := services.Submission.SubmitVideo(ctx, battle.ID, u1.ID, service.SubmitVideoInput{
		VideoURL: "https://cdn.test/attempt.mp4",
		Title:    "my kickflip",
	})
	require.NoError(t, err)

	t.Run("only roster judges may decide", func(t *testing.T) {
		_, err := services.Submission.JudgeDecision(ctx, video.ID, u2.ID, service.JudgeDecisionInput{Approve: true})
		assert.ErrorIs(t, err, domain.ErrNotAJudge)
	})

	t.Run("approval promotes the video and rotates the turn", func(t *testing.T) {
		decided, err := services.Submission.JudgeDecision(ctx, video.ID, organizer.ID, service.JudgeDecisionInput{Approve: true})
		require.NoError(t, err)

		require.NotNil(t, decided.IsApproved)
		assert.True(t, *decided.IsApproved)
		require.NotNil(t, decided.ApprovedBy)
		assert.Equal(t, organizer.ID, *decided.ApprovedBy)

		b, err := repos.Battle.GetByID(ctx, battle.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/attempt.mp4", b.ReferenceVideoURL)
		assert.Equal(t, "my kickflip", b.ReferenceVideoTitle)
		assert.Equal(t, 2, b.CurrentVideoSequence)

		var next domain.BattleParticipant
		require.NotNil(t, b.CurrentParticipantID)
		require.NoError(t, testDB.DB.First(&next, "id = ?", *b.CurrentParticipantID).Error)
		assert.Equal(t, u2.ID, next.UserID)
	})

	t.Run("a decision is written exactly once", func(t *testing.T) {
		_, err := services.Submission.JudgeDecision(ctx, video.ID, organizer.ID, service.JudgeDecisionInput{Approve: false})
		assert.ErrorIs(t, err, domain.ErrAlreadyJudged)

		// The first decision still stands
		var v domain.BattleVideo
		require.NoError(t, testDB.DB.First(&v, "id = ?", video.ID).Error)
		require.NotNil(t, v.IsApproved)
		assert.True(t, *v.IsApproved)
	})

	t.Run("unknown video", func(t *testing.T) {
		_, err := services.Submission.JudgeDecision(ctx, uuid.New(), organizer.ID, service.JudgeDecisionInput{Approve: true})
		assert.ErrorIs(t, err, domain.ErrVideoNotFound)
	})
}

func TestSubmissionService_DeclareWinner(t *testing.T) {
	testDB, repos, services := setupServices(t)
	ctx := context.Background()

	organizer := testutil.NewUserBuilder().Build(t, testDB.DB)
	u1 := testutil.NewUserBuilder().Build(t, testDB.DB)
	u2 := testutil.NewUserBuilder().Build(t, testDB.DB)

	battle := testutil.NewBattleBuilder(organizer).
		WithParticipants(u1, u2).
		WithPrize(50).
		Build(t, testDB.DB)
	_, err := services.Battle.StartBattle(ctx, battle.ID, organizer.ID)
	require.NoError(t, err)

	video, err := services.Submission.SubmitVideo(ctx, battle.ID, u1.ID, service.SubmitVideoInput{
		VideoURL: "https://cdn.test/finisher.mp4",
	})
	require.NoError(t, err)

	_, err = services.Submission.JudgeDecision(ctx, video.ID, organizer.ID, service.JudgeDecisionInput{
		Approve:       true,
		DeclareWinner: true,
	})
	require.NoError(t, err)

	b, err := repos.Battle.GetByID(ctx, battle.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BattleStatusCompleted, b.Status)
	require.NotNil(t, b.WinnerID)
	assert.Equal(t, u1.ID, *b.WinnerID)

	balance, err := services.Points.GetBalance(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, balance)

	videos, err := services.Submission.ListBattleVideos(ctx, battle.ID)
	require.NoError(t, err)
	assert.Len(t, videos, 1)
}
