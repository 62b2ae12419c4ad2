package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trickspot/backend/internal/domain"
	"github.com/trickspot/backend/internal/service"
	"github.com/trickspot/backend/internal/testutil"
)

func TestScoringService_HandleEvent(t *testing.T) {
	testDB, repos, services := setupServices(t)
	ctx := context.Background()

	owner := testutil.NewUserBuilder().Build(t, testDB.DB)
	actor := testutil.NewUserBuilder().Build(t, testDB.DB)

	likes := testutil.NewAchievementBuilder(domain.CategoryLikesReceived).
		WithTarget(3).WithReward(20).Build(t, testDB.DB)
	social := testutil.NewAchievementBuilder(domain.CategorySocialLike).
		WithTarget(1).WithReward(5).Build(t, testDB.DB)

	t.Run("unknown kind", func(t *testing.T) {
		err := services.Scoring.HandleEvent(ctx, service.EngagementEvent{
			Kind:   "video_remixed",
			UserID: owner.ID,
		})
		assert.ErrorIs(t, err, service.ErrUnknownEventKind)
	})

	t.Run("like credits the owner and the actor's social one-shot", func(t *testing.T) {
		err := services.Scoring.HandleEvent(ctx, service.EngagementEvent{
			Kind:     service.EventKindVideoLiked,
			UserID:   owner.ID,
			ActorID:  &actor.ID,
			NewTotal: 1,
		})
		require.NoError(t, err)

		balance, err := services.Points.GetBalance(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, balance)

		entries, err := services.Points.GetTransactions(ctx, owner.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.PointReasonVideoLiked, entries[0].Reason)

		var row domain.UserAchievementProgress
		require.NoError(t, testDB.DB.First(&row, "user_id = ? AND achievement_id = ?", owner.ID, likes.ID).Error)
		assert.Equal(t, 1, row.CurrentProgress)

		// The actor completed the social one-shot and got its reward
		require.NoError(t, testDB.DB.First(&row, "user_id = ? AND achievement_id = ?", actor.ID, social.ID).Error)
		assert.True(t, row.IsCompleted)

		actorBalance, err := services.Points.GetBalance(ctx, actor.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, actorBalance)
	})

	t.Run("replayed totals do not inflate progress", func(t *testing.T) {
		err := services.Scoring.HandleEvent(ctx, service.EngagementEvent{
			Kind:     service.EventKindVideoLiked,
			UserID:   owner.ID,
			ActorID:  &actor.ID,
			NewTotal: 1,
		})
		require.NoError(t, err)

		var row domain.UserAchievementProgress
		require.NoError(t, testDB.DB.First(&row, "user_id = ? AND achievement_id = ?", owner.ID, likes.ID).Error)
		assert.Equal(t, 1, row.CurrentProgress)
		assert.False(t, row.IsCompleted)
	})

	t.Run("streak progress keeps the best streak", func(t *testing.T) {
		streaks := testutil.NewAchievementBuilder(domain.CategoryLikeStreak).
			WithTarget(7).WithReward(0).Build(t, testDB.DB)

		for _, length := range []int{3, 5, 2} {
			err := services.Scoring.HandleEvent(ctx, service.EngagementEvent{
				Kind:         service.EventKindVideoLiked,
				UserID:       owner.ID,
				NewTotal:     1,
				StreakLength: length,
			})
			require.NoError(t, err)
		}

		var row domain.UserAchievementProgress
		require.NoError(t, testDB.DB.First(&row, "user_id = ? AND achievement_id = ?", owner.ID, streaks.ID).Error)
		assert.Equal(t, 5, row.CurrentProgress)
	})

	t.Run("first comment is a one-shot", func(t *testing.T) {
		first := testutil.NewAchievementBuilder(domain.CategoryFirstComment).
			WithTarget(1).WithReward(0).Build(t, testDB.DB)

		err := services.Scoring.HandleEvent(ctx, service.EngagementEvent{
			Kind:     service.EventKindCommentPosted,
			UserID:   owner.ID,
			NewTotal: 1,
		})
		require.NoError(t, err)

		var row domain.UserAchievementProgress
		require.NoError(t, testDB.DB.First(&row, "user_id = ? AND achievement_id = ?", owner.ID, first.ID).Error)
		assert.True(t, row.IsCompleted)
	})

	t.Run("daily winner increments", func(t *testing.T) {
		wins := testutil.NewAchievementBuilder(domain.CategoryWins).
			WithTarget(2).WithReward(0).Build(t, testDB.DB)

		for i := 0; i < 2; i++ {
			err := services.Scoring.HandleEvent(ctx, service.EngagementEvent{
				Kind:   service.EventKindDailyWinner,
				UserID: owner.ID,
			})
			require.NoError(t, err)
		}

		var row domain.UserAchievementProgress
		require.NoError(t, testDB.DB.First(&row, "user_id = ? AND achievement_id = ?", owner.ID, wins.ID).Error)
		assert.Equal(t, 2, row.CurrentProgress)
		assert.True(t, row.IsCompleted)

		entries, err := repos.Points.ListByUser(ctx, owner.ID, 20, 0)
		require.NoError(t, err)

		daily := 0
		for _, e := range entries {
			if e.Reason == domain.PointReasonDailyWinner {
				daily++
				assert.Equal(t, 50, e.Amount)
			}
		}
		assert.Equal(t, 2, daily)
	})
}
