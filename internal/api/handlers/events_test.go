package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trickspot/backend/internal/domain"
	"github.com/trickspot/backend/internal/testutil"
)

func TestEventsEndpoint(t *testing.T) {
	ts := testutil.NewTestServer(t)

	owner, _ := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	testutil.NewAchievementBuilder(domain.CategoryViewsReceived).
		WithTarget(100).Build(t, ts.DB.DB)

	resp := postJSON(t, ts.APIURL("/internal/events"), "", map[string]interface{}{
		"kind":     "video_viewed",
		"userId":   owner.ID.String(),
		"newTotal": 7,
	})
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	balance, err := ts.Services.Points.GetBalance(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, balance)

	t.Run("unknown kinds are rejected", func(t *testing.T) {
		resp := postJSON(t, ts.APIURL("/internal/events"), "", map[string]interface{}{
			"kind":   "video_remixed",
			"userId": owner.ID.String(),
		})
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Unknown event kind")
	})
}
