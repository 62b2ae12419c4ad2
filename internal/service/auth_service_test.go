package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trickspot/backend/internal/service"
)

func telegramInitData(t *testing.T, telegramID int64, firstName string) string {
	t.Helper()

	user, err := json.Marshal(map[string]interface{}{
		"id":         telegramID,
		"first_name": firstName,
	})
	require.NoError(t, err)

	return url.Values{
		"user":      {string(user)},
		"auth_date": {fmt.Sprintf("%d", time.Now().Unix())},
	}.Encode()
}

func TestAuthService_TelegramLogin(t *testing.T) {
	_, _, services := setupServices(t)
	ctx := context.Background()

	result, err := services.Auth.TelegramLogin(ctx, telegramInitData(t, 424242, "Tony"))
	require.NoError(t, err)

	assert.Equal(t, int64(424242), result.User.TelegramID)
	assert.Equal(t, "Tony", result.User.DisplayName)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	// A second login for the same Telegram account reuses the user row
	again, err := services.Auth.TelegramLogin(ctx, telegramInitData(t, 424242, "Tony H."))
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, again.User.ID)
	assert.Equal(t, "Tony H.", again.User.DisplayName)

	// The access token carries the user id
	claims, err := services.Auth.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.String(), (*claims)["sub"])
}

func TestAuthService_TelegramLogin_InvalidPayload(t *testing.T) {
	_, _, services := setupServices(t)
	ctx := context.Background()

	_, err := services.Auth.TelegramLogin(ctx, "user=not-json&auth_date=1")
	assert.ErrorIs(t, err, service.ErrInvalidInitData)

	_, err = services.Auth.TelegramLogin(ctx, "auth_date=1")
	assert.ErrorIs(t, err, service.ErrInvalidInitData)
}

func TestAuthService_RefreshTokens(t *testing.T) {
	_, _, services := setupServices(t)
	ctx := context.Background()

	result, err := services.Auth.TelegramLogin(ctx, telegramInitData(t, 777, "Rider"))
	require.NoError(t, err)

	refreshed, err := services.Auth.RefreshTokens(ctx, result.User.ID, result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// Refresh rotated the session; the old token is dead
	_, err = services.Auth.RefreshTokens(ctx, result.User.ID, result.RefreshToken)
	assert.ErrorIs(t, err, service.ErrInvalidRefreshToken)

	// Logout kills the current session too
	require.NoError(t, services.Auth.Logout(ctx, result.User.ID))
	_, err = services.Auth.RefreshTokens(ctx, result.User.ID, refreshed.RefreshToken)
	assert.ErrorIs(t, err, service.ErrInvalidRefreshToken)
}
