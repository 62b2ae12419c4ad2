package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	telegramID  int64
	displayName string
	points      int
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		telegramID:  rand.Int63n(1_000_000_000) + 1,
		displayName: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
	}
}

// WithTelegramID sets the telegram id
func (b *UserBuilder) WithTelegramID(id int64) *UserBuilder {
	b.telegramID = id
	return b
}

// WithDisplayName sets the display name
func (b *UserBuilder) WithDisplayName(name string) *UserBuilder {
	b.displayName = name
	return b
}

// WithPoints sets the starting point balance
func (b *UserBuilder) WithPoints(points int) *UserBuilder {
	b.points = points
	return b
}

// Build creates the user in the database
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:          uuid.New(),
		TelegramID:  b.telegramID,
		DisplayName: b.displayName,
		Points:      b.points,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User struct {
		ID          string `json:"id"`
		TelegramID  int64  `json:"telegramId"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// BuildAndAuthenticate logs the user in via the API and returns the user and
// access token. Relies on the test config's empty bot token, which skips the
// initData signature check.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	tgUser, _ := json.Marshal(map[string]interface{}{
		"id":         b.telegramID,
		"first_name": b.displayName,
	})
	initData := url.Values{
		"user":      {string(tgUser)},
		"auth_date": {fmt.Sprintf("%d", time.Now().Unix())},
	}.Encode()

	body, _ := json.Marshal(map[string]string{"initData": initData})
	resp, err := http.Post(ts.APIURL("/auth/telegram"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to log in user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	user := &domain.User{
		ID:          userID,
		TelegramID:  authResp.User.TelegramID,
		DisplayName: authResp.User.DisplayName,
	}

	return user, authResp.AccessToken
}

// BattleBuilder creates test battles with a builder pattern
type BattleBuilder struct {
	organizer        *domain.User
	title            string
	status           domain.BattleStatus
	timeLimitMinutes int
	prizePoints      int
	participants     []*domain.User
	judges           []*domain.User
}

// NewBattleBuilder creates a new BattleBuilder with default values
func NewBattleBuilder(organizer *domain.User) *BattleBuilder {
	return &BattleBuilder{
		organizer:        organizer,
		title:            fmt.Sprintf("Test Battle %s", uuid.New().String()[:8]),
		status:           domain.BattleStatusRegistration,
		timeLimitMinutes: 60,
	}
}

// WithTitle sets the battle title
func (b *BattleBuilder) WithTitle(title string) *BattleBuilder {
	b.title = title
	return b
}

// WithStatus sets the battle status
func (b *BattleBuilder) WithStatus(status domain.BattleStatus) *BattleBuilder {
	b.status = status
	return b
}

// WithTimeLimit sets the per-turn time limit in minutes
func (b *BattleBuilder) WithTimeLimit(minutes int) *BattleBuilder {
	b.timeLimitMinutes = minutes
	return b
}

// WithPrize sets the winner's prize points
func (b *BattleBuilder) WithPrize(points int) *BattleBuilder {
	b.prizePoints = points
	return b
}

// WithParticipants registers the given users in join order
func (b *BattleBuilder) WithParticipants(users ...*domain.User) *BattleBuilder {
	b.participants = append(b.participants, users...)
	return b
}

// WithJudges adds the given users to the judge roster (the organizer is
// always added)
func (b *BattleBuilder) WithJudges(users ...*domain.User) *BattleBuilder {
	b.judges = append(b.judges, users...)
	return b
}

// Build creates the battle, its participants and its judge roster in the
// database
func (b *BattleBuilder) Build(t *testing.T, db *gorm.DB) *domain.Battle {
	t.Helper()

	battle := &domain.Battle{
		ID:                   uuid.New(),
		Title:                b.title,
		ShareSlug:            fmt.Sprintf("test-battle-%s", uuid.New().String()[:8]),
		ReferenceVideoURL:    "https://cdn.test/reference.mp4",
		OrganizerID:          b.organizer.ID,
		Status:               b.status,
		TimeLimitMinutes:     b.timeLimitMinutes,
		PrizePoints:          b.prizePoints,
		CurrentVideoSequence: 1,
		CreatedAt:            time.Now(),
	}

	if err := db.Create(battle).Error; err != nil {
		t.Fatalf("failed to create battle: %v", err)
	}

	for i, user := range b.participants {
		participant := &domain.BattleParticipant{
			ID:        uuid.New(),
			BattleID:  battle.ID,
			UserID:    user.ID,
			Status:    domain.ParticipantStatusActive,
			JoinOrder: i,
			JoinedAt:  time.Now(),
		}
		if err := db.Create(participant).Error; err != nil {
			t.Fatalf("failed to create participant: %v", err)
		}
	}

	for _, user := range append([]*domain.User{b.organizer}, b.judges...) {
		judge := &domain.BattleJudge{
			ID:       uuid.New(),
			BattleID: battle.ID,
			UserID:   user.ID,
			AddedAt:  time.Now(),
		}
		if err := db.Create(judge).Error; err != nil {
			t.Fatalf("failed to create judge: %v", err)
		}
	}

	return battle
}

// AchievementBuilder creates test achievements with a builder pattern
type AchievementBuilder struct {
	name         string
	category     string
	targetValue  int
	rewardPoints int
	isActive     bool
}

// NewAchievementBuilder creates a new AchievementBuilder with default values
func NewAchievementBuilder(category string) *AchievementBuilder {
	return &AchievementBuilder{
		name:        fmt.Sprintf("achievement_%s", uuid.New().String()[:8]),
		category:    category,
		targetValue: 1,
		isActive:    true,
	}
}

// WithName sets the achievement name
func (b *AchievementBuilder) WithName(name string) *AchievementBuilder {
	b.name = name
	return b
}

// WithTarget sets the target value
func (b *AchievementBuilder) WithTarget(target int) *AchievementBuilder {
	b.targetValue = target
	return b
}

// WithReward sets the reward points
func (b *AchievementBuilder) WithReward(points int) *AchievementBuilder {
	b.rewardPoints = points
	return b
}

// Inactive marks the achievement as inactive
func (b *AchievementBuilder) Inactive() *AchievementBuilder {
	b.isActive = false
	return b
}

// Build creates the achievement in the database
func (b *AchievementBuilder) Build(t *testing.T, db *gorm.DB) *domain.Achievement {
	t.Helper()

	achievement := &domain.Achievement{
		ID:           uuid.New(),
		Name:         b.name,
		Category:     b.category,
		TargetValue:  b.targetValue,
		RewardPoints: b.rewardPoints,
		IsActive:     b.isActive,
		CreatedAt:    time.Now(),
	}

	if err := db.Create(achievement).Error; err != nil {
		t.Fatalf("failed to create achievement: %v", err)
	}

	return achievement
}
