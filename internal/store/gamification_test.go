package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famstack/famstack-client/internal/events"
	"github.com/famstack/famstack-client/internal/models"
)

func baseSummary() models.GamificationSummary {
	return models.GamificationSummary{
		UserID:        "user-1",
		Points:        100,
		Level:         2,
		CurrentStreak: 4,
		LongestStreak: 6,
		UpdatedAt:     time.Now().UTC().Truncate(time.Second),
	}
}

func TestGamificationHydrate(t *testing.T) {
	api := newFakeAPI(t)
	api.summary = baseSummary()

	s := NewGamificationStore(newTestDispatcher(), api.client(), nil, zerolog.Nop())
	defer s.Close()

	require.NoError(t, s.Hydrate(context.Background()))
	snap := s.Snapshot()
	assert.Equal(t, 100, snap.Points)
	assert.Equal(t, 2, snap.Level)
	assert.Equal(t, 4, snap.CurrentStreak)
}

func TestPointsUpdatedReplacesTotals(t *testing.T) {
	api := newFakeAPI(t)
	api.summary = baseSummary()

	d := newTestDispatcher()
	s := NewGamificationStore(d, api.client(), nil, zerolog.Nop())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background()))

	d.Emit(events.EventPointsUpdated, events.PointsUpdated{
		UserID: "user-1", PointsDelta: 25, TotalPoints: 125, Level: 3,
	})

	snap := s.Snapshot()
	assert.Equal(t, 125, snap.Points, "snapshot reflects the latest event, not an accumulation")
	assert.Equal(t, 3, snap.Level)
}

func TestStreakUpdated(t *testing.T) {
	api := newFakeAPI(t)
	api.summary = baseSummary()

	d := newTestDispatcher()
	s := NewGamificationStore(d, api.client(), nil, zerolog.Nop())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background()))

	d.Emit(events.EventStreakUpdated, events.StreakUpdated{
		UserID: "user-1", CurrentStreak: 7, LongestStreak: 7,
	})

	snap := s.Snapshot()
	assert.Equal(t, 7, snap.CurrentStreak)
	assert.Equal(t, 7, snap.LongestStreak)

	// A reset of the current streak never shrinks the longest one.
	d.Emit(events.EventStreakUpdated, events.StreakUpdated{
		UserID: "user-1", CurrentStreak: 0, LongestStreak: 0,
	})
	snap = s.Snapshot()
	assert.Equal(t, 0, snap.CurrentStreak)
	assert.Equal(t, 7, snap.LongestStreak)
}

func TestAchievementAndBadgeEventsDeduplicate(t *testing.T) {
	api := newFakeAPI(t)
	api.summary = baseSummary()

	d := newTestDispatcher()
	s := NewGamificationStore(d, api.client(), nil, zerolog.Nop())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background()))

	unlock := events.AchievementUnlocked{
		UserID:      "user-1",
		Achievement: models.Achievement{ID: "a-1", Name: "Streak Week", Points: 50},
	}
	d.Emit(events.EventAchievementUnlocked, unlock)
	d.Emit(events.EventAchievementUnlocked, unlock)

	earn := events.BadgeEarned{
		UserID: "user-1",
		Badge:  models.Badge{ID: "b-1", Name: "Helper", Tier: "silver"},
	}
	d.Emit(events.EventBadgeEarned, earn)
	d.Emit(events.EventBadgeEarned, earn)

	snap := s.Snapshot()
	require.Len(t, snap.AchievementsUnlocked, 1)
	require.Len(t, snap.BadgesEarned, 1)
	assert.Equal(t, "Streak Week", snap.AchievementsUnlocked[0].Name)
	assert.Equal(t, "Helper", snap.BadgesEarned[0].Name)
}

func TestEarlyGamificationEventsBufferedUntilHydration(t *testing.T) {
	api := newFakeAPI(t)
	api.summary = baseSummary()
	gate := make(chan struct{})
	api.gate = gate

	d := newTestDispatcher()
	s := NewGamificationStore(d, api.client(), nil, zerolog.Nop())
	defer s.Close()

	done := make(chan error, 1)
	go func() { done <- s.Hydrate(context.Background()) }()

	d.Emit(events.EventPointsUpdated, events.PointsUpdated{
		UserID: "user-1", PointsDelta: 10, TotalPoints: 110,
	})
	assert.Zero(t, s.Snapshot().Points, "nothing applied before hydration resolves")

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, 110, s.Snapshot().Points, "buffered event applied on top of the hydrated base")
}

func TestGamificationHydrationFailureDegradesToZeroState(t *testing.T) {
	api := newFakeAPI(t)
	api.setFail(true)

	d := newTestDispatcher()
	s := NewGamificationStore(d, api.client(), nil, zerolog.Nop())
	defer s.Close()

	require.Error(t, s.Hydrate(context.Background()))
	assert.Zero(t, s.Snapshot().Points)

	d.Emit(events.EventPointsUpdated, events.PointsUpdated{UserID: "user-1", TotalPoints: 40})
	assert.Equal(t, 40, s.Snapshot().Points)
}

func TestRedeemRewardAppliesRemainingBalance(t *testing.T) {
	api := newFakeAPI(t)
	api.summary = baseSummary()
	api.redemption = models.RewardRedemption{RewardID: "r-1", PointsSpent: 30, RemainingPoints: 70}

	s := NewGamificationStore(newTestDispatcher(), api.client(), nil, zerolog.Nop())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background()))

	result, err := s.RedeemReward(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, 30, result.PointsSpent)
	assert.Equal(t, 70, s.Snapshot().Points)
}

func TestGamificationCloseReleasesSubscriptions(t *testing.T) {
	api := newFakeAPI(t)
	d := newTestDispatcher()
	s := NewGamificationStore(d, api.client(), nil, zerolog.Nop())
	require.NoError(t, s.Hydrate(context.Background()))

	s.Close()
	assert.Equal(t, 0, d.SubscriberCount(events.EventPointsUpdated))

	d.Emit(events.EventPointsUpdated, events.PointsUpdated{UserID: "user-1", TotalPoints: 999})
	assert.NotEqual(t, 999, s.Snapshot().Points)
}
