package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famstack/famstack-client/internal/models"
)

func TestDecodeReceiveNotification(t *testing.T) {
	frame := []byte(`{
		"event": "ReceiveNotification",
		"payload": {
			"notificationId": "n-1",
			"userId": "u-1",
			"type": "task_assigned",
			"title": "New chore",
			"message": "Take out the trash",
			"priority": "high",
			"timestamp": "2026-08-30T10:00:00Z"
		}
	}`)

	env, payload, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, EventReceiveNotification, env.Event)

	p, ok := payload.(ReceiveNotification)
	require.True(t, ok)
	assert.Equal(t, "n-1", p.NotificationID)
	assert.Equal(t, models.NotificationTypeTaskAssigned, p.Type)
	assert.Equal(t, models.NotificationPriorityHigh, p.Priority)

	n := p.Notification()
	assert.Equal(t, "n-1", n.ID)
	assert.False(t, n.IsRead)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), n.Timestamp)
}

func TestDecodeDefaultsMissingPriority(t *testing.T) {
	frame := []byte(`{
		"event": "ReceiveNotification",
		"payload": {"notificationId": "n-2", "userId": "u-1", "type": "system", "title": "t", "message": "m"}
	}`)

	_, payload, err := Decode(frame)
	require.NoError(t, err)

	n := payload.(ReceiveNotification).Notification()
	assert.Equal(t, models.NotificationPriorityNormal, n.Priority)
}

func TestDecodeGamificationEvents(t *testing.T) {
	_, payload, err := Decode([]byte(`{"event": "PointsUpdated", "payload": {"userId": "u-1", "pointsDelta": 5, "totalPoints": 120, "level": 3}}`))
	require.NoError(t, err)
	points, ok := payload.(PointsUpdated)
	require.True(t, ok)
	assert.Equal(t, 120, points.TotalPoints)
	assert.Equal(t, 3, points.Level)

	_, payload, err = Decode([]byte(`{"event": "StreakUpdated", "payload": {"userId": "u-1", "currentStreak": 7, "longestStreak": 9}}`))
	require.NoError(t, err)
	streak, ok := payload.(StreakUpdated)
	require.True(t, ok)
	assert.Equal(t, 7, streak.CurrentStreak)

	_, payload, err = Decode([]byte(`{"event": "BadgeEarned", "payload": {"userId": "u-1", "badge": {"id": "b-1", "name": "Early Bird", "tier": "gold"}}}`))
	require.NoError(t, err)
	badge, ok := payload.(BadgeEarned)
	require.True(t, ok)
	assert.Equal(t, "Early Bird", badge.Badge.Name)
}

func TestDecodeUnknownEventPassesThroughAsRaw(t *testing.T) {
	env, payload, err := Decode([]byte(`{"event": "FamilyRenamed", "payload": {"name": "The Parkers"}}`))
	require.NoError(t, err)
	assert.Equal(t, "FamilyRenamed", env.Event)

	raw, ok := payload.(Raw)
	require.True(t, ok)
	assert.Equal(t, "FamilyRenamed", raw.Event)
	assert.JSONEq(t, `{"name": "The Parkers"}`, string(raw.Payload))
}

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	_, _, err := Decode([]byte(`not json`))
	require.Error(t, err)

	_, _, err = Decode([]byte(`{"payload": {}}`))
	require.Error(t, err, "frames without an event name are rejected")

	_, _, err = Decode([]byte(`{"event": "UnreadCountUpdated", "payload": {"unreadCount": "three"}}`))
	require.Error(t, err, "payload fields must match the declared shape")
}
