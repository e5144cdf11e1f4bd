// Package events defines the wire envelope pushed by the hub and the typed
// payloads it carries. Payload shapes are fixed at this boundary so that the
// rest of the client never handles untyped JSON.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/famstack/famstack-client/internal/models"
)

// Event names as sent by the hub.
const (
	EventReceiveNotification       = "ReceiveNotification"
	EventNotificationStatusUpdated = "NotificationStatusUpdated"
	EventUnreadCountUpdated        = "UnreadCountUpdated"
	EventPointsUpdated             = "PointsUpdated"
	EventStreakUpdated             = "StreakUpdated"
	EventAchievementUnlocked       = "AchievementUnlocked"
	EventBadgeEarned               = "BadgeEarned"
)

// Envelope is the frame format for every hub push: an event name plus a
// payload whose shape depends on the name.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Payload is implemented by every decoded event variant.
type Payload interface {
	eventPayload()
}

// ReceiveNotification is pushed when a new notification is created for the
// connected user.
type ReceiveNotification struct {
	NotificationID string                      `json:"notificationId"`
	UserID         string                      `json:"userId"`
	Type           models.NotificationType     `json:"type"`
	Title          string                      `json:"title"`
	Message        string                      `json:"message"`
	Priority       models.NotificationPriority `json:"priority"`
	Timestamp      time.Time                   `json:"timestamp"`
}

func (ReceiveNotification) eventPayload() {}

// Notification converts the push payload into the client's notification model.
func (p ReceiveNotification) Notification() models.Notification {
	priority := p.Priority
	if priority == "" {
		priority = models.NotificationPriorityNormal
	}
	return models.Notification{
		ID:        p.NotificationID,
		UserID:    p.UserID,
		Type:      p.Type,
		Title:     p.Title,
		Message:   p.Message,
		Priority:  priority,
		Timestamp: p.Timestamp,
	}
}

// NotificationStatusUpdated is pushed when a notification's read flag changes
// on another device or via the backend.
type NotificationStatusUpdated struct {
	NotificationID string `json:"notificationId"`
	UserID         string `json:"userId"`
	IsRead         bool   `json:"isRead"`
}

func (NotificationStatusUpdated) eventPayload() {}

type UnreadCountUpdated struct {
	UserID      string `json:"userId"`
	UnreadCount int    `json:"unreadCount"`
}

func (UnreadCountUpdated) eventPayload() {}

// PointsUpdated carries both the delta that triggered it and the resulting
// totals so the client can replace its snapshot instead of accumulating.
type PointsUpdated struct {
	UserID      string `json:"userId"`
	PointsDelta int    `json:"pointsDelta"`
	TotalPoints int    `json:"totalPoints"`
	Level       int    `json:"level"`
	Reason      string `json:"reason,omitempty"`
}

func (PointsUpdated) eventPayload() {}

type StreakUpdated struct {
	UserID        string `json:"userId"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
}

func (StreakUpdated) eventPayload() {}

type AchievementUnlocked struct {
	UserID      string             `json:"userId"`
	Achievement models.Achievement `json:"achievement"`
}

func (AchievementUnlocked) eventPayload() {}

type BadgeEarned struct {
	UserID string       `json:"userId"`
	Badge  models.Badge `json:"badge"`
}

func (BadgeEarned) eventPayload() {}

// Raw carries an event the client does not recognize. Unknown events are
// passed through rather than dropped so subscribers can opt in by name.
type Raw struct {
	Event   string
	Payload json.RawMessage
}

func (Raw) eventPayload() {}

// Decode parses a raw hub frame into an Envelope and its typed payload.
func Decode(frame []byte) (Envelope, Payload, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("decoding event envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, nil, fmt.Errorf("event frame missing event name")
	}

	payload, err := decodePayload(env.Event, env.Payload)
	if err != nil {
		return Envelope{}, nil, err
	}
	return env, payload, nil
}

func decodePayload(event string, raw json.RawMessage) (Payload, error) {
	unmarshal := func(v Payload) (Payload, error) {
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", event, err)
		}
		return v, nil
	}

	switch event {
	case EventReceiveNotification:
		p, err := unmarshal(&ReceiveNotification{})
		if err != nil {
			return nil, err
		}
		return *p.(*ReceiveNotification), nil
	case EventNotificationStatusUpdated:
		p, err := unmarshal(&NotificationStatusUpdated{})
		if err != nil {
			return nil, err
		}
		return *p.(*NotificationStatusUpdated), nil
	case EventUnreadCountUpdated:
		p, err := unmarshal(&UnreadCountUpdated{})
		if err != nil {
			return nil, err
		}
		return *p.(*UnreadCountUpdated), nil
	case EventPointsUpdated:
		p, err := unmarshal(&PointsUpdated{})
		if err != nil {
			return nil, err
		}
		return *p.(*PointsUpdated), nil
	case EventStreakUpdated:
		p, err := unmarshal(&StreakUpdated{})
		if err != nil {
			return nil, err
		}
		return *p.(*StreakUpdated), nil
	case EventAchievementUnlocked:
		p, err := unmarshal(&AchievementUnlocked{})
		if err != nil {
			return nil, err
		}
		return *p.(*AchievementUnlocked), nil
	case EventBadgeEarned:
		p, err := unmarshal(&BadgeEarned{})
		if err != nil {
			return nil, err
		}
		return *p.(*BadgeEarned), nil
	default:
		return Raw{Event: event, Payload: raw}, nil
	}
}
