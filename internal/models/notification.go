package models

import "time"

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

type NotificationType string

const (
	NotificationTypeTaskAssigned     NotificationType = "task_assigned"
	NotificationTypeTaskCompleted    NotificationType = "task_completed"
	NotificationTypeTaskDue          NotificationType = "task_due"
	NotificationTypeFamilyInvite     NotificationType = "family_invite"
	NotificationTypeAchievement      NotificationType = "achievement"
	NotificationTypeRewardRedeemed   NotificationType = "reward_redeemed"
	NotificationTypeCalendarReminder NotificationType = "calendar_reminder"
	NotificationTypeSystem           NotificationType = "system"
)

type Notification struct {
	ID        string               `json:"id" db:"id"`
	UserID    string               `json:"userId" db:"user_id"`
	Type      NotificationType     `json:"type" db:"type"`
	Title     string               `json:"title" db:"title"`
	Message   string               `json:"message" db:"message"`
	Priority  NotificationPriority `json:"priority" db:"priority"`
	IsRead    bool                 `json:"isRead" db:"is_read"`
	Timestamp time.Time            `json:"timestamp" db:"timestamp"`
}
