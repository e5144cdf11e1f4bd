package models

import "time"

type Achievement struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Points     int       `json:"points" db:"points"`
	UnlockedAt time.Time `json:"unlockedAt" db:"unlocked_at"`
}

type Badge struct {
	ID       string    `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Tier     string    `json:"tier" db:"tier"`
	EarnedAt time.Time `json:"earnedAt" db:"earned_at"`
}

// GamificationSummary is the backend's view of a user's progress. The
// realtime layer replaces it wholesale; it is never merged field by field.
type GamificationSummary struct {
	UserID               string        `json:"userId" db:"user_id"`
	Points               int           `json:"points" db:"points"`
	Level                int           `json:"level" db:"level"`
	CurrentStreak        int           `json:"currentStreak" db:"current_streak"`
	LongestStreak        int           `json:"longestStreak" db:"longest_streak"`
	AchievementsUnlocked []Achievement `json:"achievementsUnlocked"`
	BadgesEarned         []Badge       `json:"badgesEarned"`
	UpdatedAt            time.Time     `json:"updatedAt" db:"updated_at"`
}

type RewardRedemption struct {
	RewardID        string `json:"rewardId"`
	PointsSpent     int    `json:"pointsSpent"`
	RemainingPoints int    `json:"remainingPoints"`
}
