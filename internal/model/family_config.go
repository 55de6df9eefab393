package model

import "time"

type NotificationFrequency string

const (
	NotifyDaily  NotificationFrequency = "daily"
	NotifyWeekly NotificationFrequency = "weekly"
	NotifyNever  NotificationFrequency = "never"
)

type FamilyConfig struct {
	ParentID              int64                 `json:"parent_id"`
	ShowLeaderboard       bool                  `json:"show_leaderboard"`
	AIValidation          bool                  `json:"ai_validation"`
	NotificationFrequency NotificationFrequency `json:"notification_frequency"`
	UpdatedAt             time.Time             `json:"updated_at"`
}
