package model

import "time"

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyWeekday Frequency = "weekday"
	FrequencyWeekend Frequency = "weekend"
)

type VerificationType string

const (
	VerificationNone  VerificationType = "none"
	VerificationPhoto VerificationType = "photo"
	VerificationVideo VerificationType = "video"
)

type Task struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	Icon             string           `json:"icon"`
	Points           int              `json:"points"`
	Frequency        Frequency        `json:"frequency"`
	VerificationType VerificationType `json:"verification_type"`
	Enabled          bool             `json:"enabled"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// RequiresEvidence reports whether a completion of this task needs a photo or video.
func (t Task) RequiresEvidence() bool {
	return t.VerificationType == VerificationPhoto || t.VerificationType == VerificationVideo
}
