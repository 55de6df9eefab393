package model

import "time"

type Reward struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	PointCost   int       `json:"point_cost"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
}

type RewardRedemption struct {
	ID          int64     `json:"id"`
	RewardID    int64     `json:"reward_id"`
	KidID       int64     `json:"kid_id"`
	PointsSpent int       `json:"points_spent"`
	RedeemedAt  time.Time `json:"redeemed_at"`
}

// PointBalance is what a kid has earned versus spent on rewards.
type PointBalance struct {
	KidID       int64  `json:"kid_id"`
	KidName     string `json:"kid_name"`
	TotalEarned int    `json:"total_earned"`
	TotalSpent  int    `json:"total_spent"`
	Balance     int    `json:"balance"`
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	KidID  int64  `json:"kid_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Points int    `json:"points"`
	Streak int    `json:"streak"`
}
