package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/happyloop/internal/model"
)

type FamilyConfigStore struct {
	db *sql.DB
}

func NewFamilyConfigStore(db *sql.DB) *FamilyConfigStore {
	return &FamilyConfigStore{db: db}
}

// Get returns a parent's family config, creating it with defaults on first read.
func (s *FamilyConfigStore) Get(parentID int64) (*model.FamilyConfig, error) {
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO family_configs (parent_id) VALUES (?)`, parentID); err != nil {
		return nil, fmt.Errorf("ensure family config: %w", err)
	}

	var c model.FamilyConfig
	var leaderboard, ai int
	err := s.db.QueryRow(
		`SELECT parent_id, show_leaderboard, ai_validation, notification_frequency, updated_at FROM family_configs WHERE parent_id = ?`,
		parentID,
	).Scan(&c.ParentID, &leaderboard, &ai, &c.NotificationFrequency, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get family config: %w", err)
	}
	c.ShowLeaderboard = leaderboard != 0
	c.AIValidation = ai != 0
	return &c, nil
}

func (s *FamilyConfigStore) Update(parentID int64, showLeaderboard, aiValidation bool, freq model.NotificationFrequency) (*model.FamilyConfig, error) {
	_, err := s.db.Exec(
		`INSERT INTO family_configs (parent_id, show_leaderboard, ai_validation, notification_frequency) VALUES (?, ?, ?, ?)
		 ON CONFLICT (parent_id) DO UPDATE SET
		   show_leaderboard = excluded.show_leaderboard,
		   ai_validation = excluded.ai_validation,
		   notification_frequency = excluded.notification_frequency,
		   updated_at = CURRENT_TIMESTAMP`,
		parentID, boolInt(showLeaderboard), boolInt(aiValidation), freq,
	)
	if err != nil {
		return nil, fmt.Errorf("update family config: %w", err)
	}
	return s.Get(parentID)
}
