package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/happyloop/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

// --- Reward methods ---

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var available int

	err := scanner.Scan(&r.ID, &r.Name, &r.Description, &r.Image, &r.PointCost, &available, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.Available = available != 0
	return &r, nil
}

const rewardCols = `id, name, description, image, point_cost, available, created_at`

func (s *RewardStore) Create(name, description, image string, pointCost int, available bool) (*model.Reward, error) {
	result, err := s.db.Exec(
		`INSERT INTO rewards (name, description, image, point_cost, available) VALUES (?, ?, ?, ?, ?)`,
		name, description, image, pointCost, boolInt(available),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id int64) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// List returns all rewards, available first, then by cost.
func (s *RewardStore) List() ([]model.Reward, error) {
	return s.list(`SELECT ` + rewardCols + ` FROM rewards ORDER BY available DESC, point_cost ASC, name ASC`)
}

// ListAvailable returns only available rewards, cheapest first.
func (s *RewardStore) ListAvailable() ([]model.Reward, error) {
	return s.list(`SELECT ` + rewardCols + ` FROM rewards WHERE available = 1 ORDER BY point_cost ASC, name ASC`)
}

func (s *RewardStore) list(q string) ([]model.Reward, error) {
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

// Names returns the set of reward names already in the catalog.
func (s *RewardStore) Names() (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT name FROM rewards`)
	if err != nil {
		return nil, fmt.Errorf("list reward names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan reward name: %w", err)
		}
		names[n] = true
	}
	return names, rows.Err()
}

func (s *RewardStore) Update(id int64, name, description, image string, pointCost int, available bool) (*model.Reward, error) {
	_, err := s.db.Exec(
		`UPDATE rewards SET name = ?, description = ?, image = ?, point_cost = ?, available = ? WHERE id = ?`,
		name, description, image, pointCost, boolInt(available), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a reward. Redeemed rewards return ErrRewardInUse so spent
// points stay spent; mark them unavailable instead.
func (s *RewardStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return ErrRewardInUse
	}
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// --- Redemption methods ---

func scanRedemption(scanner interface{ Scan(...any) error }) (*model.RewardRedemption, error) {
	var r model.RewardRedemption
	err := scanner.Scan(&r.ID, &r.RewardID, &r.KidID, &r.PointsSpent, &r.RedeemedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const redemptionCols = `id, reward_id, kid_id, points_spent, redeemed_at`

// Redeem spends a kid's points on a reward. The balance check and the insert
// share one transaction. A missing or disabled reward returns
// ErrRewardUnavailable; a short balance returns ErrInsufficientPoints.
func (s *RewardStore) Redeem(rewardID, kidID int64) (*model.RewardRedemption, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var cost, available int
	err = tx.QueryRow(`SELECT point_cost, available FROM rewards WHERE id = ?`, rewardID).Scan(&cost, &available)
	if err == sql.ErrNoRows || (err == nil && available == 0) {
		return nil, ErrRewardUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("get reward cost: %w", err)
	}

	balance, err := balanceTx(tx, kidID)
	if err != nil {
		return nil, err
	}
	if balance < cost {
		return nil, fmt.Errorf("%w: balance %d, cost %d", ErrInsufficientPoints, balance, cost)
	}

	result, err := tx.Exec(
		`INSERT INTO reward_redemptions (reward_id, kid_id, points_spent) VALUES (?, ?, ?)`,
		rewardID, kidID, cost,
	)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	r, err := scanRedemption(tx.QueryRow(`SELECT `+redemptionCols+` FROM reward_redemptions WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit redemption: %w", err)
	}
	return r, nil
}

func balanceTx(tx *sql.Tx, kidID int64) (int, error) {
	var balance int
	err := tx.QueryRow(
		`SELECT k.points - COALESCE((SELECT SUM(points_spent) FROM reward_redemptions WHERE kid_id = k.id), 0)
		 FROM kids k WHERE k.id = ?`,
		kidID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (s *RewardStore) ListRedemptionsByKid(kidID int64) ([]model.RewardRedemption, error) {
	rows, err := s.db.Query(
		`SELECT `+redemptionCols+` FROM reward_redemptions WHERE kid_id = ? ORDER BY redeemed_at DESC, id DESC`,
		kidID,
	)
	if err != nil {
		return nil, fmt.Errorf("list redemptions by kid: %w", err)
	}
	defer rows.Close()

	var redemptions []model.RewardRedemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}

// --- Point balance methods ---

const balanceQuery = `SELECT id, name, earned, spent, earned - spent AS balance FROM (
	SELECT k.id, k.name, k.parent_id, k.points AS earned,
	       COALESCE((SELECT SUM(points_spent) FROM reward_redemptions WHERE kid_id = k.id), 0) AS spent
	FROM kids k)`

func scanBalance(scanner interface{ Scan(...any) error }) (*model.PointBalance, error) {
	var b model.PointBalance
	if err := scanner.Scan(&b.KidID, &b.KidName, &b.TotalEarned, &b.TotalSpent, &b.Balance); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetPointBalance computes a kid's balance: recomputed points minus spent.
func (s *RewardStore) GetPointBalance(kidID int64) (*model.PointBalance, error) {
	b, err := scanBalance(s.db.QueryRow(balanceQuery+` WHERE id = ?`, kidID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get point balance: %w", err)
	}
	return b, nil
}

// ListPointBalances returns balances for a parent's kids, highest first.
func (s *RewardStore) ListPointBalances(parentID int64) ([]model.PointBalance, error) {
	rows, err := s.db.Query(balanceQuery+` WHERE parent_id = ? ORDER BY balance DESC, name ASC`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list point balances: %w", err)
	}
	defer rows.Close()

	var balances []model.PointBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan point balance: %w", err)
		}
		balances = append(balances, *b)
	}
	return balances, rows.Err()
}

// Leaderboard ranks a parent's kids by points. Ties share a rank.
func (s *RewardStore) Leaderboard(parentID int64) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, name, avatar, points, streak FROM kids WHERE parent_id = ? ORDER BY points DESC, streak DESC, name ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.KidID, &e.Name, &e.Avatar, &e.Points, &e.Streak); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		e.Rank = len(entries) + 1
		if n := len(entries); n > 0 && entries[n-1].Points == e.Points {
			e.Rank = entries[n-1].Rank
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
