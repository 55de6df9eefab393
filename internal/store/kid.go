package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/happyloop/internal/model"
)

type KidStore struct {
	db *sql.DB
}

func NewKidStore(db *sql.DB) *KidStore {
	return &KidStore{db: db}
}

func scanKid(scanner interface{ Scan(...any) error }) (*model.Kid, error) {
	var k model.Kid
	err := scanner.Scan(&k.ID, &k.ParentID, &k.Name, &k.Age, &k.Avatar, &k.Points, &k.Streak, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

const kidCols = `id, parent_id, name, age, avatar, points, streak, created_at, updated_at`

func (s *KidStore) Create(parentID int64, name string, age int, avatar string) (*model.Kid, error) {
	result, err := s.db.Exec(
		`INSERT INTO kids (parent_id, name, age, avatar) VALUES (?, ?, ?, ?)`,
		parentID, name, age, avatar,
	)
	if err != nil {
		return nil, fmt.Errorf("insert kid: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *KidStore) GetByID(id int64) (*model.Kid, error) {
	row := s.db.QueryRow(`SELECT `+kidCols+` FROM kids WHERE id = ?`, id)
	k, err := scanKid(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get kid: %w", err)
	}
	return k, nil
}

// ListByParent returns a parent's kids, newest first.
func (s *KidStore) ListByParent(parentID int64) ([]model.Kid, error) {
	rows, err := s.db.Query(
		`SELECT `+kidCols+` FROM kids WHERE parent_id = ? ORDER BY created_at DESC, id DESC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list kids: %w", err)
	}
	defer rows.Close()

	var kids []model.Kid
	for rows.Next() {
		k, err := scanKid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan kid: %w", err)
		}
		kids = append(kids, *k)
	}
	return kids, rows.Err()
}

func (s *KidStore) Update(id int64, name string, age int, avatar string) (*model.Kid, error) {
	_, err := s.db.Exec(
		`UPDATE kids SET name = ?, age = ?, avatar = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, age, avatar, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update kid: %w", err)
	}
	return s.GetByID(id)
}

// UpdateStats writes recomputed points and streak.
func (s *KidStore) UpdateStats(id int64, points, streak int) error {
	_, err := s.db.Exec(
		`UPDATE kids SET points = ?, streak = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		points, streak, id,
	)
	if err != nil {
		return fmt.Errorf("update kid stats: %w", err)
	}
	return nil
}

func (s *KidStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM kids WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete kid: %w", err)
	}
	return nil
}

// DeleteIDs removes the given kids in one transaction. Their logs,
// assignments, evidence and redemptions cascade.
func (s *KidStore) DeleteIDs(ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	placeholders, args := inClause(ids)
	if _, err := tx.Exec(`DELETE FROM task_logs WHERE kid_id IN (`+placeholders+`)`, args...); err != nil {
		return 0, fmt.Errorf("delete kid logs: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM kids WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete kids: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, tx.Commit()
}

// DeleteByParent removes every kid of a parent.
func (s *KidStore) DeleteByParent(parentID int64) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM kids WHERE parent_id = ?`, parentID)
	if err != nil {
		return 0, fmt.Errorf("delete kids by parent: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
