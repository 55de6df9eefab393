package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/happyloop/internal/habit"
	"github.com/dukerupert/happyloop/internal/model"
)

type TaskLogStore struct {
	db *sql.DB
}

func NewTaskLogStore(db *sql.DB) *TaskLogStore {
	return &TaskLogStore{db: db}
}

func scanTaskLog(scanner interface{ Scan(...any) error }, extra ...any) (*model.TaskLog, error) {
	var l model.TaskLog
	var aiValidated int
	var approved, mediaID sql.NullInt64

	dest := append([]any{&l.ID, &l.KidID, &l.TaskID, &l.Date, &aiValidated, &approved, &l.PointsAwarded, &mediaID, &l.CreatedAt}, extra...)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	l.AIValidated = aiValidated != 0
	if approved.Valid {
		l.ParentApproved = model.BoolPtr(approved.Int64 != 0)
	}
	if mediaID.Valid {
		l.MediaID = &mediaID.Int64
	}
	return &l, nil
}

const taskLogCols = `l.id, l.kid_id, l.task_id, l.date, l.ai_validated, l.parent_approved, l.points_awarded, m.id, l.created_at`

const taskLogFrom = ` FROM task_logs l LEFT JOIN media_uploads m ON m.task_log_id = l.id`

// Create records a pending completion. A second log for the same kid, task
// and date returns ErrDuplicateLog.
func (s *TaskLogStore) Create(kidID, taskID int64, date string) (*model.TaskLog, error) {
	result, err := s.db.Exec(
		`INSERT INTO task_logs (kid_id, task_id, date) VALUES (?, ?, ?)`,
		kidID, taskID, date,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateLog
	}
	if err != nil {
		return nil, fmt.Errorf("insert task log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// InsertDay writes one generated day for a kid in a single transaction: each
// log, then its evidence linked by the new log id. It returns the number of
// logs written.
func (s *TaskLogStore) InsertDay(completions []habit.Completion) (int, error) {
	if len(completions) == 0 {
		return 0, nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	logStmt, err := tx.Prepare(`INSERT INTO task_logs (kid_id, task_id, date, ai_validated, parent_approved, points_awarded) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare log stmt: %w", err)
	}
	defer logStmt.Close()

	mediaStmt, err := tx.Prepare(`INSERT INTO media_uploads (task_log_id, storage_path, type, thumbnail_path) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare media stmt: %w", err)
	}
	defer mediaStmt.Close()

	for _, c := range completions {
		var approved sql.NullInt64
		if c.Log.ParentApproved != nil {
			approved = sql.NullInt64{Int64: int64(boolInt(*c.Log.ParentApproved)), Valid: true}
		}
		result, err := logStmt.Exec(c.Log.KidID, c.Log.TaskID, c.Log.Date, boolInt(c.Log.AIValidated), approved, c.Log.PointsAwarded)
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("task %d on %s: %w", c.Log.TaskID, c.Log.Date, ErrDuplicateLog)
		}
		if err != nil {
			return 0, fmt.Errorf("insert task log: %w", err)
		}
		if c.Evidence == nil {
			continue
		}
		logID, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("last insert id: %w", err)
		}
		if _, err := mediaStmt.Exec(logID, c.Evidence.StoragePath, c.Evidence.Type, nullString(c.Evidence.ThumbnailPath)); err != nil {
			return 0, fmt.Errorf("insert evidence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit day: %w", err)
	}
	return len(completions), nil
}

func (s *TaskLogStore) GetByID(id int64) (*model.TaskLog, error) {
	row := s.db.QueryRow(`SELECT `+taskLogCols+taskLogFrom+` WHERE l.id = ?`, id)
	l, err := scanTaskLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task log: %w", err)
	}
	return l, nil
}

// ListByKid returns a kid's logs newest first. Empty from or to leaves that
// end of the date range open.
func (s *TaskLogStore) ListByKid(kidID int64, from, to string) ([]model.TaskLog, error) {
	q := `SELECT ` + taskLogCols + taskLogFrom + ` WHERE l.kid_id = ?`
	args := []any{kidID}
	if from != "" {
		q += ` AND l.date >= ?`
		args = append(args, from)
	}
	if to != "" {
		q += ` AND l.date <= ?`
		args = append(args, to)
	}
	q += ` ORDER BY l.date DESC, l.id DESC`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list task logs: %w", err)
	}
	defer rows.Close()

	var logs []model.TaskLog
	for rows.Next() {
		l, err := scanTaskLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// SetApproval records a parent's decision. Rejections always carry zero points.
func (s *TaskLogStore) SetApproval(id int64, approved bool, points int) error {
	if !approved {
		points = 0
	}
	_, err := s.db.Exec(
		`UPDATE task_logs SET parent_approved = ?, points_awarded = ? WHERE id = ?`,
		boolInt(approved), points, id,
	)
	if err != nil {
		return fmt.Errorf("set approval: %w", err)
	}
	return nil
}

func (s *TaskLogStore) SetAIValidated(id int64, valid bool) error {
	_, err := s.db.Exec(`UPDATE task_logs SET ai_validated = ? WHERE id = ?`, boolInt(valid), id)
	if err != nil {
		return fmt.Errorf("set ai validated: %w", err)
	}
	return nil
}

const taskLogDetailCols = taskLogCols + `, k.name, k.avatar, t.name, t.icon, t.points, m.storage_path, m.type, m.thumbnail_path, m.created_at`

// ListPendingByParent returns every log awaiting review for a parent's kids,
// oldest first, joined with kid, task and evidence.
func (s *TaskLogStore) ListPendingByParent(parentID int64) ([]model.TaskLogDetail, error) {
	rows, err := s.db.Query(
		`SELECT `+taskLogDetailCols+taskLogFrom+`
		 JOIN kids k ON k.id = l.kid_id
		 JOIN tasks t ON t.id = l.task_id
		 WHERE k.parent_id = ? AND l.parent_approved IS NULL
		 ORDER BY l.date ASC, l.id ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending task logs: %w", err)
	}
	defer rows.Close()

	var out []model.TaskLogDetail
	for rows.Next() {
		var d model.TaskLogDetail
		var path, typ, thumb sql.NullString
		var mediaCreated sql.NullTime
		l, err := scanTaskLog(rows, &d.KidName, &d.KidAvatar, &d.TaskName, &d.TaskIcon, &d.TaskPoints, &path, &typ, &thumb, &mediaCreated)
		if err != nil {
			return nil, fmt.Errorf("scan pending task log: %w", err)
		}
		d.TaskLog = *l
		if l.MediaID != nil {
			d.Media = &model.MediaUpload{
				ID:            *l.MediaID,
				TaskLogID:     l.ID,
				StoragePath:   path.String,
				Type:          model.MediaType(typ.String),
				ThumbnailPath: thumb.String,
				CreatedAt:     mediaCreated.Time,
			}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteByKidsSince removes logs dated on or after since for the given kids.
func (s *TaskLogStore) DeleteByKidsSince(kidIDs []int64, since string) (int64, error) {
	if len(kidIDs) == 0 {
		return 0, nil
	}
	placeholders, args := inClause(kidIDs)
	result, err := s.db.Exec(
		`DELETE FROM task_logs WHERE kid_id IN (`+placeholders+`) AND date >= ?`,
		append(args, since)...,
	)
	if err != nil {
		return 0, fmt.Errorf("delete task logs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
