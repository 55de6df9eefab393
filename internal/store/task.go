package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/happyloop/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var enabled int

	err := scanner.Scan(&t.ID, &t.Name, &t.Description, &t.Icon, &t.Points, &t.Frequency, &t.VerificationType, &enabled, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Enabled = enabled != 0
	return &t, nil
}

const taskCols = `id, name, description, icon, points, frequency, verification_type, enabled, created_at, updated_at`

func (s *TaskStore) Create(t model.Task) (*model.Task, error) {
	result, err := s.db.Exec(
		`INSERT INTO tasks (name, description, icon, points, frequency, verification_type, enabled) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Description, t.Icon, t.Points, t.Frequency, t.VerificationType, boolInt(t.Enabled),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// CreateMany inserts a batch of tasks in one transaction.
func (s *TaskStore) CreateMany(tasks []model.Task) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO tasks (name, description, icon, points, frequency, verification_type, enabled) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		if _, err := stmt.Exec(t.Name, t.Description, t.Icon, t.Points, t.Frequency, t.VerificationType, boolInt(t.Enabled)); err != nil {
			return 0, fmt.Errorf("insert task %q: %w", t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tasks: %w", err)
	}
	return len(tasks), nil
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns the whole catalog ordered by name.
func (s *TaskStore) List() ([]model.Task, error) {
	return s.query(`SELECT ` + taskCols + ` FROM tasks ORDER BY name ASC, id ASC`)
}

// ListForKid returns the tasks assigned to a kid ordered by name.
func (s *TaskStore) ListForKid(kidID int64) ([]model.Task, error) {
	return s.query(
		`SELECT t.id, t.name, t.description, t.icon, t.points, t.frequency, t.verification_type, t.enabled, t.created_at, t.updated_at
		 FROM tasks t JOIN kid_tasks kt ON kt.task_id = t.id
		 WHERE kt.kid_id = ? ORDER BY t.name ASC, t.id ASC`,
		kidID,
	)
}

func (s *TaskStore) query(q string, args ...any) ([]model.Task, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(id int64, t model.Task) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET name = ?, description = ?, icon = ?, points = ?, frequency = ?, verification_type = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		t.Name, t.Description, t.Icon, t.Points, t.Frequency, t.VerificationType, boolInt(t.Enabled), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

// UpdateDetails changes only the descriptive fields and the enabled flag,
// which is all a task with task logs may change.
func (s *TaskStore) UpdateDetails(id int64, name, description, icon string, enabled bool) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET name = ?, description = ?, icon = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, description, icon, boolInt(enabled), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task details: %w", err)
	}
	return s.GetByID(id)
}

// HasLogs reports whether any kid has a task log for the task.
func (s *TaskStore) HasLogs(id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM task_logs WHERE task_id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check task logs: %w", err)
	}
	return exists, nil
}

// Delete removes a task and its assignments. Tasks with task logs return
// ErrTaskInUse; disable them instead.
func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return ErrTaskInUse
	}
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *TaskStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// Assign links tasks to a kid. Existing assignments are left alone.
func (s *TaskStore) Assign(kidID int64, taskIDs ...int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO kid_tasks (kid_id, task_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, id := range taskIDs {
		if _, err := stmt.Exec(kidID, id); err != nil {
			return fmt.Errorf("assign task %d to kid %d: %w", id, kidID, err)
		}
	}
	return tx.Commit()
}

func (s *TaskStore) Unassign(kidID, taskID int64) error {
	_, err := s.db.Exec(`DELETE FROM kid_tasks WHERE kid_id = ? AND task_id = ?`, kidID, taskID)
	if err != nil {
		return fmt.Errorf("unassign task: %w", err)
	}
	return nil
}
