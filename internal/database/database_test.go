package database

import (
	"database/sql"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{
		"parents", "sessions", "family_configs", "kids", "tasks",
		"kid_tasks", "task_logs", "media_uploads", "rewards", "reward_redemptions",
	} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestTaskLogConstraints(t *testing.T) {
	db := openTestDB(t)

	mustExec := func(q string, args ...any) {
		t.Helper()
		if _, err := db.Exec(q, args...); err != nil {
			t.Fatalf("exec %q: %v", q, err)
		}
	}
	mustExec(`INSERT INTO parents (id, email, name, password_hash) VALUES (1, 'a@b.c', 'A', 'x')`)
	mustExec(`INSERT INTO kids (id, parent_id, name, age) VALUES (1, 1, 'Mia', 7)`)
	mustExec(`INSERT INTO tasks (id, name, points) VALUES (1, 'Brush teeth', 5)`)
	mustExec(`INSERT INTO task_logs (kid_id, task_id, date, parent_approved, points_awarded) VALUES (1, 1, '2024-03-01', 1, 5)`)

	tests := []struct {
		name string
		q    string
	}{
		{"duplicate day", `INSERT INTO task_logs (kid_id, task_id, date) VALUES (1, 1, '2024-03-01')`},
		{"points while pending", `INSERT INTO task_logs (kid_id, task_id, date, points_awarded) VALUES (1, 1, '2024-03-02', 5)`},
		{"points while rejected", `INSERT INTO task_logs (kid_id, task_id, date, parent_approved, points_awarded) VALUES (1, 1, '2024-03-03', 0, 5)`},
		{"unknown kid", `INSERT INTO task_logs (kid_id, task_id, date) VALUES (99, 1, '2024-03-04')`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.Exec(tt.q); err == nil {
				t.Error("expected constraint error")
			}
		})
	}
}

func TestKidDeleteCascades(t *testing.T) {
	db := openTestDB(t)

	for _, q := range []string{
		`INSERT INTO parents (id, email, name, password_hash) VALUES (1, 'a@b.c', 'A', 'x')`,
		`INSERT INTO kids (id, parent_id, name, age) VALUES (1, 1, 'Mia', 7)`,
		`INSERT INTO tasks (id, name, points) VALUES (1, 'Brush teeth', 5)`,
		`INSERT INTO task_logs (kid_id, task_id, date) VALUES (1, 1, '2024-03-01')`,
		`DELETE FROM kids WHERE id = 1`,
	} {
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("exec %q: %v", q, err)
		}
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM task_logs`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("task_logs = %d, want 0 after kid delete", n)
	}
}
