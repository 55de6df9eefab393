package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/happyloop/internal/database"
	"github.com/dukerupert/happyloop/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createParent(t *testing.T, db *sql.DB, email string) *model.Parent {
	t.Helper()
	p, err := NewParentStore(db).Create(email, "Parent", "$2a$10$hash")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	return p
}

func createKid(t *testing.T, db *sql.DB, parentID int64, name string) *model.Kid {
	t.Helper()
	k, err := NewKidStore(db).Create(parentID, name, 8, "🦊")
	if err != nil {
		t.Fatalf("create kid: %v", err)
	}
	return k
}

func createTask(t *testing.T, db *sql.DB, name string, points int) *model.Task {
	t.Helper()
	task, err := NewTaskStore(db).Create(model.Task{
		Name:             name,
		Points:           points,
		Frequency:        model.FrequencyDaily,
		VerificationType: model.VerificationNone,
		Enabled:          true,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}
