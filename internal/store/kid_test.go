package store

import "testing"

func TestKidCRUD(t *testing.T) {
	db := setupTestDB(t)
	ks := NewKidStore(db)
	p := createParent(t, db, "alice@example.com")

	kid, err := ks.Create(p.ID, "Emma", 8, "👧")
	if err != nil {
		t.Fatalf("create kid: %v", err)
	}
	if kid.Name != "Emma" || kid.Age != 8 || kid.Avatar != "👧" {
		t.Errorf("kid = %+v", kid)
	}
	if kid.Points != 0 || kid.Streak != 0 {
		t.Errorf("new kid points/streak = %d/%d, want 0/0", kid.Points, kid.Streak)
	}

	updated, err := ks.Update(kid.ID, "Emma Rose", 9, "🦄")
	if err != nil {
		t.Fatalf("update kid: %v", err)
	}
	if updated.Name != "Emma Rose" || updated.Age != 9 {
		t.Errorf("updated = %+v", updated)
	}

	if err := ks.UpdateStats(kid.ID, 120, 4); err != nil {
		t.Fatalf("update stats: %v", err)
	}
	got, _ := ks.GetByID(kid.ID)
	if got.Points != 120 || got.Streak != 4 {
		t.Errorf("points/streak = %d/%d, want 120/4", got.Points, got.Streak)
	}

	if err := ks.Delete(kid.ID); err != nil {
		t.Fatalf("delete kid: %v", err)
	}
	got, err = ks.GetByID(kid.ID)
	if err != nil {
		t.Fatalf("get deleted kid: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestKidListByParentNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	ks := NewKidStore(db)
	alice := createParent(t, db, "alice@example.com")
	bob := createParent(t, db, "bob@example.com")

	createKid(t, db, alice.ID, "Emma")
	createKid(t, db, alice.ID, "Noah")
	createKid(t, db, bob.ID, "Liam")

	kids, err := ks.ListByParent(alice.ID)
	if err != nil {
		t.Fatalf("list kids: %v", err)
	}
	if len(kids) != 2 {
		t.Fatalf("expected 2 kids, got %d", len(kids))
	}
	if kids[0].Name != "Noah" {
		t.Errorf("kids[0] = %q, want Noah", kids[0].Name)
	}
}

func TestKidDeleteIDs(t *testing.T) {
	db := setupTestDB(t)
	ks := NewKidStore(db)
	p := createParent(t, db, "alice@example.com")
	a := createKid(t, db, p.ID, "Emma")
	b := createKid(t, db, p.ID, "Emma")
	keep := createKid(t, db, p.ID, "Noah")
	task := createTask(t, db, "Brush Teeth", 5)
	NewTaskLogStore(db).Create(a.ID, task.ID, "2026-03-01")

	n, err := ks.DeleteIDs([]int64{a.ID, b.ID})
	if err != nil {
		t.Fatalf("delete ids: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	kids, _ := ks.ListByParent(p.ID)
	if len(kids) != 1 || kids[0].ID != keep.ID {
		t.Errorf("remaining kids = %+v", kids)
	}
	var logs int
	db.QueryRow(`SELECT COUNT(*) FROM task_logs`).Scan(&logs)
	if logs != 0 {
		t.Errorf("logs left = %d, want 0", logs)
	}

	if n, err := ks.DeleteIDs(nil); err != nil || n != 0 {
		t.Errorf("DeleteIDs(nil) = %d, %v", n, err)
	}
}

func TestKidDeleteByParent(t *testing.T) {
	db := setupTestDB(t)
	ks := NewKidStore(db)
	alice := createParent(t, db, "alice@example.com")
	bob := createParent(t, db, "bob@example.com")
	createKid(t, db, alice.ID, "Emma")
	createKid(t, db, alice.ID, "Noah")
	createKid(t, db, bob.ID, "Liam")

	n, err := ks.DeleteByParent(alice.ID)
	if err != nil {
		t.Fatalf("delete by parent: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	left, _ := ks.ListByParent(bob.ID)
	if len(left) != 1 {
		t.Errorf("other parent's kids = %d, want 1", len(left))
	}
}
