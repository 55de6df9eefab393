package store

import "testing"

func TestParentCreateAndLookup(t *testing.T) {
	db := setupTestDB(t)
	ps := NewParentStore(db)

	p, err := ps.Create("alice@example.com", "Alice", "hashed")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	if p.Email != "alice@example.com" || p.Name != "Alice" {
		t.Errorf("parent = %+v", p)
	}

	byEmail, err := ps.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != p.ID {
		t.Fatalf("get by email = %+v, want id %d", byEmail, p.ID)
	}

	got, hash, err := ps.GetPasswordHash("alice@example.com")
	if err != nil {
		t.Fatalf("get password hash: %v", err)
	}
	if got == nil || hash != "hashed" {
		t.Errorf("hash = %q, want %q", hash, "hashed")
	}
}

func TestParentNotFound(t *testing.T) {
	ps := NewParentStore(setupTestDB(t))

	p, err := ps.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if p != nil {
		t.Error("expected nil for unknown email")
	}

	p, hash, err := ps.GetPasswordHash("nobody@example.com")
	if err != nil {
		t.Fatalf("get password hash: %v", err)
	}
	if p != nil || hash != "" {
		t.Error("expected nil parent and empty hash")
	}
}

func TestParentDuplicateEmail(t *testing.T) {
	ps := NewParentStore(setupTestDB(t))

	if _, err := ps.Create("alice@example.com", "Alice", "h"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := ps.Create("alice@example.com", "Other", "h")
	if err == nil {
		t.Fatal("expected error for duplicate email")
	}
	if !isUniqueViolation(err) {
		t.Errorf("err = %v, want unique violation", err)
	}
}

func TestParentDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	p := createParent(t, db, "alice@example.com")
	createKid(t, db, p.ID, "Emma")

	if err := NewParentStore(db).Delete(p.ID); err != nil {
		t.Fatalf("delete parent: %v", err)
	}
	var n int
	db.QueryRow(`SELECT COUNT(*) FROM kids`).Scan(&n)
	if n != 0 {
		t.Errorf("kids left = %d, want 0", n)
	}
}
