package store

import (
	"testing"
	"time"
)

func TestSessionCreate(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	p := createParent(t, db, "alice@example.com")

	sess, err := ss.Create(p.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 { // 32 bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.ParentID != p.ID {
		t.Errorf("parent_id = %d, want %d", sess.ParentID, p.ID)
	}
	if !sess.ExpiresAt.After(time.Now().Add(SessionTTL - time.Hour)) {
		t.Errorf("expires_at = %v, want about %v from now", sess.ExpiresAt, SessionTTL)
	}
}

func TestSessionGetByToken(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	p := createParent(t, db, "alice@example.com")
	created, _ := ss.Create(p.ID)

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.ID != created.ID {
		t.Errorf("id = %d, want %d", sess.ID, created.ID)
	}

	missing, err := ss.GetByToken("nonexistent")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for nonexistent token")
	}
}

func TestSessionExpired(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	p := createParent(t, db, "alice@example.com")
	created, _ := ss.Create(p.ID)

	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, time.Now().UTC().Add(-time.Hour), created.ID); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get expired: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for expired session")
	}

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
}

func TestSessionDeleteByParentID(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	p := createParent(t, db, "alice@example.com")
	ss.Create(p.ID)
	ss.Create(p.ID)

	if err := ss.DeleteByParentID(p.ID); err != nil {
		t.Fatalf("delete by parent id: %v", err)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE parent_id = ?`, p.ID).Scan(&count)
	if count != 0 {
		t.Errorf("expected 0 sessions, got %d", count)
	}
}
