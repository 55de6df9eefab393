package auth

import (
	"context"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{ParentID: 2, SessionID: 3})
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.ParentID != 2 {
		t.Errorf("ParentID = %d, want 2", got.ParentID)
	}
	if got.SessionID != 3 {
		t.Errorf("SessionID = %d, want 3", got.SessionID)
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestAccessors(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{ParentID: 42, SessionID: 7})
	if ParentID(ctx) != 42 {
		t.Errorf("ParentID = %d, want 42", ParentID(ctx))
	}
	if SessionID(ctx) != 7 {
		t.Errorf("SessionID = %d, want 7", SessionID(ctx))
	}
}

func TestAccessorsMissing(t *testing.T) {
	if ParentID(context.Background()) != 0 {
		t.Error("expected 0 parent for missing context")
	}
	if SessionID(context.Background()) != 0 {
		t.Error("expected 0 session for missing context")
	}
}
