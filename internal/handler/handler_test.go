package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad json", `{"name":`, "invalid JSON"},
		{"missing name", `{"age": 7}`, "name is required"},
		{"age too high", `{"name": "Maya", "age": 40}`, "age must be at most 18"},
		{"age too low", `{"name": "Maya", "age": 0}`, "age must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			var v kidRequest
			if decode(rec, req, &v) {
				t.Fatal("decode should fail")
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body = %s, want %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestDecodeOptionalAcceptsEmptyBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	rec := httptest.NewRecorder()
	var v approveRequest
	if !decodeOptional(rec, req, &v) {
		t.Fatalf("decodeOptional failed: %s", rec.Body.String())
	}
	if v.Points != nil {
		t.Errorf("Points = %v, want nil", *v.Points)
	}

	req = httptest.NewRequest("POST", "/", nil)
	rec = httptest.NewRecorder()
	if decode(rec, req, &v) {
		t.Error("decode should reject an empty body")
	}
}

func TestTaskRequestDefaults(t *testing.T) {
	req := taskRequest{Name: "  Read  ", Points: 5, Frequency: "daily"}
	task := req.task()
	if task.Name != "Read" {
		t.Errorf("Name = %q, want trimmed", task.Name)
	}
	if !task.Enabled {
		t.Error("tasks are enabled unless stated otherwise")
	}
	if task.VerificationType != "none" {
		t.Errorf("VerificationType = %q, want none", task.VerificationType)
	}

	off := false
	req.Enabled = &off
	if req.task().Enabled {
		t.Error("explicit enabled=false was ignored")
	}
}

func TestKidRequestDefaultAvatar(t *testing.T) {
	req := kidRequest{Name: " Arjun ", Age: 12}
	req.normalize()
	if req.Name != "Arjun" || req.Avatar != defaultAvatar {
		t.Errorf("normalized = %+v", req)
	}
}
