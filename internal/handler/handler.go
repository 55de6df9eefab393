package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/happyloop/internal/auth"
	"github.com/dukerupert/happyloop/internal/model"
	"github.com/dukerupert/happyloop/internal/store"
	"github.com/dukerupert/happyloop/internal/websocket"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into v and validates it. On failure it writes a
// 400 and returns false.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeBody(w, r, v, false)
}

// decodeOptional is decode for endpoints whose body may be omitted.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeBody(w, r, v, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		err = nil
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "datetime":
		return fe.Field() + " must be a YYYY-MM-DD date"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func parseIDParam(r *http.Request) (int64, error) {
	return parsePathInt(r, "id")
}

func parsePathInt(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// broadcaster is shared by every handler that pushes change events.
type broadcaster struct {
	hub *websocket.Hub
}

func (b broadcaster) broadcast(parentID int64, msg websocket.Message) {
	if b.hub != nil {
		b.hub.Broadcast(parentID, msg)
	}
}

// loadKid resolves the {param} path value to a kid owned by the current
// parent. Kids of other parents are reported as not found.
func loadKid(w http.ResponseWriter, r *http.Request, kids *store.KidStore, param string) (*model.Kid, bool) {
	id, err := parsePathInt(r, param)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid kid id"})
		return nil, false
	}
	kid, err := kids.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get kid"})
		return nil, false
	}
	if kid == nil || kid.ParentID != auth.ParentID(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "kid not found"})
		return nil, false
	}
	return kid, true
}
