package store

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicateLog is returned when a kid already has a log for the task on that date.
	ErrDuplicateLog = errors.New("task already logged for this date")
	// ErrInsufficientPoints is returned when a kid cannot afford a reward.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrRewardUnavailable is returned when redeeming a missing or disabled reward.
	ErrRewardUnavailable = errors.New("reward unavailable")
	// ErrTaskInUse is returned when deleting a task that has task logs.
	ErrTaskInUse = errors.New("task has task logs")
	// ErrRewardInUse is returned when deleting a reward that has been redeemed.
	ErrRewardInUse = errors.New("reward has redemptions")
)

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "FOREIGN KEY")
	}
	return false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
