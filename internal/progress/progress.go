package progress

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/happyloop/internal/habit"
	"github.com/dukerupert/happyloop/internal/model"
	"github.com/dukerupert/happyloop/internal/store"
)

// ErrLogNotFound is returned when a task log does not exist or belongs to
// another parent's kid.
var ErrLogNotFound = errors.New("task log not found")

// Decision is the outcome of a parent approving or rejecting a completion.
type Decision struct {
	Log    *model.TaskLog `json:"log"`
	Kid    *model.Kid     `json:"kid"`
	Result habit.Result   `json:"result"`
}

// Service applies parent decisions and keeps each kid's points and streak in
// line with their task log history.
type Service struct {
	logs   *store.TaskLogStore
	kids   *store.KidStore
	tasks  *store.TaskStore
	logger *slog.Logger
	now    func() time.Time
}

func NewService(logs *store.TaskLogStore, kids *store.KidStore, tasks *store.TaskStore, logger *slog.Logger) *Service {
	return &Service{
		logs:   logs,
		kids:   kids,
		tasks:  tasks,
		logger: logger.With("component", "progress"),
		now:    time.Now,
	}
}

// Approve marks a completion approved and awards points. A nil points
// override awards the task's value.
func (s *Service) Approve(parentID, logID int64, points *int) (*Decision, error) {
	l, kid, err := s.owned(parentID, logID)
	if err != nil {
		return nil, err
	}

	award := 0
	if points != nil {
		award = *points
	} else {
		task, err := s.tasks.GetByID(l.TaskID)
		if err != nil {
			return nil, err
		}
		if task != nil {
			award = task.Points
		}
	}
	if award < 0 {
		award = 0
	}

	if err := s.logs.SetApproval(logID, true, award); err != nil {
		return nil, err
	}
	return s.decided(kid, logID)
}

// Reject marks a completion rejected. Rejected completions earn nothing but
// still count toward the streak.
func (s *Service) Reject(parentID, logID int64) (*Decision, error) {
	_, kid, err := s.owned(parentID, logID)
	if err != nil {
		return nil, err
	}
	if err := s.logs.SetApproval(logID, false, 0); err != nil {
		return nil, err
	}
	return s.decided(kid, logID)
}

// Recompute rebuilds a kid's points and streak from the full log history
// through today and stores them.
func (s *Service) Recompute(kidID int64) (habit.Result, error) {
	logs, err := s.logs.ListByKid(kidID, "", "")
	if err != nil {
		return habit.Result{}, err
	}
	res, err := habit.Recompute(logs, habit.Day(s.now().UTC()))
	if err != nil {
		return habit.Result{}, fmt.Errorf("recompute kid %d: %w", kidID, err)
	}
	if err := s.kids.UpdateStats(kidID, res.Points, res.Streak); err != nil {
		return habit.Result{}, err
	}
	s.logger.Debug("kid recomputed", "kid_id", kidID, "points", res.Points, "streak", res.Streak)
	return res, nil
}

func (s *Service) owned(parentID, logID int64) (*model.TaskLog, *model.Kid, error) {
	l, err := s.logs.GetByID(logID)
	if err != nil {
		return nil, nil, err
	}
	if l == nil {
		return nil, nil, ErrLogNotFound
	}
	kid, err := s.kids.GetByID(l.KidID)
	if err != nil {
		return nil, nil, err
	}
	if kid == nil || kid.ParentID != parentID {
		return nil, nil, ErrLogNotFound
	}
	return l, kid, nil
}

func (s *Service) decided(kid *model.Kid, logID int64) (*Decision, error) {
	res, err := s.Recompute(kid.ID)
	if err != nil {
		return nil, err
	}
	l, err := s.logs.GetByID(logID)
	if err != nil {
		return nil, err
	}
	kid.Points, kid.Streak = res.Points, res.Streak
	return &Decision{Log: l, Kid: kid, Result: res}, nil
}
