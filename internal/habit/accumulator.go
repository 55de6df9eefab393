package habit

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dukerupert/happyloop/internal/model"
)

// ErrOutOfOrder is returned when a day is folded before one already folded.
var ErrOutOfOrder = errors.New("habit: days must be folded oldest to newest")

// Result is a kid's derived totals.
type Result struct {
	Points int `json:"points"`
	Streak int `json:"streak"`
}

// Accumulator folds daily outcomes into a running point total and a
// consecutive-day streak. Days must be folded in non-decreasing date order.
//
// An inactive day only zeroes the streak when the last active day is already
// more than one day back; a single missed day leaves the streak as it was
// until the next active day resets it to 1.
type Accumulator struct {
	points     int
	streak     int
	lastActive *time.Time
	lastFolded *time.Time
}

// Fold applies one day's task logs. A day with no logs is an inactive day.
func (a *Accumulator) Fold(date time.Time, logs []model.TaskLog) error {
	day := Day(date)
	if a.lastFolded != nil && day.Before(*a.lastFolded) {
		return fmt.Errorf("%w: %s after %s", ErrOutOfOrder, FormatDate(day), FormatDate(*a.lastFolded))
	}
	a.lastFolded = &day

	for _, l := range logs {
		a.points += l.AwardedPoints()
	}

	if len(logs) == 0 {
		if a.lastActive != nil && DaysBetween(*a.lastActive, day) > 1 {
			a.streak = 0
		}
		return nil
	}

	if a.lastActive == nil {
		a.streak = 1
	} else {
		switch gap := DaysBetween(*a.lastActive, day); {
		case gap == 1:
			a.streak++
		case gap > 1:
			a.streak = 1
		}
	}
	a.lastActive = &day
	return nil
}

// FoldBatch applies a generated day.
func (a *Accumulator) FoldBatch(b DayBatch) error {
	return a.Fold(b.Date, b.Logs())
}

// Result returns the current totals.
func (a *Accumulator) Result() Result {
	return Result{Points: a.points, Streak: a.streak}
}

// LastActive returns the most recent active day, or nil.
func (a *Accumulator) LastActive() *time.Time {
	return a.lastActive
}

// Recompute derives totals from a kid's full task log history. Logs may be
// in any order; they are grouped by date and every calendar day from the
// earliest log through asOf is folded, so trailing inactive days count. A
// zero asOf stops at the latest log date. The stored points and streak of
// the kid are never read.
func Recompute(logs []model.TaskLog, asOf time.Time) (Result, error) {
	if len(logs) == 0 {
		return Result{}, nil
	}

	byDate := make(map[time.Time][]model.TaskLog)
	for _, l := range logs {
		d, err := ParseDate(l.Date)
		if err != nil {
			return Result{}, fmt.Errorf("task log %d: %w", l.ID, err)
		}
		byDate[d] = append(byDate[d], l)
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	end := dates[len(dates)-1]
	if !asOf.IsZero() && Day(asOf).After(end) {
		end = Day(asOf)
	}

	var acc Accumulator
	for _, day := range DateRange(dates[0], end) {
		if err := acc.Fold(day, byDate[day]); err != nil {
			return Result{}, err
		}
	}
	return acc.Result(), nil
}
