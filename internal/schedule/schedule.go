package schedule

import (
	"time"

	"github.com/dukerupert/happyloop/internal/habit"
	"github.com/dukerupert/happyloop/internal/model"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// TaskWithStatus is an assigned task as it appears in a kid's today view.
type TaskWithStatus struct {
	model.Task
	Status Status `json:"status"`
	LogID  *int64 `json:"log_id,omitempty"`
	// LogDate is set when the task was completed earlier in its period.
	LogDate string `json:"log_date,omitempty"`
}

// IsDueOn reports whether a task with the given frequency can be done on date.
// Weekly and monthly tasks are due on every day of their period until done.
func IsDueOn(freq model.Frequency, date time.Time) bool {
	switch freq {
	case model.FrequencyWeekday:
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	case model.FrequencyWeekend:
		wd := date.Weekday()
		return wd == time.Saturday || wd == time.Sunday
	case model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly:
		return true
	default:
		return false
	}
}

// PeriodStart returns the first day of the period that date falls in. Weeks
// start on Monday.
func PeriodStart(freq model.Frequency, date time.Time) time.Time {
	day := habit.Day(date)
	switch freq {
	case model.FrequencyWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case model.FrequencyMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// StatusOf maps a task log to its review status. A nil log is pending.
func StatusOf(l *model.TaskLog) Status {
	switch {
	case l == nil:
		return StatusPending
	case l.Approved():
		return StatusApproved
	case l.Rejected():
		return StatusRejected
	default:
		return StatusSubmitted
	}
}

// Today builds the today view for one kid: every enabled task due on date,
// paired with the kid's log for it in the current period. logs should cover
// at least the start of the current month through date.
func Today(tasks []model.Task, logs []model.TaskLog, date time.Time) []TaskWithStatus {
	day := habit.Day(date)
	today := habit.FormatDate(day)

	var out []TaskWithStatus
	for _, t := range tasks {
		if !t.Enabled || !IsDueOn(t.Frequency, day) {
			continue
		}
		from := habit.FormatDate(PeriodStart(t.Frequency, day))

		var match *model.TaskLog
		for i := range logs {
			l := &logs[i]
			if l.TaskID != t.ID || l.Date < from || l.Date > today {
				continue
			}
			// a log on the day itself wins over one earlier in the period
			if match == nil || l.Date > match.Date {
				match = l
			}
		}

		ts := TaskWithStatus{Task: t, Status: StatusOf(match)}
		if match != nil {
			id := match.ID
			ts.LogID = &id
			if match.Date != today {
				ts.LogDate = match.Date
			}
		}
		out = append(out, ts)
	}
	return out
}

// WindowStart is the earliest date whose logs can affect the today view for
// date: the start of the week or the month, whichever comes first.
func WindowStart(date time.Time) time.Time {
	week := PeriodStart(model.FrequencyWeekly, date)
	month := PeriodStart(model.FrequencyMonthly, date)
	if week.Before(month) {
		return week
	}
	return month
}
