package model

import "time"

// DateLayout is the calendar-date format used for task log dates.
const DateLayout = "2006-01-02"

// TaskLog records that a kid completed a task on a calendar date.
// ParentApproved is nil while the completion is pending review.
type TaskLog struct {
	ID             int64     `json:"id"`
	KidID          int64     `json:"kid_id"`
	TaskID         int64     `json:"task_id"`
	Date           string    `json:"date"`
	AIValidated    bool      `json:"ai_validated"`
	ParentApproved *bool     `json:"parent_approved"`
	PointsAwarded  int       `json:"points_awarded"`
	MediaID        *int64    `json:"media_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Approved reports whether a parent has approved the completion.
func (l TaskLog) Approved() bool {
	return l.ParentApproved != nil && *l.ParentApproved
}

// Rejected reports whether a parent has rejected the completion.
func (l TaskLog) Rejected() bool {
	return l.ParentApproved != nil && !*l.ParentApproved
}

// Pending reports whether the completion still awaits a parent decision.
func (l TaskLog) Pending() bool {
	return l.ParentApproved == nil
}

// AwardedPoints returns the points this completion contributes to a total.
// Only approved completions count.
func (l TaskLog) AwardedPoints() int {
	if !l.Approved() {
		return 0
	}
	return l.PointsAwarded
}

// TaskLogDetail is a task log joined with its kid, task and evidence, as shown
// in the parent's review queue.
type TaskLogDetail struct {
	TaskLog
	KidName    string       `json:"kid_name"`
	KidAvatar  string       `json:"kid_avatar"`
	TaskName   string       `json:"task_name"`
	TaskIcon   string       `json:"task_icon"`
	TaskPoints int          `json:"task_points"`
	Media      *MediaUpload `json:"media,omitempty"`
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
