package model

import "time"

// Kid is a child tracked by a parent. Points and Streak are derived from the
// kid's task log history and are only written back after a recompute.
type Kid struct {
	ID        int64     `json:"id"`
	ParentID  int64     `json:"parent_id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Avatar    string    `json:"avatar"`
	Points    int       `json:"points"`
	Streak    int       `json:"streak"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
