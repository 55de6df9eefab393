package model

import "time"

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// MediaUpload is evidence attached to a task log.
type MediaUpload struct {
	ID            int64     `json:"id"`
	TaskLogID     int64     `json:"task_log_id"`
	StoragePath   string    `json:"storage_path"`
	Type          MediaType `json:"type"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
