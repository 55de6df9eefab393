package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/happyloop/internal/model"
)

type MediaStore struct {
	db *sql.DB
}

func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

func scanMedia(scanner interface{ Scan(...any) error }) (*model.MediaUpload, error) {
	var m model.MediaUpload
	var thumb sql.NullString

	err := scanner.Scan(&m.ID, &m.TaskLogID, &m.StoragePath, &m.Type, &thumb, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	m.ThumbnailPath = thumb.String
	return &m, nil
}

const mediaCols = `id, task_log_id, storage_path, type, thumbnail_path, created_at`

// Attach stores evidence for a task log. A log holds at most one evidence
// item; attaching again replaces the previous one.
func (s *MediaStore) Attach(taskLogID int64, storagePath string, typ model.MediaType, thumbnailPath string) (*model.MediaUpload, error) {
	_, err := s.db.Exec(
		`INSERT INTO media_uploads (task_log_id, storage_path, type, thumbnail_path) VALUES (?, ?, ?, ?)
		 ON CONFLICT (task_log_id) DO UPDATE SET
		   storage_path = excluded.storage_path,
		   type = excluded.type,
		   thumbnail_path = excluded.thumbnail_path,
		   created_at = CURRENT_TIMESTAMP`,
		taskLogID, storagePath, typ, nullString(thumbnailPath),
	)
	if err != nil {
		return nil, fmt.Errorf("attach media: %w", err)
	}
	return s.GetByTaskLog(taskLogID)
}

func (s *MediaStore) GetByTaskLog(taskLogID int64) (*model.MediaUpload, error) {
	row := s.db.QueryRow(`SELECT `+mediaCols+` FROM media_uploads WHERE task_log_id = ?`, taskLogID)
	m, err := scanMedia(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}
