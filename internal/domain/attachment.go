package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Attachment references an externally stored file. The reference is opaque
// to this service.
type Attachment struct {
	ID         uuid.UUID `json:"id"`
	TaskID     uuid.UUID `json:"task_id"`
	FileRef    string    `json:"file_ref"`
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"file_size"`
	UploadedBy uuid.UUID `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewAttachment validates and builds an attachment record.
func NewAttachment(taskID, uploadedBy uuid.UUID, fileRef, filename string, size int64, now time.Time) (*Attachment, error) {
	if taskID == uuid.Nil {
		return nil, NewValidationError("task_id", "task is required", ErrEmptyID)
	}
	if strings.TrimSpace(fileRef) == "" {
		return nil, NewValidationError("file_ref", "file reference is required", nil)
	}
	if strings.TrimSpace(filename) == "" {
		return nil, NewValidationError("filename", "filename is required", nil)
	}
	if size < 0 {
		return nil, NewValidationError("file_size", "file size cannot be negative", nil)
	}
	return &Attachment{
		ID:         uuid.New(),
		TaskID:     taskID,
		FileRef:    fileRef,
		Filename:   strings.TrimSpace(filename),
		FileSize:   size,
		UploadedBy: uploadedBy,
		UploadedAt: now.UTC(),
	}, nil
}
