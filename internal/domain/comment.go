package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Comment is a note left on a task. Deletion is soft.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsDeleted bool      `json:"-"`
}

// NewComment builds a comment authored by authorID.
func NewComment(taskID, authorID uuid.UUID, author, content string, now time.Time) (*Comment, error) {
	if taskID == uuid.Nil {
		return nil, NewValidationError("task_id", "task is required", ErrEmptyID)
	}
	if authorID == uuid.Nil {
		return nil, NewValidationError("author_id", "author is required", ErrEmptyID)
	}
	c := &Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Author:    author,
		CreatedAt: now.UTC(),
	}
	if err := c.Edit(content, now); err != nil {
		return nil, err
	}
	return c, nil
}

// Edit replaces the content.
func (c *Comment) Edit(content string, now time.Time) error {
	if strings.TrimSpace(content) == "" {
		return NewValidationError("content", "Comment cannot be empty", nil)
	}
	c.Content = content
	c.UpdatedAt = now.UTC()
	return nil
}
