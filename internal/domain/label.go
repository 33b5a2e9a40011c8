package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultLabelColor is applied when a label is created without a color.
const DefaultLabelColor = "#808080"

// MaxLabelNameLength bounds label names.
const MaxLabelNameLength = 100

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Label is a user-owned tag that can be attached to any of that user's tasks.
type Label struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLabel validates and builds a label. An empty color becomes DefaultLabelColor.
func NewLabel(userID uuid.UUID, name, color string, now time.Time) (*Label, error) {
	if userID == uuid.Nil {
		return nil, NewValidationError("user_id", "owner is required", ErrEmptyID)
	}
	label := &Label{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if err := label.Rename(name, now); err != nil {
		return nil, err
	}
	if color == "" {
		color = DefaultLabelColor
	}
	if err := label.Recolor(color, now); err != nil {
		return nil, err
	}
	return label, nil
}

// Rename sets a new name after trimming and length checks.
func (l *Label) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError("name", "Label name cannot be empty", nil)
	}
	if utf8.RuneCountInString(name) > MaxLabelNameLength {
		return NewValidationError("name", "Label name must be at most 100 characters long", nil)
	}
	l.Name = name
	l.UpdatedAt = now.UTC()
	return nil
}

// Recolor sets a #RRGGBB color.
func (l *Label) Recolor(color string, now time.Time) error {
	if !hexColor.MatchString(color) {
		return NewValidationError("color", "Color must be a hex value like #1A2B3C", nil)
	}
	l.Color = color
	l.UpdatedAt = now.UTC()
	return nil
}
