package task

import (
	"strings"
	"unicode/utf8"
)

// NewTask is the payload for creating a task.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate checks the create payload.
func (n NewTask) Validate() error {
	if err := ValidateTitle(n.Title); err != nil {
		return err
	}
	return ValidateDescription(n.Description)
}

// Update is a partial task edit. A nil field was not supplied and is kept.
type Update struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// Validate checks only the supplied fields.
func (u Update) Validate() error {
	if u.Title != nil {
		if err := ValidateTitle(*u.Title); err != nil {
			return err
		}
	}
	if u.Description != nil {
		if err := ValidateDescription(*u.Description); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the supplied fields into t. Timestamps are left to the caller.
func (u Update) Apply(t *Task) {
	if u.Title != nil {
		t.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
}

// Empty reports whether no field was supplied.
func (u Update) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Completed == nil
}

// ValidateTitle requires a non-blank title of at most MaxTitleLength characters.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// ValidateDescription limits the description to MaxDescriptionLength characters.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
