package models

import "time"

// Assignment categories determine which extraction/evaluation path applies.
const (
	CategoryProject = "project"
	CategoryEssay   = "essay"
	CategoryProblem = "problem"
)

// Assignment visibility states.
const (
	AssignmentStatusOpen   = "open"
	AssignmentStatusHidden = "hidden"
)

// Assignment represents a gradable task published by an instructor.
type Assignment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Category        string     `gorm:"size:16;not null;default:project" json:"category"`
	Status          string     `gorm:"size:16;not null;default:hidden" json:"status"`
	RubricText      string     `gorm:"type:text" json:"rubric_text"`
	RubricFileRef   string     `gorm:"size:512" json:"rubric_file_ref"`
	ExtraFileRef    string     `gorm:"size:512" json:"extra_file_ref"`
	Deadline        *time.Time `json:"deadline"`
	AllowedAttempts int        `gorm:"not null;default:1" json:"allowed_attempts"`
	MaxScore        float64    `gorm:"not null;default:100" json:"max_score"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Submissions     []Submission
}

// IsPastDeadline reports whether the deadline has passed at the reference time.
// Assignments without a deadline never expire.
func (a Assignment) IsPastDeadline(reference time.Time) bool {
	return a.Deadline != nil && reference.After(*a.Deadline)
}

// HasAttemptQuota reports whether the per-attempt quota applies to this
// assignment. Project assignments are only bounded by the deadline.
func (a Assignment) HasAttemptQuota() bool {
	return a.Category != CategoryProject
}
