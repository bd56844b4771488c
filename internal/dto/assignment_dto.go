package dto

import (
	"time"

	"github.com/amirasyraf/edugrade-api/internal/models"
)

type CreateAssignmentRequest struct {
	Title           string     `json:"title" validate:"required,min=3,max=200"`
	Description     string     `json:"description" validate:"omitempty,max=5000"`
	Category        string     `json:"category" validate:"required,oneof=project essay problem"`
	Status          string     `json:"status" validate:"omitempty,oneof=open hidden"`
	RubricText      string     `json:"rubric_text" validate:"omitempty,max=10000"`
	Deadline        *time.Time `json:"deadline"`
	AllowedAttempts int        `json:"allowed_attempts" validate:"omitempty,gte=1,lte=20"`
	MaxScore        float64    `json:"max_score" validate:"omitempty,gt=0"`
}

type UpdateAssignmentRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=3,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=5000"`
	Status          *string    `json:"status" validate:"omitempty,oneof=open hidden"`
	RubricText      *string    `json:"rubric_text" validate:"omitempty,max=10000"`
	Deadline        *time.Time `json:"deadline"`
	AllowedAttempts *int       `json:"allowed_attempts" validate:"omitempty,gte=1,lte=20"`
	MaxScore        *float64   `json:"max_score" validate:"omitempty,gt=0"`
}

type AssignmentResponse struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Status          string     `json:"status"`
	RubricText      string     `json:"rubric_text"`
	RubricFileRef   string     `json:"rubric_file_ref,omitempty"`
	ExtraFileRef    string     `json:"extra_file_ref,omitempty"`
	Deadline        *time.Time `json:"deadline"`
	AllowedAttempts int        `json:"allowed_attempts"`
	MaxScore        float64    `json:"max_score"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:              model.ID,
		Title:           model.Title,
		Description:     model.Description,
		Category:        model.Category,
		Status:          model.Status,
		RubricText:      model.RubricText,
		RubricFileRef:   model.RubricFileRef,
		ExtraFileRef:    model.ExtraFileRef,
		Deadline:        model.Deadline,
		AllowedAttempts: model.AllowedAttempts,
		MaxScore:        model.MaxScore,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func NewAssignmentResponseSlice(items []models.Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewAssignmentResponse(item))
	}
	return out
}
