package models

import "time"

// Category is the tag vocabulary resources attach to. Deleting a category
// cascades to its resources, so deletion is exposed as a destructive
// operation returning the affected count.
type Category struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CreateCategoryRequest adds a new category to the vocabulary.
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// UpdateCategoryRequest modifies description or active flag.
type UpdateCategoryRequest struct {
	Description *string `json:"description" validate:"omitempty,max=500"`
	Active      *bool   `json:"active"`
}
