package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated identity provisioned outside this service
type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	DisplayName    string    `json:"display_name" db:"display_name"`
	Role           string    `json:"role" db:"role" example:"student"`
	ExternalNumber *string   `json:"external_number,omitempty" db:"external_number"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// StudentProfile is the student-specific extension of a user.
// MergedIntoID is set on legacy duplicates that were folded into a canonical profile.
type StudentProfile struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	FullName     string     `json:"full_name" db:"full_name"`
	ClassName    string     `json:"class_name" db:"class_name"`
	Major        string     `json:"major" db:"major"`
	Status       string     `json:"status" db:"status"`
	MergedIntoID *uuid.UUID `json:"merged_into_id,omitempty" db:"merged_into_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// IsCanonical reports whether p is the live profile for its user
func (p *StudentProfile) IsCanonical() bool {
	return p.MergedIntoID == nil
}

// CanonicalID returns the id rows should be written under
func (p *StudentProfile) CanonicalID() uuid.UUID {
	if p.MergedIntoID != nil {
		return *p.MergedIntoID
	}
	return p.ID
}
