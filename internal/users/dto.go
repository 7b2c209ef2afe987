package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID     `json:"id"`
	Email       string        `json:"email"`
	Role        enums.AppRole `json:"role"`
	IsActive    bool          `json:"is_active"`
	LastLoginAt *time.Time    `json:"last_login_at,omitempty"`
	Profile     *ProfileDTO   `json:"profile,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ProfileDTO is the public-facing account data. Workshop fields are omitted
// for customer accounts.
type ProfileDTO struct {
	FullName            string           `json:"full_name"`
	Phone               *string          `json:"phone,omitempty"`
	City                *string          `json:"city,omitempty"`
	AvatarURL           *string          `json:"avatar_url,omitempty"`
	WorkshopName        *string          `json:"workshop_name,omitempty"`
	WorkshopDescription *string          `json:"workshop_description,omitempty"`
	Rating              *decimal.Decimal `json:"rating,omitempty"`
	ReviewsCount        int              `json:"reviews_count"`
}

// CreateUserDTO holds the data required by the repo to persist a new account
// with its profile.
type CreateUserDTO struct {
	Email               string
	PasswordHash        string
	Role                enums.AppRole
	FullName            string
	Phone               *string
	City                *string
	WorkshopName        *string
	WorkshopDescription *string
}

// UpdateProfileDTO carries the editable profile fields. Nil means unchanged.
type UpdateProfileDTO struct {
	FullName            *string
	Phone               *string
	City                *string
	AvatarURL           *string
	WorkshopName        *string
	WorkshopDescription *string
}

// FromModel converts the persisted user into its transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		Profile:     profileFromModel(u.Profile),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func profileFromModel(p *models.Profile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		FullName:            p.FullName,
		Phone:               p.Phone,
		City:                p.City,
		AvatarURL:           p.AvatarURL,
		WorkshopName:        p.WorkshopName,
		WorkshopDescription: p.WorkshopDescription,
		Rating:              p.Rating,
		ReviewsCount:        p.ReviewsCount,
	}
}

// ToModel builds the user row plus its associated profile row.
func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         c.Role,
		IsActive:     true,
		Profile: &models.Profile{
			FullName:            c.FullName,
			Phone:               c.Phone,
			City:                c.City,
			WorkshopName:        c.WorkshopName,
			WorkshopDescription: c.WorkshopDescription,
		},
	}
}
