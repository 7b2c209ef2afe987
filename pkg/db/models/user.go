package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string        `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string        `gorm:"column:password_hash;not null"`
	Role         enums.AppRole `gorm:"column:role;type:app_role;not null"`
	IsActive     bool          `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time    `gorm:"column:last_login_at"`
	Profile      *Profile      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
