package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
)

// Service exposes profile read/update operations.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, dto UpdateProfileDTO) (*UserDTO, error)
	WorkshopProfile(ctx context.Context, workshopID uuid.UUID) (*ProfileDTO, error)
}

type profileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, updates map[string]any) error
}

type service struct {
	repo profileRepository
}

// NewService builds a users service over the given repository.
func NewService(repo profileRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, dto UpdateProfileDTO) (*UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	updates := map[string]any{}
	if dto.FullName != nil {
		name := strings.TrimSpace(*dto.FullName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name cannot be empty")
		}
		updates["full_name"] = name
	}
	if dto.Phone != nil {
		updates["phone"] = dto.Phone
	}
	if dto.City != nil {
		updates["city"] = dto.City
	}
	if dto.AvatarURL != nil {
		updates["avatar_url"] = dto.AvatarURL
	}
	if dto.WorkshopName != nil || dto.WorkshopDescription != nil {
		if user.Role != enums.AppRoleWorkshop {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "workshop fields require a workshop account")
		}
		if dto.WorkshopName != nil {
			updates["workshop_name"] = dto.WorkshopName
		}
		if dto.WorkshopDescription != nil {
			updates["workshop_description"] = dto.WorkshopDescription
		}
	}
	if len(updates) == 0 {
		return FromModel(user), nil
	}

	if err := s.repo.UpdateProfile(ctx, userID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	updated, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
	}
	return FromModel(updated), nil
}

// WorkshopProfile is the public view customers see when comparing offers.
func (s *service) WorkshopProfile(ctx context.Context, workshopID uuid.UUID) (*ProfileDTO, error) {
	if workshopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workshop id required")
	}
	user, err := s.repo.FindByID(ctx, workshopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "workshop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load workshop")
	}
	if user.Role != enums.AppRoleWorkshop {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "workshop not found")
	}
	profile := profileFromModel(user.Profile)
	if profile == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "workshop profile not found")
	}
	return profile, nil
}
