package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/internal/users"
	"github.com/reparalo-app/reparalo-backend/pkg/config"
	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
	"github.com/reparalo-app/reparalo-backend/pkg/security"
)

// RegisterRequest contains the payload required to open a new account.
// Workshop fields are mandatory when role is workshop and rejected otherwise.
type RegisterRequest struct {
	Email               string        `json:"email" validate:"required,email"`
	Password            string        `json:"password" validate:"required,min=8"`
	Role                enums.AppRole `json:"role" validate:"required"`
	FullName            string        `json:"full_name" validate:"required"`
	Phone               *string       `json:"phone,omitempty"`
	City                *string       `json:"city,omitempty"`
	WorkshopName        *string       `json:"workshop_name,omitempty"`
	WorkshopDescription *string       `json:"workshop_description,omitempty"`
}

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

type registerTxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	TxRunner        registerTxRunner
	UserRepoFactory func(tx *gorm.DB) registerUserRepository
	PasswordConfig  config.PasswordConfig
}

type registerService struct {
	tx          registerTxRunner
	userRepo    func(tx *gorm.DB) registerUserRepository
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	factory := params.UserRepoFactory
	if factory == nil {
		factory = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepo:    factory,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	switch req.Role {
	case enums.AppRoleWorkshop:
		if req.WorkshopName == nil || strings.TrimSpace(*req.WorkshopName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "workshop name is required")
		}
	case enums.AppRoleCustomer:
		if req.WorkshopName != nil || req.WorkshopDescription != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "workshop fields require a workshop account")
		}
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepo(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:               email,
			PasswordHash:        passwordHash,
			Role:                req.Role,
			FullName:            fullName,
			Phone:               req.Phone,
			City:                req.City,
			WorkshopName:        req.WorkshopName,
			WorkshopDescription: req.WorkshopDescription,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
