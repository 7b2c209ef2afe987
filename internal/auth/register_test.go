package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/internal/users"
	"github.com/reparalo-app/reparalo-backend/pkg/config"
	pkgmodels "github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUserRepository struct {
	data      map[string]*pkgmodels.User
	created   *pkgmodels.User
	createErr error
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{data: map[string]*pkgmodels.User{}}
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) Create(ctx context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

type registerTestSetup struct {
	service  RegisterService
	userRepo *stubUserRepository
}

func newRegisterTestSetup(t *testing.T) *registerTestSetup {
	t.Helper()
	userRepo := newStubUserRepository()
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return &registerTestSetup{service: svc, userRepo: userRepo}
}

func sampleCustomerRequest(email string) RegisterRequest {
	city := "Valencia"
	return RegisterRequest{
		Email:    email,
		Password: "Secret123!",
		Role:     enums.AppRoleCustomer,
		FullName: "Lucía Pérez",
		City:     &city,
	}
}

func TestRegisterCreatesCustomerAccount(t *testing.T) {
	setup := newRegisterTestSetup(t)

	dto, err := setup.service.Register(context.Background(), sampleCustomerRequest("nueva@example.com"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if setup.userRepo.created == nil {
		t.Fatalf("expected user to be created")
	}
	if setup.userRepo.created.Role != enums.AppRoleCustomer {
		t.Fatalf("expected customer role, got %s", setup.userRepo.created.Role)
	}
	if setup.userRepo.created.Profile == nil || setup.userRepo.created.Profile.FullName != "Lucía Pérez" {
		t.Fatalf("expected profile created alongside user")
	}
	if dto == nil || dto.Email != "nueva@example.com" {
		t.Fatalf("unexpected response %+v", dto)
	}
}

func TestRegisterCreatesWorkshopAccount(t *testing.T) {
	setup := newRegisterTestSetup(t)
	name := "Taller García"
	req := RegisterRequest{
		Email:        "taller@example.com",
		Password:     "Secret123!",
		Role:         enums.AppRoleWorkshop,
		FullName:     "Pedro García",
		WorkshopName: &name,
	}

	if _, err := setup.service.Register(context.Background(), req); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	profile := setup.userRepo.created.Profile
	if profile == nil || profile.WorkshopName == nil || *profile.WorkshopName != name {
		t.Fatalf("expected workshop name stored, got %+v", profile)
	}
}

func TestRegisterWorkshopRequiresName(t *testing.T) {
	setup := newRegisterTestSetup(t)
	req := RegisterRequest{
		Email:    "taller@example.com",
		Password: "Secret123!",
		Role:     enums.AppRoleWorkshop,
		FullName: "Pedro García",
	}

	_, err := setup.service.Register(context.Background(), req)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterCustomerRejectsWorkshopFields(t *testing.T) {
	setup := newRegisterTestSetup(t)
	req := sampleCustomerRequest("nueva@example.com")
	name := "Taller Colado"
	req.WorkshopName = &name

	_, err := setup.service.Register(context.Background(), req)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.userRepo.data["ocupado@example.com"] = &pkgmodels.User{
		ID:    uuid.New(),
		Email: "ocupado@example.com",
	}

	_, err := setup.service.Register(context.Background(), sampleCustomerRequest("ocupado@example.com"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	setup := newRegisterTestSetup(t)

	dto, err := setup.service.Register(context.Background(), sampleCustomerRequest("  Nueva@Example.COM "))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if dto.Email != "nueva@example.com" {
		t.Fatalf("expected normalized email, got %q", dto.Email)
	}
}
