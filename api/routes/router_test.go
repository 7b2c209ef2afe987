package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/internal/auth"
	"github.com/reparalo-app/reparalo-backend/internal/media"
	"github.com/reparalo-app/reparalo-backend/internal/messaging"
	"github.com/reparalo-app/reparalo-backend/internal/negotiation"
	"github.com/reparalo-app/reparalo-backend/internal/notifications"
	"github.com/reparalo-app/reparalo-backend/internal/offers"
	"github.com/reparalo-app/reparalo-backend/internal/requests"
	"github.com/reparalo-app/reparalo-backend/internal/reviews"
	"github.com/reparalo-app/reparalo-backend/internal/shipments"
	"github.com/reparalo-app/reparalo-backend/internal/users"
	pkgAuth "github.com/reparalo-app/reparalo-backend/pkg/auth"
	"github.com/reparalo-app/reparalo-backend/pkg/auth/session"
	"github.com/reparalo-app/reparalo-backend/pkg/config"
	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	"github.com/reparalo-app/reparalo-backend/pkg/logger"
	"github.com/reparalo-app/reparalo-backend/pkg/pagination"
	"github.com/reparalo-app/reparalo-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Logout(ctx context.Context, accessToken string) error {
	return nil
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return nil, nil
}

type stubUsersService struct{}

func (stubUsersService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

func (stubUsersService) UpdateProfile(ctx context.Context, userID uuid.UUID, dto users.UpdateProfileDTO) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

func (stubUsersService) WorkshopProfile(ctx context.Context, workshopID uuid.UUID) (*users.ProfileDTO, error) {
	return &users.ProfileDTO{}, nil
}

type stubRequestsService struct{}

func (stubRequestsService) Create(ctx context.Context, input requests.CreateInput) (*models.RepairRequest, error) {
	return &models.RepairRequest{ID: uuid.New()}, nil
}

func (stubRequestsService) Get(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) (*models.RepairRequest, error) {
	return &models.RepairRequest{ID: requestID}, nil
}

func (stubRequestsService) ListMine(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters requests.Filters) (*requests.RequestList, error) {
	return &requests.RequestList{}, nil
}

func (stubRequestsService) ListOpen(ctx context.Context, params pagination.Params, filters requests.OpenFilters) (*requests.RequestList, error) {
	return &requests.RequestList{}, nil
}

func (stubRequestsService) MarkShipped(ctx context.Context, input requests.TransitionInput) error {
	return nil
}

func (stubRequestsService) ConfirmReceived(ctx context.Context, input requests.TransitionInput) error {
	return nil
}

func (stubRequestsService) SubmitFinalQuote(ctx context.Context, input requests.FinalQuoteInput) error {
	return nil
}

func (stubRequestsService) AcceptQuote(ctx context.Context, input requests.TransitionInput) error {
	return nil
}

func (stubRequestsService) RejectQuote(ctx context.Context, input requests.TransitionInput) error {
	return nil
}

func (stubRequestsService) MarkRepaired(ctx context.Context, input requests.TransitionInput) error {
	return nil
}

func (stubRequestsService) ShipBack(ctx context.Context, input requests.TransitionInput) error {
	return nil
}

func (stubRequestsService) ConfirmDelivered(ctx context.Context, input requests.TransitionInput) error {
	return nil
}

func (stubRequestsService) Cancel(ctx context.Context, input requests.TransitionInput) error {
	return nil
}

type stubOffersService struct{}

func (stubOffersService) Submit(ctx context.Context, input offers.SubmitInput) (*models.Offer, error) {
	return &models.Offer{ID: uuid.New()}, nil
}

func (stubOffersService) Accept(ctx context.Context, input offers.AcceptInput) error {
	return nil
}

func (stubOffersService) ListByRequest(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) ([]models.Offer, error) {
	return nil, nil
}

func (stubOffersService) ListMine(ctx context.Context, workshopID uuid.UUID, params pagination.Params) (*offers.OfferList, error) {
	return &offers.OfferList{}, nil
}

type stubNegotiationService struct{}

func (stubNegotiationService) Propose(ctx context.Context, input negotiation.ProposeInput) (*models.CounterOffer, error) {
	return &models.CounterOffer{ID: uuid.New()}, nil
}

func (stubNegotiationService) Resolve(ctx context.Context, input negotiation.ResolveInput) error {
	return nil
}

func (stubNegotiationService) ListByRequest(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) ([]models.CounterOffer, error) {
	return nil, nil
}

type stubShipmentsService struct{}

func (stubShipmentsService) CreateForRequest(ctx context.Context, tx *gorm.DB, request *models.RepairRequest, shipmentType enums.ShipmentType) (*models.Shipment, error) {
	return nil, nil
}

func (stubShipmentsService) Advance(ctx context.Context, input shipments.AdvanceInput) (*models.Shipment, error) {
	return &models.Shipment{}, nil
}

func (stubShipmentsService) ApplyCarrierUpdate(ctx context.Context, shipmentID uuid.UUID, update shipments.CarrierUpdate) (bool, error) {
	return false, nil
}

func (stubShipmentsService) GetByRequest(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) ([]models.Shipment, error) {
	return nil, nil
}

func (stubShipmentsService) ListUndelivered(ctx context.Context, limit int) ([]models.Shipment, error) {
	return nil, nil
}

type stubMediaService struct{}

func (stubMediaService) PresignUpload(ctx context.Context, userID uuid.UUID, input media.PresignInput) (*media.PresignOutput, error) {
	return &media.PresignOutput{}, nil
}

func (stubMediaService) ConfirmUpload(ctx context.Context, mediaID, userID uuid.UUID) error {
	return nil
}

func (stubMediaService) ListRequestPhotos(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) ([]media.PhotoView, error) {
	return nil, nil
}

func (stubMediaService) Delete(ctx context.Context, mediaID, userID uuid.UUID) error {
	return nil
}

type stubMessagingService struct{}

func (stubMessagingService) Open(ctx context.Context, input messaging.OpenInput) (*models.Conversation, error) {
	return &models.Conversation{ID: uuid.New()}, nil
}

func (stubMessagingService) Send(ctx context.Context, input messaging.SendInput) (*models.Message, error) {
	return &models.Message{ID: uuid.New()}, nil
}

func (stubMessagingService) ListConversations(ctx context.Context, userID uuid.UUID, params pagination.Params) (*messaging.ConversationList, error) {
	return &messaging.ConversationList{}, nil
}

func (stubMessagingService) ListMessages(ctx context.Context, conversationID, actorUserID uuid.UUID, params pagination.Params) (*messaging.MessageList, error) {
	return &messaging.MessageList{}, nil
}

func (stubMessagingService) MarkRead(ctx context.Context, conversationID, actorUserID uuid.UUID) error {
	return nil
}

func (stubMessagingService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubReviewsService struct{}

func (stubReviewsService) Create(ctx context.Context, input reviews.CreateInput) (*models.Review, error) {
	return &models.Review{ID: uuid.New()}, nil
}

func (stubReviewsService) ListByWorkshop(ctx context.Context, workshopID uuid.UUID, params pagination.Params) (*reviews.ReviewList, error) {
	return &reviews.ReviewList{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubPinger{},
		stubSessionManager{},
		Services{
			Auth:          stubAuthService{},
			Register:      stubRegisterService{},
			Users:         stubUsersService{},
			Requests:      stubRequestsService{},
			Offers:        stubOffersService{},
			Negotiation:   stubNegotiationService{},
			Shipments:     stubShipmentsService{},
			Media:         stubMediaService{},
			Messaging:     stubMessagingService{},
			Reviews:       stubReviewsService{},
			Notifications: stubNotificationsService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.AppRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AppRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestBrowseOpenRequestsRequiresWorkshopRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/requests/open", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AppRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	workshop := httptest.NewRequest(http.MethodGet, "/api/v1/requests/open", nil)
	workshop.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AppRoleWorkshop))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, workshop)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for workshop got %d", resp.Code)
	}
}

func TestCreateRequestRequiresCustomerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	body := `{"device_brand":"Apple","device_model":"iPhone 13","device_type":"smartphone",` +
		`"problem_description":"Battery drains in an hour","city":"Sevilla"}`

	workshop := httptest.NewRequest(http.MethodPost, "/api/v1/requests", strings.NewReader(body))
	workshop.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AppRoleWorkshop))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, workshop)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for workshop got %d", resp.Code)
	}

	customer := httptest.NewRequest(http.MethodPost, "/api/v1/requests", strings.NewReader(body))
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AppRoleCustomer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for customer got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAcceptOfferRequiresCustomerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	workshop := httptest.NewRequest(http.MethodPost, "/api/v1/offers/"+uuid.NewString()+"/accept", nil)
	workshop.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AppRoleWorkshop))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, workshop)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for workshop got %d", resp.Code)
	}

	customer := httptest.NewRequest(http.MethodPost, "/api/v1/offers/"+uuid.NewString()+"/accept", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AppRoleCustomer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for customer got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdvanceShipmentRequiresWorkshopRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/"+uuid.NewString()+"/advance", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AppRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	workshop := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/"+uuid.NewString()+"/advance", nil)
	workshop.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AppRoleWorkshop))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, workshop)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for workshop got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPublicValidateRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/public/validate", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestPublicValidateAcceptsGoodJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"name":"Zed","email":"zed@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/public/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid payload got %d", resp.Code)
	}
}
