package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reparalo-app/reparalo-backend/api/controllers"
	"github.com/reparalo-app/reparalo-backend/api/middleware"
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
	"github.com/reparalo-app/reparalo-backend/pkg/auth/session"
	"github.com/reparalo-app/reparalo-backend/pkg/config"
	"github.com/reparalo-app/reparalo-backend/pkg/db"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	"github.com/reparalo-app/reparalo-backend/pkg/logger"
	"github.com/reparalo-app/reparalo-backend/pkg/redis"
	"github.com/reparalo-app/reparalo-backend/pkg/storage/gcs"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Services bundles every domain service the HTTP surface exposes.
type Services struct {
	Auth          auth.Service
	Register      auth.RegisterService
	Users         users.Service
	Requests      requests.Service
	Offers        offers.Service
	Negotiation   negotiation.Service
	Shipments     shipments.Service
	Media         media.Service
	Messaging     messaging.Service
	Reviews       reviews.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	sessions sessionManager,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// A typed-nil *redis.Client must not reach the middlewares' interface
	// parameters, where it would dodge their nil checks.
	var idemStore redis.IdempotencyStore
	if redisClient != nil {
		idemStore = redisClient
	}
	authLimiter := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if redisClient == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.AuthRateLimit(policy, redisClient, logg)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	requireCustomer := middleware.RequireRole(string(enums.AppRoleCustomer), logg)
	requireWorkshop := middleware.RequireRole(string(enums.AppRoleWorkshop), logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadinessDeps(dbP, redisClient, gcsClient)))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(authLimiter(loginPolicy)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(authLimiter(registerPolicy)).Post("/register", controllers.AuthRegister(svcs.Register, svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/requests", func(r chi.Router) {
			r.With(requireCustomer).Post("/", controllers.CreateRequest(svcs.Requests, logg))
			r.With(requireCustomer).Get("/", controllers.ListMyRequests(svcs.Requests, logg))
			r.With(requireWorkshop).Get("/open", controllers.ListOpenRequests(svcs.Requests, logg))

			r.Route("/{requestId}", func(r chi.Router) {
				r.Get("/", controllers.GetRequest(svcs.Requests, logg))
				r.Post("/status", controllers.TransitionRequest(svcs.Requests, logg))
				r.With(requireWorkshop).Post("/final-quote", controllers.SubmitFinalQuote(svcs.Requests, logg))

				r.Get("/offers", controllers.ListRequestOffers(svcs.Offers, logg))
				r.With(requireWorkshop).Post("/offers", controllers.SubmitOffer(svcs.Offers, logg))

				r.Get("/counter-offers", controllers.ListCounterOffers(svcs.Negotiation, logg))
				r.Post("/counter-offers", controllers.ProposeCounterOffer(svcs.Negotiation, logg))

				r.Get("/shipments", controllers.ListRequestShipments(svcs.Shipments, logg))
				r.Get("/photos", controllers.ListRequestPhotos(svcs.Media, logg))
				r.With(requireCustomer).Post("/review", controllers.CreateReview(svcs.Reviews, logg))
			})
		})

		r.Route("/v1/offers", func(r chi.Router) {
			r.With(requireWorkshop).Get("/mine", controllers.ListMyOffers(svcs.Offers, logg))
			r.With(requireCustomer).Post("/{offerId}/accept", controllers.AcceptOffer(svcs.Offers, logg))
		})

		r.Route("/v1/counter-offers/{counterOfferId}", func(r chi.Router) {
			r.Post("/accept", controllers.ResolveCounterOffer(svcs.Negotiation, true, logg))
			r.Post("/reject", controllers.ResolveCounterOffer(svcs.Negotiation, false, logg))
		})

		r.With(requireWorkshop).Post("/v1/shipments/{shipmentId}/advance", controllers.AdvanceShipment(svcs.Shipments, logg))

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationsCount(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/v1/conversations", func(r chi.Router) {
			r.Post("/", controllers.OpenConversation(svcs.Messaging, logg))
			r.Get("/", controllers.ListConversations(svcs.Messaging, logg))
			r.Get("/unread-count", controllers.UnreadMessagesCount(svcs.Messaging, logg))
			r.Route("/{conversationId}", func(r chi.Router) {
				r.Get("/messages", controllers.ListConversationMessages(svcs.Messaging, logg))
				r.Post("/messages", controllers.SendMessage(svcs.Messaging, logg))
				r.Post("/read", controllers.MarkConversationRead(svcs.Messaging, logg))
			})
		})

		r.Route("/v1/media", func(r chi.Router) {
			r.Post("/presign", controllers.MediaPresign(svcs.Media, logg))
			r.Post("/{mediaId}/confirm", controllers.MediaConfirm(svcs.Media, logg))
			r.Delete("/{mediaId}", controllers.MediaDelete(svcs.Media, logg))
		})

		r.Route("/v1/me", func(r chi.Router) {
			r.Get("/", controllers.Me(svcs.Users, logg))
			r.Patch("/", controllers.UpdateMyProfile(svcs.Users, logg))
		})

		r.Route("/v1/workshops/{workshopId}", func(r chi.Router) {
			r.Get("/", controllers.GetWorkshopProfile(svcs.Users, logg))
			r.Get("/reviews", controllers.ListWorkshopReviews(svcs.Reviews, logg))
		})
	})

	return r
}
