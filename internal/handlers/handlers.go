package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"coursemarket/internal/config"
	"coursemarket/internal/events"
	"coursemarket/internal/middleware"
	"coursemarket/internal/records"
	"coursemarket/internal/repository"
	"coursemarket/internal/security"
	"coursemarket/internal/service"
)

type HandlerSet struct {
	log             zerolog.Logger
	cfg             *config.AppConfig
	backend         records.Backend
	cache           *redis.Client
	tokens          *security.TokenIssuer
	revocations     middleware.RevocationChecker
	users           *repository.UserRepository
	courses         *repository.CourseRepository
	authService     *service.AuthService
	purchaseService *service.PurchaseService
	reviewService   *service.ReviewService
}

// NewHandlerSet wires repositories and services. cache may be nil, which
// disables token revocation.
func NewHandlerSet(log zerolog.Logger, backend records.Backend, cache *redis.Client, publisher events.Publisher, cfg *config.AppConfig) HandlerSet {
	if publisher == nil {
		publisher = events.Nop{}
	}

	userRepo := repository.NewUserRepository(backend)
	courseRepo := repository.NewCourseRepository(backend)
	purchaseRepo := repository.NewPurchaseRepository(backend)
	reviewRepo := repository.NewReviewRepository(backend)
	tokens := security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.TokenTTL)

	var (
		revocations middleware.RevocationChecker
		revoker     service.TokenRevoker
	)
	if cache != nil {
		revocationRepo := repository.NewRevocationRepository(cache)
		revocations = revocationRepo
		revoker = revocationRepo
	}

	return HandlerSet{
		log:             log,
		cfg:             cfg,
		backend:         backend,
		cache:           cache,
		tokens:          tokens,
		revocations:     revocations,
		users:           userRepo,
		courses:         courseRepo,
		authService:     service.NewAuthService(userRepo, tokens, revoker, log),
		purchaseService: service.NewPurchaseService(purchaseRepo, userRepo, courseRepo, publisher, log),
		reviewService:   service.NewReviewService(reviewRepo, userRepo, publisher, log),
	}
}

// Bootstrap prepares state the routes depend on, currently the default admin.
func (h HandlerSet) Bootstrap(ctx context.Context) error {
	return h.authService.EnsureAdmin(ctx, h.cfg.Admin)
}

func (h HandlerSet) Mount(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	authenticated := middleware.Auth(h.tokens, h.revocations)
	adminOnly := middleware.RequireAdmin(h.users)

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", authenticated, h.Logout)
		auth.GET("/profile", authenticated, h.Profile)
		auth.PUT("/profile", authenticated, h.UpdateProfile)
	}

	router.GET("/user", authenticated, h.Profile)

	router.GET("/courses", h.ListCourses)
	router.GET("/courses/:id", h.GetCourse)

	purchases := router.Group("/purchases", authenticated)
	{
		purchases.POST("", h.CreatePurchase)
		purchases.GET("", adminOnly, h.ListPurchases)
		purchases.PATCH("/:id", adminOnly, h.SetPurchaseStatus)
		purchases.DELETE("/:id", adminOnly, h.DeletePurchase)
	}

	// Listing stays public: the course page reads approved reviews and the
	// admin panel reads the unfiltered list through the same route.
	router.GET("/reviews", h.ListReviews)
	reviews := router.Group("/reviews", authenticated)
	{
		reviews.POST("", h.CreateReview)
		reviews.PATCH("/:id", adminOnly, h.SetReviewStatus)
		reviews.DELETE("/:id", adminOnly, h.DeleteReview)
	}

	users := router.Group("/users", authenticated)
	{
		users.GET("", adminOnly, h.ListUsers)
		users.GET("/:id", h.GetUser)
	}
}
