package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lumabee/tutor-booking-backend/internal/api"
	"github.com/lumabee/tutor-booking-backend/internal/auth"
	"github.com/lumabee/tutor-booking-backend/internal/availability"
	"github.com/lumabee/tutor-booking-backend/internal/booking"
	"github.com/lumabee/tutor-booking-backend/internal/config"
	"github.com/lumabee/tutor-booking-backend/internal/notification"
	"github.com/lumabee/tutor-booking-backend/internal/payment"
	"github.com/lumabee/tutor-booking-backend/internal/subject"
	"github.com/lumabee/tutor-booking-backend/internal/user"
)

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) *Container {
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL)

	// Notification Module
	dispatcher := notification.NewNopDispatcher()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		dispatcher = notification.NewRedisDispatcher(redisClient, logger)
	}
	notificationRepo := notification.NewPgxRepository(pool)
	notificationService := notification.NewService(notificationRepo, dispatcher)

	// User Module
	userRepo := user.NewPgxRepository(pool)
	userService := user.NewService(userRepo, passwordHasher)

	// Subject Module
	subjectRepo := subject.NewPgxRepository(pool)
	subjectService := subject.NewService(subjectRepo)

	// Availability Module
	availabilityRepo := availability.NewPgxRepository(pool)
	availabilityService := availability.NewService(availabilityRepo)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(pool)
	bookingService := booking.NewService(bookingRepo, userService, availabilityService, notificationService, logger)

	// Payment Module
	provider := payment.NewStripeProvider(cfg.StripeSecretKey, payment.StripeConfig{
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
		Currency:   cfg.Currency,
	})
	paymentRepo := payment.NewPgxRepository(pool)
	paymentService := payment.NewService(paymentRepo, provider, bookingRepo, bookingService, notificationService, logger)

	router := api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		StripeWebhookSecret: cfg.StripeWebhookSecret,
		UserService:         userService,
		SubjectService:      subjectService,
		AvailabilityService: availabilityService,
		BookingService:      bookingService,
		PaymentService:      paymentService,
		NotificationService: notificationService,
		JWTManager:          jwtManager,
		Logger:              logger,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
	}
}
