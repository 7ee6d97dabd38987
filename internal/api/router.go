package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lumabee/tutor-booking-backend/internal/auth"
	"github.com/lumabee/tutor-booking-backend/internal/availability"
	availabilityHttp "github.com/lumabee/tutor-booking-backend/internal/availability/http"
	"github.com/lumabee/tutor-booking-backend/internal/booking"
	bookingHttp "github.com/lumabee/tutor-booking-backend/internal/booking/http"
	"github.com/lumabee/tutor-booking-backend/internal/notification"
	notificationHttp "github.com/lumabee/tutor-booking-backend/internal/notification/http"
	"github.com/lumabee/tutor-booking-backend/internal/payment"
	paymentHttp "github.com/lumabee/tutor-booking-backend/internal/payment/http"
	"github.com/lumabee/tutor-booking-backend/internal/subject"
	subjectHttp "github.com/lumabee/tutor-booking-backend/internal/subject/http"
	"github.com/lumabee/tutor-booking-backend/internal/user"
	userHttp "github.com/lumabee/tutor-booking-backend/internal/user/http"
)

// Config holds everything the router needs to assemble the HTTP surface.
type Config struct {
	IsProduction        bool
	ProdOrigins         string
	StripeWebhookSecret string

	UserService         user.Service
	SubjectService      subject.Service
	AvailabilityService availability.Service
	BookingService      booking.Service
	PaymentService      payment.Service
	NotificationService notification.Service

	JWTManager *auth.JWTManager
	Logger     *zap.Logger
}

// NewRouter initializes the HTTP router engine.
// It assembles middleware (CORS, Logger, Auth) and registers routes for
// every module under /v1.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	adminMiddleware := RequireAdmin()

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	subjectHandler := subjectHttp.NewHandler(cfg.SubjectService)
	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	paymentHandler := paymentHttp.NewHandler(cfg.PaymentService, cfg.StripeWebhookSecret, cfg.Logger)
	notificationHandler := notificationHttp.NewHandler(cfg.NotificationService)

	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		subjectHttp.RegisterRoutes(v1, subjectHandler, authMiddleware, adminMiddleware)
		availabilityHttp.RegisterRoutes(v1, availabilityHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
		paymentHttp.RegisterRoutes(v1, paymentHandler, authMiddleware)
		notificationHttp.RegisterRoutes(v1, notificationHandler, authMiddleware)
	}

	return r
}
