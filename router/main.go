package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub-api/config"
	"github.com/sahilchouksey/learnhub-api/database"
	"github.com/sahilchouksey/learnhub-api/handlers"
	activity_handlers "github.com/sahilchouksey/learnhub-api/handlers/activity"
	auth_handlers "github.com/sahilchouksey/learnhub-api/handlers/auth"
	certificate_handlers "github.com/sahilchouksey/learnhub-api/handlers/certificate"
	course_handlers "github.com/sahilchouksey/learnhub-api/handlers/course"
	enrollment_handlers "github.com/sahilchouksey/learnhub-api/handlers/enrollment"
	payment_handlers "github.com/sahilchouksey/learnhub-api/handlers/payment"
	review_handlers "github.com/sahilchouksey/learnhub-api/handlers/review"
	stats_handlers "github.com/sahilchouksey/learnhub-api/handlers/stats"
	"github.com/sahilchouksey/learnhub-api/services"
	"github.com/sahilchouksey/learnhub-api/utils/auth"
	"github.com/sahilchouksey/learnhub-api/utils/cache"
	"github.com/sahilchouksey/learnhub-api/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "learnhub-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for course stats and brute force protection
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Stats caching and brute force protection will be disabled.", err)
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize services
	enrollmentService := services.NewEnrollmentService(db)
	progressService := services.NewProgressService(db, redisCache)
	if getEnv, err := config.Get(); err == nil {
		progressService.SetActiveWindow(time.Duration(getEnv.ACTIVE_WINDOW_HOURS) * time.Hour)
	}
	reviewService := services.NewReviewService(db, enrollmentService)
	certificateService := services.NewCertificateService(db)

	// Initialize handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(db)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(db, enrollmentService)
	activityHandler := activity_handlers.NewActivityHandler(db, progressService)
	reviewHandler := review_handlers.NewReviewHandler(db, reviewService)
	certificateHandler := certificate_handlers.NewCertificateHandler(db, certificateService)
	statsHandler := stats_handlers.NewStatsHandler(db, progressService)
	paymentHandler := payment_handlers.NewPaymentHandler(db)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HealthCheck(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// ==================== Courses & Content ====================

	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)                                       // Public: List all courses
	courses.Get("/:id", courseHandler.GetCourse)                                      // Public: Get course with modules and lessons
	courses.Post("/", authMiddleware.RequireAdmin(), courseHandler.CreateCourse)      // Admin only: Create course
	courses.Put("/:id", authMiddleware.RequireAdmin(), courseHandler.UpdateCourse)    // Admin only: Update course
	courses.Delete("/:id", authMiddleware.RequireAdmin(), courseHandler.DeleteCourse) // Admin only: Delete course

	// Content structure (admin only)
	courses.Post("/:id/modules", authMiddleware.RequireAdmin(), courseHandler.CreateModule)
	courses.Post("/:id/quizzes", authMiddleware.RequireAdmin(), courseHandler.CreateQuiz)
	api.Post("/modules/:id/lessons", authMiddleware.RequireAdmin(), courseHandler.CreateLesson)

	// ==================== Enrollment Workflow ====================

	courses.Post("/:id/enroll", authMiddleware.Required(), enrollmentHandler.RequestEnrollment) // Protected: Request enrollment
	courses.Get("/:id/enrollments", authMiddleware.RequireAdmin(), enrollmentHandler.ListByCourse)

	enrollments := api.Group("/enrollments")
	enrollments.Post("/:id/approve",
		authMiddleware.RequireAdmin(),
		middleware.AdminAuditLog(db, "enrollment_approve", "enrollments"),
		enrollmentHandler.Approve)
	enrollments.Post("/:id/reject",
		authMiddleware.RequireAdmin(),
		middleware.AdminAuditLog(db, "enrollment_reject", "enrollments"),
		enrollmentHandler.Reject)
	enrollments.Post("/bulk-approve",
		authMiddleware.RequireAdmin(),
		middleware.AdminAuditLog(db, "enrollment_bulk_approve", "enrollments"),
		enrollmentHandler.BulkApprove)

	// ==================== Progress & Activity ====================

	courses.Post("/:id/activity", authMiddleware.Required(), activityHandler.RecordActivity)
	courses.Get("/:id/progress", authMiddleware.Required(), activityHandler.MyProgress)
	courses.Post("/:id/quiz-scores", authMiddleware.Required(), enrollmentHandler.RecordQuizScore)

	// ==================== Reviews & Ratings ====================

	courses.Post("/:id/reviews", authMiddleware.Required(), reviewHandler.SubmitReview)
	courses.Get("/:id/reviews", reviewHandler.ListReviews) // Public: List course reviews
	courses.Delete("/:id/reviews", authMiddleware.Required(), reviewHandler.DeleteReview)
	courses.Get("/:id/rating-stats", reviewHandler.RatingStats) // Public: Rating distribution

	// ==================== Certificates ====================

	courses.Get("/:id/certificate", authMiddleware.Required(), certificateHandler.CheckEligibility)

	// ==================== Course Stats & Counters ====================

	courses.Get("/:id/stats", statsHandler.GetCourseStats) // Public: Cached course stats
	courses.Post("/:id/stats/reconcile",
		authMiddleware.RequireAdmin(),
		middleware.AdminAuditLog(db, "stats_reconcile", "courses"),
		statsHandler.Reconcile)

	// ==================== Payments ====================

	courses.Post("/:id/payments",
		authMiddleware.RequireAdmin(),
		middleware.AdminAuditLog(db, "payment_record", "course_payments"),
		paymentHandler.RecordPayment)

	// ==================== Student Dashboard ====================

	me := api.Group("/me", authMiddleware.Required())
	me.Get("/enrollments", enrollmentHandler.MyEnrollments)
	me.Get("/payments", paymentHandler.MyPayments)
}
