package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/crescendo-labs/music-school-api/api/swagger"
	"github.com/crescendo-labs/music-school-api/internal/handler"
	"github.com/crescendo-labs/music-school-api/internal/middleware"
	"github.com/crescendo-labs/music-school-api/internal/models"
	"github.com/crescendo-labs/music-school-api/internal/repository"
	"github.com/crescendo-labs/music-school-api/internal/service"
	"github.com/crescendo-labs/music-school-api/pkg/cache"
	"github.com/crescendo-labs/music-school-api/pkg/config"
	"github.com/crescendo-labs/music-school-api/pkg/database"
	"github.com/crescendo-labs/music-school-api/pkg/logger"
	corsmiddleware "github.com/crescendo-labs/music-school-api/pkg/middleware/cors"
	reqidmiddleware "github.com/crescendo-labs/music-school-api/pkg/middleware/requestid"
	"github.com/crescendo-labs/music-school-api/pkg/payment"
)

// @title Music School API
// @version 1.0.0
// @description Class catalog, enrollment and payment backend for a summer music school
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	gateway := payment.NewStripeGateway(cfg.Stripe)

	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Expiration: cfg.JWT.Expiration,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, cacheRepo, userRepo, metrics, cfg.Catalog.CacheTTL, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(selectionRepo, paymentRepo, enrollmentRepo, classRepo, gateway, metrics, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	classHandler := handler.NewClassHandler(classSvc, userSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public surface.
	r.POST("/jwt", authHandler.IssueToken)
	r.POST("/users", userHandler.Register)
	r.GET("/all-approved-classes", classHandler.ListApproved)
	r.GET("/instructors", classHandler.Instructors)
	r.GET("/all-instructors", classHandler.AllInstructors)

	// Any authenticated identity.
	authed := r.Group("", middleware.JWT(authSvc))
	{
		authed.GET("/users/admin/:email", userHandler.IsAdmin)
		authed.GET("/users/instructor/:email", userHandler.IsInstructor)
		authed.GET("/users/student/:email", userHandler.IsStudent)

		authed.GET("/selected-classes", enrollmentHandler.ListSelections)
		authed.POST("/selected-classes/:id", enrollmentHandler.CreateSelection)
		authed.DELETE("/selected-classes/:id", enrollmentHandler.RemoveSelection)

		authed.POST("/create-payment-intent", enrollmentHandler.CreatePaymentIntent)
		authed.POST("/payment-transaction/:id",
			middleware.Audit(userRepo, models.AuditActionPaymentConfirm, "selection"),
			enrollmentHandler.ConfirmPayment)
		authed.GET("/payment-history", enrollmentHandler.PaymentHistory)
		authed.GET("/payment-history/export", enrollmentHandler.ExportPaymentHistory)
		authed.GET("/payment-receipt/:id", enrollmentHandler.PaymentReceipt)

		authed.GET("/enrolled-classes", enrollmentHandler.EnrolledClasses)
	}

	// Instructor surface.
	instructor := r.Group("", middleware.JWT(authSvc), middleware.RequireRole(userRepo, models.RoleInstructor, models.RoleAdmin))
	{
		instructor.POST("/add-a-class", classHandler.Add)
		instructor.GET("/my-classes", classHandler.MyClasses)
	}

	// Admin surface.
	admin := r.Group("", middleware.JWT(authSvc), middleware.RequireRole(userRepo, models.RoleAdmin))
	{
		admin.GET("/users", userHandler.List)
		admin.DELETE("/users/:id", userHandler.Delete)
		admin.PATCH("/users/admin/:id", userHandler.PromoteAdmin)
		admin.PATCH("/users/instructor/:id", userHandler.PromoteInstructor)

		admin.GET("/all-classes", classHandler.ListAll)
		admin.DELETE("/all-classes/:id", classHandler.Delete)
		admin.PATCH("/approval-action/:id", classHandler.ApprovalAction)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
