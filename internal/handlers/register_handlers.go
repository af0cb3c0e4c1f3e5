package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kobisoft/mutabakat_app/cmd/docs"
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	portssvc "github.com/kobisoft/mutabakat_app/internal/core/ports/services"
	"github.com/kobisoft/mutabakat_app/internal/middleware"
	"github.com/kobisoft/mutabakat_app/internal/platform/config"
)

// ErrorResponse is a generic error response structure for handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	registerCustomValidators()

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Register public authentication routes
	registerAuthRoutes(r, cfg, services.User)

	// Public token-addressed approval routes, rate limited per IP
	registerPublicApprovalRoutes(r, cfg, services.Approval)

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// registerCustomValidators adds the taxnumber rule used by binding tags.
func registerCustomValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("taxnumber", func(fl validator.FieldLevel) bool {
			return domain.ValidTaxNumber(fl.Field().String())
		})
	}
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	registerDocumentRoutes(v1, services.Document)
	registerImportRoutes(v1, cfg, services.Import)
	registerUserRoutes(v1, services.User)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// registerPublicApprovalRoutes wires the unauthenticated approval gateway.
func registerPublicApprovalRoutes(r *gin.Engine, cfg *config.Config, approvalService portssvc.ApprovalSvcFacade) {
	ipLimiter, err := middleware.NewIPRateLimiter(cfg.PublicRateLimit)
	if err != nil {
		slog.Warn("Invalid public rate limit, falling back to 30-M", slog.String("configured", cfg.PublicRateLimit))
		ipLimiter, _ = middleware.NewIPRateLimiter("30-M")
	}

	h := newPublicApprovalHandler(approvalService)

	public := r.Group("/public/approval", middleware.RateLimit(ipLimiter))
	{
		public.GET("/:token", h.resolveToken)
		public.POST("/:token/consents", h.recordConsents)
		public.POST("/:token", h.act)
	}
}
