// Package api wires together all HTTP routes for the Worknest backend.
//
// Route grouping:
//   - Registration, login, confirmation and invitation acceptance are public and
//     sit behind the stricter auth rate limiter.
//   - Refresh and logout read the refresh cookie and authenticate inside the
//     handler.
//   - Everything else under /api/v1 requires an access token, is rate limited per
//     user and has its successful mutations written to the audit log.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/worknest/worknest/internal/api/handlers"
	"github.com/worknest/worknest/internal/api/response"
	"github.com/worknest/worknest/internal/auth"
	"github.com/worknest/worknest/internal/config"
	"github.com/worknest/worknest/internal/db/repositories"
	"github.com/worknest/worknest/internal/jobs"
	"github.com/worknest/worknest/internal/mail"
	"github.com/worknest/worknest/internal/middleware"
	"github.com/worknest/worknest/internal/safego"
	"github.com/worknest/worknest/internal/services"
	"github.com/worknest/worknest/internal/storage"
	"github.com/worknest/worknest/internal/storage/local"

	// Import storage backends to register them
	_ "github.com/worknest/worknest/internal/storage/azure"
	_ "github.com/worknest/worknest/internal/storage/gcs"
	_ "github.com/worknest/worknest/internal/storage/s3"
)

// Version is reported by /version. Overridden at build time with -ldflags.
var Version = "dev"

// BackgroundServices holds references to background jobs and resources that must
// be stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	sweeper      *jobs.TokenSweeper
	rateLimiters []middleware.Limiter
	redis        redis.UniversalClient
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.sweeper != nil {
		bg.sweeper.Stop()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	if bg.redis != nil {
		if err := bg.redis.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// rateLimits builds the limiter middlewares. When rate limiting is disabled
// every limiter is a pass-through.
type rateLimits struct {
	enabled  bool
	rdb      redis.UniversalClient
	out      response.Writer
	limiters []middleware.Limiter
}

func (rl *rateLimits) middleware(lc middleware.RateLimitConfig) gin.HandlerFunc {
	if !rl.enabled {
		return func(c *gin.Context) { c.Next() }
	}
	l := middleware.NewLimiter(rl.rdb, lc)
	rl.limiters = append(rl.limiters, l)
	return middleware.RateLimitMiddleware(l, rl.out)
}

func newRateLimits(cfg *config.RateLimitingConfig, out response.Writer) *rateLimits {
	rl := &rateLimits{enabled: cfg.Enabled, out: out}
	if cfg.Enabled && cfg.Backend == "redis" {
		rl.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return rl
}

// defaultLimit applies the configured request rate to the general limiter.
func defaultLimit(cfg *config.RateLimitingConfig) middleware.RateLimitConfig {
	lc := middleware.DefaultRateLimitConfig()
	if cfg.RequestsPerMinute > 0 {
		lc.RequestsPerMinute = cfg.RequestsPerMinute
	}
	if cfg.Burst > 0 {
		lc.BurstSize = cfg.Burst
	}
	return lc
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sqlx.DB) (*gin.Engine, *BackgroundServices, error) {
	if err := handlers.RegisterValidators(); err != nil {
		return nil, nil, fmt.Errorf("failed to register validators: %w", err)
	}

	storageBackend, err := storage.NewStorage(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	slog.Info("initialized storage backend", "backend", cfg.Storage.DefaultBackend)

	issuer, err := auth.NewTokenIssuer(cfg.Auth)
	if err != nil {
		return nil, nil, err
	}
	mailer, err := mail.NewMailer(mail.NewSender(cfg.Notifications), cfg.Server.GetPublicURL(), cfg.Client.URL)
	if err != nil {
		return nil, nil, err
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	orgRepo := repositories.NewOrganisationRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	taskStatusRepo := repositories.NewTaskStatusRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Services
	bcryptCost := cfg.Auth.BcryptCost
	userService := services.NewUserService(userRepo, refreshTokenRepo, issuer, mailer, bcryptCost)
	orgService := services.NewOrganisationService(orgRepo, userRepo, mailer, bcryptCost)
	profileService := services.NewProfileService(profileRepo, userRepo)
	projectService := services.NewProjectService(projectRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, taskStatusRepo, projectRepo, userRepo)
	auditService := services.NewAuditService(auditRepo, userRepo)

	out := response.Writer{ExposeTraces: cfg.Server.ExposeTraces}
	cookies := handlers.NewCookieConfig(cfg.Server.GetPublicURL(), cfg.Auth.CookieDomain, issuer.AccessTTL(), issuer.RefreshTTL())

	userHandlers := handlers.NewUserHandlers(userService, out, cookies)
	orgHandlers := handlers.NewOrganisationHandlers(orgService, out)
	profileHandlers := handlers.NewProfileHandlers(profileService, out)
	projectHandlers := handlers.NewProjectHandlers(projectService, taskService, out)
	auditHandlers := handlers.NewAuditHandlers(auditService, out)
	fileHandlers := handlers.NewFileHandlers(storageBackend, out, cfg.Storage.MaxUploadBytes)

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Telemetry.Sentry.Enabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig(cfg.SecureCookies())))

	router.GET("/health", healthCheckHandler(db))
	router.GET("/ready", readinessHandler(db, storageBackend))
	router.GET("/version", versionHandler())

	// Unsigned direct serving of locally stored files, development only
	if cfg.Storage.DefaultBackend == "local" && cfg.Storage.Local.ServeDirectly {
		router.Static(local.FilesRoute, cfg.Storage.Local.BasePath)
	}

	limits := newRateLimits(&cfg.Security.RateLimiting, out)
	authLimit := limits.middleware(middleware.AuthRateLimitConfig())
	generalLimit := limits.middleware(defaultLimit(&cfg.Security.RateLimiting))
	uploadLimit := limits.middleware(middleware.UploadRateLimitConfig())

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/health", healthCheckHandler(db))

		// Public credential endpoints
		publicGroup := apiV1.Group("")
		publicGroup.Use(authLimit)
		{
			publicGroup.POST("/user/register", userHandlers.RegisterHandler())
			publicGroup.GET("/user/confirmation/:token", userHandlers.ConfirmHandler())
			publicGroup.POST("/user/login", userHandlers.LoginHandler())
			publicGroup.POST("/organisation/create", orgHandlers.RegisterHandler())
			publicGroup.POST("/organisation/invitation/:token", orgHandlers.AcceptInvitationHandler())
		}

		// Session endpoints authenticate with the refresh token themselves
		sessionGroup := apiV1.Group("/user")
		sessionGroup.Use(generalLimit)
		{
			sessionGroup.POST("/refresh", userHandlers.RefreshHandler())
			sessionGroup.POST("/logout", userHandlers.LogoutHandler())
		}

		authenticatedGroup := apiV1.Group("")
		authenticatedGroup.Use(middleware.AuthMiddleware(issuer, userRepo, out))
		authenticatedGroup.Use(generalLimit)
		authenticatedGroup.Use(middleware.AuditMiddleware(auditRepo))
		{
			userGroup := authenticatedGroup.Group("/user")
			{
				userGroup.GET("/allUsers", userHandlers.ListUsersHandler())
				userGroup.GET("/userDetails", userHandlers.UserDetailsHandler())
				userGroup.PUT("/basicInfo", profileHandlers.UpdateBasicInfoHandler())
				userGroup.GET("/basicInfo", profileHandlers.GetBasicInfoHandler())
				userGroup.POST("/education", profileHandlers.CreateEducationHandler())
				userGroup.GET("/education", profileHandlers.ListEducationHandler())
				userGroup.PUT("/education/:educationId", profileHandlers.UpdateEducationHandler())
				userGroup.DELETE("/education/:educationId", profileHandlers.DeleteEducationHandler())
				userGroup.POST("/profession", profileHandlers.CreateProfessionHandler())
				userGroup.GET("/profession", profileHandlers.ListProfessionsHandler())
				userGroup.PUT("/profession/:professionId", profileHandlers.UpdateProfessionHandler())
				userGroup.DELETE("/profession/:professionId", profileHandlers.DeleteProfessionHandler())
			}

			orgGroup := authenticatedGroup.Group("/organisation")
			{
				orgGroup.POST("/addEmployee", orgHandlers.AddEmployeeHandler())
				orgGroup.GET("/getAll", orgHandlers.ListHandler())
				orgGroup.GET("/detail/:organizationId", orgHandlers.DetailsHandler())
			}

			projectGroup := authenticatedGroup.Group("/project")
			{
				projectGroup.POST("/create", projectHandlers.CreateHandler())
				projectGroup.GET("/getAll", projectHandlers.ListHandler())
				projectGroup.GET("/get/:projectId", projectHandlers.GetHandler())
				projectGroup.PUT("/addMembers", projectHandlers.AddMembersHandler())
				projectGroup.PUT("/removeMembers", projectHandlers.RemoveMembersHandler())
			}

			taskGroup := authenticatedGroup.Group("/task")
			{
				taskGroup.POST("/status/create", projectHandlers.CreateTaskStatusHandler())
				taskGroup.GET("/status/:projectId", projectHandlers.ListTaskStatusesHandler())
				taskGroup.POST("/create", projectHandlers.CreateTaskHandler())
				taskGroup.GET("/getAll/:projectId", projectHandlers.ListTasksHandler())
			}

			filesGroup := authenticatedGroup.Group("/files")
			{
				filesGroup.POST("/upload", uploadLimit, fileHandlers.UploadHandler())
				filesGroup.GET("/url", fileHandlers.URLHandler())
				filesGroup.DELETE("", fileHandlers.DeleteHandler())
			}

			authenticatedGroup.GET("/audit/logs", auditHandlers.ListHandler())
		}
	}

	sweeper := jobs.NewTokenSweeper(refreshTokenRepo, issuer.RefreshTTL(), jobs.DefaultSweepInterval)
	safego.Go("token-sweeper", func() { sweeper.Start(context.Background()) })

	bg := &BackgroundServices{
		sweeper:      sweeper,
		rateLimiters: limits.limiters,
		redis:        limits.rdb,
	}
	return router, bg, nil
}

// healthCheckHandler is the liveness probe. It only checks the database.
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler also probes the storage backend so that a readiness gate
// fails when uploads would error.
func readinessHandler(db *sqlx.DB, storageBackend storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.PingContext(c.Request.Context()); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		// Exists on a sentinel key exercises credentials and connectivity
		// without creating any state.
		if _, err := storageBackend.Exists(c.Request.Context(), ".readiness-probe"); err != nil {
			checks["storage"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "storage backend not ready",
			})
			return
		}
		checks["storage"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     Version,
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware logs one structured record per request. The output format
// follows the global slog handler configured by telemetry.SetupLogger.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		slog.LogAttrs(
			c.Request.Context(),
			level,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", status),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", c.GetString(middleware.RequestIDKey)),
			slog.String("user_id", c.GetString(middleware.UserIDKey)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS. Credentials are allowed so the browser client
// can send the session cookies.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	origins := cfg.Security.CORS.AllowedOrigins
	methods := cfg.Security.CORS.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowMethods := strings.Join(methods, ", ")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if lo.Contains(origins, "*") || (origin != "" && lo.Contains(origins, origin)) {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", allowMethods)
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
