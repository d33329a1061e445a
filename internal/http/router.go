package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/http/handlers"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// own registry per router so tests can build routers freely
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(otelgin.Middleware("userhub"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(1 << 20))

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories and services
	usersRepo := postgres.NewUsersRepo(pool, prom)
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	authMW := middlewares.NewAuthMiddleware(jwtManager)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, prom)
	usersHandler := handlers.NewUsersHandler(usersRepo)

	// credential endpoints share one limiter; redis-backed when configured
	// so replicas count together
	var limiter middlewares.Limiter
	if cfg.RedisAddr != "" {
		rl, err := middlewares.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.LoginRateLimit, cfg.LoginRateWindow, log)

		if err != nil {
			log.Error("redis limiter unavailable, using in-memory window", "err", err)
		} else {
			limiter = rl
		}
	}

	if limiter == nil {
		limiter = middlewares.NewWindowLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	}

	credentialRate := middlewares.RateLimit(limiter, middlewares.KeyByIP)

	api := r.Group("/api")

	// Public routes
	api.POST("/register", credentialRate, authHandler.Register)
	api.POST("/login", credentialRate, authHandler.Login)

	// Any authenticated caller
	api.GET("/check-auth", authMW.RequireAuth(), authHandler.CheckAuth)
	api.GET("/me", authMW.RequireAuth(), authHandler.Me)
	api.POST("/logout", authMW.RequireAuth(), authHandler.Logout)

	// Superadmin routes
	superadmin := api.Group("", authMW.RequireAuth(), authMW.RequireRole(user.RoleSuperadmin))
	superadmin.GET("/users", usersHandler.GetAllUsers)
	superadmin.POST("/create-user", usersHandler.CreateUser)
	superadmin.PUT("/users/:id", usersHandler.UpdateUserRole)
	superadmin.DELETE("/users/:id", usersHandler.DeleteUser)

	// Admin routes
	admin := api.Group("", authMW.RequireAuth(), authMW.RequireRole(user.RoleAdmin))
	admin.GET("/my-users", usersHandler.GetUsersByAdmin)
	admin.POST("/create-superuser", usersHandler.CreateSuperuser)
	admin.PUT("/my-users/:id", usersHandler.UpdateRoleByAdmin)

	return r
}
