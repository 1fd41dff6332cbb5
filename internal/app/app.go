package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gradnet/gradnet/internal/config"
	"github.com/gradnet/gradnet/internal/db"
	"github.com/gradnet/gradnet/internal/markdown"
	"github.com/gradnet/gradnet/internal/middleware"
	"github.com/gradnet/gradnet/internal/repository"
	"github.com/gradnet/gradnet/internal/service"
	"github.com/gradnet/gradnet/internal/storage"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Cfg   *config.Config
	DB    *sqlx.DB
	Redis *redis.Client

	// AuthLimiter throttles signup and signin per client IP
	AuthLimiter middleware.Limiter

	Tokens            *service.TokenService
	AuthService       *service.AuthService
	UserService       *service.UserService
	PostService       *service.PostService
	CircleService     *service.CircleService
	ExperienceService *service.ExperienceService
	AvatarService     *service.AvatarService
	EmailService      *service.EmailService
	Toggles           *service.ToggleEngine

	stop context.CancelFunc
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &App{Cfg: cfg, DB: database}
	ctx, a.stop = context.WithCancel(ctx)

	// Rate limiting: shared through Redis when configured, per process otherwise
	if cfg.RedisURL != "" {
		a.Redis, err = connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.AuthLimiter = middleware.NewRedisLimiter(a.Redis, cfg.RateLimitAuth, cfg.RateLimitWindow)
	} else {
		a.AuthLimiter = middleware.NewRateLimiter(ctx, cfg.RateLimitAuth, cfg.RateLimitWindow)
	}

	// Storage
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	collegeRepository := repository.NewCollegeRepository(database)
	postRepository := repository.NewPostRepository(database)
	circleRepository := repository.NewCircleRepository(database)
	relationRepository := repository.NewRelationRepository(database)
	experienceRepository := repository.NewExperienceRepository(database)

	// Services
	renderer := markdown.NewRenderer()
	guard := service.NewGuard(cfg.CirclePostPolicy)
	a.Tokens = service.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry, cfg.IsProduction())
	a.EmailService = service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	a.Toggles = service.NewToggleEngine(relationRepository, userRepository, postRepository, circleRepository)
	a.AvatarService = service.NewAvatarService(userRepository, fileStorage, guard)
	a.AuthService = service.NewAuthService(database, userRepository, collegeRepository, a.Tokens, a.EmailService)
	a.UserService = service.NewUserService(
		userRepository,
		collegeRepository,
		postRepository,
		circleRepository,
		experienceRepository,
		a.Toggles,
		guard,
		renderer,
		a.EmailService,
		a.AvatarService,
	)
	a.PostService = service.NewPostService(postRepository, circleRepository, relationRepository, guard, renderer)
	a.CircleService = service.NewCircleService(database, circleRepository, userRepository, postRepository, guard, renderer)
	a.ExperienceService = service.NewExperienceService(experienceRepository, userRepository, guard)

	return a, nil
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = client.Ping(ctx).Err()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (a *App) Close() error {
	if a.stop != nil {
		a.stop()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	return db.Close(a.DB)
}
