package container

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"library-backend/internal/config"
	infraCache "library-backend/internal/infrastructure/cache"
	"library-backend/internal/infrastructure/database"
	"library-backend/internal/infrastructure/notifier"
	"library-backend/pkg/cache"
	pkgDatabase "library-backend/pkg/database"
	"library-backend/pkg/jwt"

	bookHandler "library-backend/internal/domains/book/handler"
	bookRepo "library-backend/internal/domains/book/repository"
	bookService "library-backend/internal/domains/book/service"
	borrowingHandler "library-backend/internal/domains/borrowing/handler"
	borrowingRepo "library-backend/internal/domains/borrowing/repository"
	borrowingService "library-backend/internal/domains/borrowing/service"
	userHandler "library-backend/internal/domains/user/handler"
	userRepo "library-backend/internal/domains/user/repository"
	userService "library-backend/internal/domains/user/service"
)

// Container holds the application dependency graph. All components are
// singletons wired once at startup, infrastructure first, then
// repositories, services, and handlers.
type Container struct {
	Config     *config.Config
	DB         *database.PostgresDB
	Cache      cache.Cache
	JWTManager *jwt.Manager
	Notifier   borrowingService.Notifier

	BookRepo      bookRepo.RepositoryInterface
	UserRepo      userRepo.RepositoryInterface
	BorrowingRepo borrowingRepo.RepositoryInterface

	BookService      bookService.ServiceInterface
	UserService      userService.ServiceInterface
	BorrowingService borrowingService.ServiceInterface

	BookHandler      *bookHandler.Handler
	UserHandler      *userHandler.Handler
	BorrowingHandler *borrowingHandler.Handler

	redisCache *infraCache.RedisCache
}

// NewContainer builds and initializes the whole dependency graph.
func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Info().Str("environment", cfg.App.Environment).Msg("config loaded")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.NewPostgresDB(&cfg.Database)
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db
	log.Info().Msg("database connected")

	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisCache.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.redisCache = redisCache
	c.Cache = redisCache
	log.Info().Msg("redis connected")

	c.JWTManager = jwt.NewManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Hour,
	)

	c.Notifier = notifier.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)

	txManager := pkgDatabase.NewTxManager(db.Pool)

	c.BookRepo = bookRepo.NewRepository(db.Pool)
	c.UserRepo = userRepo.NewRepository(db.Pool)
	c.BorrowingRepo = borrowingRepo.NewRepository(db.Pool)

	c.BookService = bookService.NewService(c.BookRepo)
	c.UserService = userService.NewService(
		c.UserRepo,
		c.JWTManager,
		c.Cache,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Hour,
	)
	c.BorrowingService = borrowingService.NewService(
		txManager,
		c.BorrowingRepo,
		c.BookRepo,
		c.UserRepo,
		c.Notifier,
	)

	c.BookHandler = bookHandler.NewHandler(c.BookService)
	c.UserHandler = userHandler.NewHandler(c.UserService)
	c.BorrowingHandler = borrowingHandler.NewHandler(c.BorrowingService)

	return c, nil
}

// Cleanup releases infrastructure resources.
func (c *Container) Cleanup() {
	if c.redisCache != nil {
		if err := c.redisCache.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
