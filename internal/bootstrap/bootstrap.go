package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appControllers "github.com/oficina/chat/internal/app/controllers"
	appMigrations "github.com/oficina/chat/internal/app/migrations"
	appRepos "github.com/oficina/chat/internal/app/repositories"
	appRoutes "github.com/oficina/chat/internal/app/routes"
	appServices "github.com/oficina/chat/internal/app/services"
	"github.com/oficina/chat/internal/config"
	"github.com/oficina/chat/internal/db"
	appMiddleware "github.com/oficina/chat/internal/middleware"
	pkgAuth "github.com/oficina/chat/internal/pkg/auth"
	"github.com/oficina/chat/internal/pkg/events"
	"github.com/oficina/chat/internal/pkg/helpers"
	"github.com/oficina/chat/internal/pkg/logger"
	"github.com/oficina/chat/internal/pkg/metrics"
	"github.com/oficina/chat/internal/pkg/presence"
	"github.com/oficina/chat/internal/pkg/redisx"
	"github.com/oficina/chat/internal/pkg/websocket"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService      appServices.AuthService
	ChatService      appServices.ChatService
	WorkspaceService appServices.WorkspaceService
	Repos            *appRepos.Repositories
	JWTService       *pkgAuth.JWTService
	Metrics          *metrics.Metrics
	Hub              *websocket.Hub
	Broker           websocket.Broker
	Presence         presence.Store
	Exporter         events.Exporter
	Redis            *redis.Client
	Handlers         appRoutes.Handlers
	Logger           zerolog.Logger
}

// Close releases the external clients held by the dependencies
func (d *Dependencies) Close() {
	if err := d.Exporter.Close(); err != nil {
		d.Logger.Error().Err(err).Msg("Failed to close event exporter")
	}
	if err := d.Broker.Close(); err != nil {
		d.Logger.Error().Err(err).Msg("Failed to close realtime broker")
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("Failed to close redis client")
		}
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger
// on stdout. The returned closer flushes the log file, if any.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, io.Closer, error) {
	return LoadConfigAndSetupLoggerTo(configPath, os.Stdout)
}

// LoadConfigAndSetupLoggerTo is LoadConfigAndSetupLogger writing logs to out
func LoadConfigAndSetupLoggerTo(configPath string, out io.Writer) (*config.Config, zerolog.Logger, io.Closer, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, nil, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr, closer := logger.Configure(logger.Config{
		Level:      logLevel,
		Pretty:     strings.ToLower(cfg.Logging.Format) == "text",
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Output:     out,
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, closer, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	if _, err := RunMigrations(ctx, cfg, database.Pool, lgr); err != nil {
		database.Close()
		return nil, err
	}
	return database.Pool, nil
}

// RunMigrations applies the pending files of the configured migrations directory
func RunMigrations(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, lgr zerolog.Logger) (int, error) {
	lgr.Info().Str("dir", cfg.Database.MigrationsDir).Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(pool, lgr).MigrateFromDirectory(ctx, cfg.Database.MigrationsDir)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return applied, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations complete")
	return applied, nil
}

// BuildDependencies initializes repositories, realtime plumbing, services and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)
	deps.Metrics = metrics.New(prometheus.NewRegistry())

	if cfg.Redis.Enabled {
		rdb, err := redisx.Open(ctx, cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to redis")
			return nil, err
		}
		deps.Redis = rdb
		deps.Broker = websocket.NewRedisBroker(rdb, logger.Component("redis-broker"))
		deps.Presence = presence.NewRedisStore(rdb)
		lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Realtime fan-out through redis")
	} else {
		deps.Broker = websocket.NewLocalBroker(1024)
		deps.Presence = presence.NewMemoryStore()
	}

	if cfg.Kafka.Enabled {
		deps.Exporter = events.NewKafkaExporter(cfg.KafkaBrokerList(), cfg.Kafka.Topic, logger.Component("kafka-exporter"))
		lgr.Info().Strs("brokers", cfg.KafkaBrokerList()).Str("topic", cfg.Kafka.Topic).Msg("Message export enabled")
	} else {
		deps.Exporter = events.NopExporter{}
	}

	deps.Hub = websocket.NewHub(deps.Broker, deps.Metrics, lgr)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.JWTService, logger.Component("auth"))
	deps.ChatService = appServices.NewChatService(
		deps.Repos.GroupRepository,
		deps.Repos.MessageRepository,
		deps.Repos.MemberRepository,
		deps.Repos.UserRepository,
		deps.Hub,
		deps.Exporter,
		deps.Metrics,
		logger.Component("chat"),
	)
	deps.WorkspaceService = appServices.NewWorkspaceService(
		deps.Repos.WorkspaceRepository,
		deps.Repos.MemberRepository,
		deps.Repos.UserRepository,
		deps.Repos.GroupRepository,
		deps.Presence,
		cfg.Chat.DefaultChannel,
		logger.Component("workspace"),
	)

	deps.Handlers = appRoutes.Handlers{
		Auth:        appControllers.NewAuthController(deps.AuthService, lgr),
		User:        appControllers.NewUserController(deps.AuthService),
		Workspace:   appControllers.NewWorkspaceController(deps.WorkspaceService),
		Chat:        appControllers.NewChatController(deps.ChatService),
		Realtime:    websocket.NewHandler(deps.Hub, deps.ChatService, deps.Presence, logger.Component("realtime")),
		AuthMW:      appMiddleware.NewAuthMiddleware(deps.JWTService),
		SendLimiter: appMiddleware.NewUserRateLimiter(cfg.Chat.SendRate, cfg.Chat.SendBurst),
		Metrics:     deps.Metrics,
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(logger.Component("http")))

	appRoutes.SetupRouter(router, deps.Handlers)
	return router
}
