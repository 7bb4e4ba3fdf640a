package main

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/streamhive/account-service/internal/app"
	"github.com/streamhive/account-service/internal/config"
	domainService "github.com/streamhive/account-service/internal/domain/service"
	eventsKafka "github.com/streamhive/account-service/internal/events/kafka"
	httpHandler "github.com/streamhive/account-service/internal/handler/http"
	"github.com/streamhive/account-service/internal/infrastructure/database"
	infraPostgres "github.com/streamhive/account-service/internal/infrastructure/database/postgres"
	"github.com/streamhive/account-service/internal/infrastructure/media"
	"github.com/streamhive/account-service/internal/infrastructure/security"
	"github.com/streamhive/account-service/internal/service"
	"github.com/streamhive/account-service/internal/utils/jwt"
	"github.com/streamhive/account-service/internal/utils/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if cfg.Database.AutoMigrate {
		log.Info("Running database migrations")
		migrationURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, cfg.Database.SSLMode)
		m, err := migrate.New("file://migrations", migrationURL)
		if err != nil {
			log.Fatal("Failed to create migration instance", zap.Error(err))
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
		log.Info("Migrations applied successfully")
	}

	ctx := context.Background()

	dbPool, err := infraPostgres.NewDBPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize PostgreSQL connection pool", zap.Error(err))
	}
	defer dbPool.Close()

	userRepo := database.NewPgxUserRepository(dbPool)

	passwordService, err := security.NewArgon2idPasswordService(cfg.Security.PasswordHash)
	if err != nil {
		log.Fatal("Failed to initialize password service", zap.Error(err))
	}

	tokenManager, err := jwt.NewTokenManager(&cfg.JWT)
	if err != nil {
		log.Fatal("Failed to initialize token manager", zap.Error(err))
	}

	mediaStorage, err := media.NewS3MediaStorage(ctx, cfg.Media)
	if err != nil {
		log.Fatal("Failed to initialize media storage", zap.Error(err))
	}

	var publisher domainService.EventPublisher = eventsKafka.NoopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := eventsKafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log, "/account-service")
		if err != nil {
			log.Fatal("Failed to initialize Kafka producer", zap.Error(err))
		}
		defer producer.Close()
		publisher = producer
	}

	authService := service.NewAuthService(log, userRepo, passwordService, mediaStorage, tokenManager, publisher)
	userService := service.NewUserService(log, userRepo, passwordService, mediaStorage, publisher)

	router := httpHandler.SetupRouter(authService, userService, tokenManager, userRepo, cfg, log)

	application := app.NewApp(cfg, log, router)
	if err := application.Run(); err != nil {
		log.Fatal("Application terminated", zap.Error(err))
	}
}
