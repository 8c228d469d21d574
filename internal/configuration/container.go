package configuration

import (
	"context"
	"fmt"
	"time"

	"github.com/manumay1962/CHAT-APP/internal/db"
	"github.com/manumay1962/CHAT-APP/internal/handler"
	"github.com/manumay1962/CHAT-APP/internal/hub"
	"github.com/manumay1962/CHAT-APP/internal/middleware"
	"github.com/manumay1962/CHAT-APP/internal/model"
	"github.com/manumay1962/CHAT-APP/internal/repo"
	"github.com/manumay1962/CHAT-APP/internal/service"
	"github.com/manumay1962/CHAT-APP/internal/uploader"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	MessageHandler handler.MessageHandler
	MonitorHandler handler.MonitorHandler
	Hub            *hub.Hub
	Auth           *middleware.Authenticator
	RateLimiter    *middleware.IPRateLimiter
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	con, err := db.OpenConnection(config.Mongo.Uri, config.Mongo.Database)
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	messageRepo := repo.NewMessageRepository(
		db.NewRepository[model.Message](con, config.Mongo.MessagesCollection), logger)
	userRepo := repo.NewUserRepository(
		db.NewRepository[model.User](con, config.Mongo.UsersCollection))

	imageUploader := uploader.NewCloudinaryUploader(
		config.Cloudinary.CloudName,
		config.Cloudinary.ApiKey,
		config.Cloudinary.ApiSecret,
		logger,
	)

	presence := hub.NewPresenceTable()
	dispatcher := hub.NewDispatcher(presence, logger)
	h := hub.NewHub(presence, config.Server.AllowedOrigins, logger)

	messageService := service.NewMessageService(messageRepo, imageUploader, dispatcher, logger)
	userService := service.NewUserService(userRepo, messageRepo)

	messageHandler := handler.NewMessageHandler(messageService, userService, logger)
	monitorHandler := handler.NewMonitorHandler(hub.NewMonitorService(h, dispatcher))

	auth := middleware.NewAuthenticator(config.Auth.JwtSecret)
	limiter := middleware.NewIPRateLimiter(
		middleware.RateFromConfig(config.RateLimit.RequestsPerSecond),
		config.RateLimit.Burst,
	)

	return &Container{
		MessageHandler: messageHandler,
		MonitorHandler: monitorHandler,
		Hub:            h,
		Auth:           auth,
		RateLimiter:    limiter,
		Config:         *config,
		Logger:         logger,
		mongoClient:    con,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
