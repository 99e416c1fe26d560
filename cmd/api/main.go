package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	apihttp "github.com/phkuod/product-tracking-sub000/internal/api/http"
	"github.com/phkuod/product-tracking-sub000/internal/application"
	trackingMongo "github.com/phkuod/product-tracking-sub000/internal/infrastructure/mongodb"
	"github.com/phkuod/product-tracking-sub000/pkg/kafka"
	"github.com/phkuod/product-tracking-sub000/pkg/logging"
	"github.com/phkuod/product-tracking-sub000/pkg/metrics"
	"github.com/phkuod/product-tracking-sub000/pkg/middleware"
	"github.com/phkuod/product-tracking-sub000/pkg/mongodb"
	"github.com/phkuod/product-tracking-sub000/pkg/outbox"
)

const serviceName = "product-tracking"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logConfig.Environment = getEnv("ENVIRONMENT", "development")
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting product-tracking API")

	config, err := loadConfig()
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	ctx := context.Background()

	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	productRepo := trackingMongo.NewProductRepository(mongoClient.Database())
	routeRepo := trackingMongo.NewRouteRepository(mongoClient.Database())
	stationRepo := trackingMongo.NewStationRepository(mongoClient.Database())

	kafkaProducer := kafka.NewProducer(config.Kafka, logger)
	guardedProducer := kafka.NewCircuitBreakerProducer(kafkaProducer, logger, m)
	defer guardedProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	outboxPublisher := outbox.NewPublisher(productRepo.OutboxRepository(), guardedProducer, logger, m, config.Outbox)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	trackingService := application.NewTrackingService(productRepo, routeRepo, stationRepo, logger, m)
	definitionService := application.NewDefinitionService(stationRepo, routeRepo, productRepo, logger)

	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)
	router.Use(middleware.MetricsMiddleware(m))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	productHandlers := apihttp.NewHandlers(trackingService, logger)
	definitionHandlers := apihttp.NewDefinitionHandlers(definitionService, logger)
	apihttp.RegisterRoutes(router, productHandlers, definitionHandlers)

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr  string                  `yaml:"serverAddr"`
	Environment string                  `yaml:"environment"`
	MongoDB     *mongodb.Config         `yaml:"mongodb"`
	Kafka       *kafka.Config           `yaml:"kafka"`
	Outbox      *outbox.PublisherConfig `yaml:"outbox"`
}

// loadConfig builds configuration from environment variables, then applies
// the optional YAML file named by CONFIG_FILE on top
func loadConfig() (*Config, error) {
	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", "product_tracking")
	mongoConfig.Username = getEnv("MONGODB_USERNAME", "")
	mongoConfig.Password = getEnv("MONGODB_PASSWORD", "")
	mongoConfig.ReplicaSet = getEnv("MONGODB_REPLICA_SET", "")

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = []string{getEnv("KAFKA_BROKERS", "localhost:9092")}
	kafkaConfig.ClientID = serviceName

	config := &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		MongoDB:     mongoConfig,
		Kafka:       kafkaConfig,
		Outbox:      outbox.DefaultPublisherConfig(),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
