package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pawaaan9/ictb-donations/config"
	"github.com/pawaaan9/ictb-donations/controllers"
	"github.com/pawaaan9/ictb-donations/database"
	"github.com/pawaaan9/ictb-donations/logger"
	"github.com/pawaaan9/ictb-donations/middleware"
	aws_pkg "github.com/pawaaan9/ictb-donations/pkg/aws"
	"github.com/pawaaan9/ictb-donations/repository"
	"github.com/pawaaan9/ictb-donations/routes"
	"github.com/pawaaan9/ictb-donations/services"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "ictb-donations"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- AWS setup (only when a feature needs it) ---
	var awsCfg *sdkaws.Config
	if needsAWS(cfg) {
		c, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
		awsCfg = &c
	}

	// --- Logger ---
	var cwWriter io.Writer
	var cwErr error
	if cfg.AWS.CloudWatchEnabled && awsCfg != nil {
		cw, err := aws_pkg.NewCloudWatchLogsClient(ctx, *awsCfg, serviceName)
		if err != nil {
			cwErr = err
		} else {
			cwWriter = cw
		}
	}
	zapLogger, err := logger.New(cfg.Environment, cwWriter)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	if cwErr != nil {
		zapLogger.Warn("CloudWatch Logs disabled (non-fatal)", zap.Error(cwErr))
	}

	// --- Secrets and environment check ---
	if cfg.Stripe.SecretsID != "" && awsCfg != nil {
		if err := config.ApplySecrets(ctx, cfg, aws_pkg.NewSecretsClient(*awsCfg)); err != nil {
			zapLogger.Error("Failed to load Stripe secrets from Secrets Manager", zap.Error(err))
		}
	}
	guard := config.NewGuard(cfg)
	guard.LogStatus(zapLogger)

	// --- Counter store ---
	repo, redisClient := buildRepository(ctx, cfg, awsCfg, zapLogger)

	// --- AWS clients ---
	var metricsClient *aws_pkg.MetricsClient
	var snsClient aws_pkg.SNSPublisher
	if awsCfg != nil {
		metricsClient = aws_pkg.NewMetricsClient(*awsCfg, "ICTBDonations", cfg.AWS.CloudWatchEnabled)
		if cfg.AWS.DonationTopicARN != "" {
			snsClient = aws_pkg.NewSNSClient(*awsCfg)
		}
	}

	// --- Dependency injection ---
	gateway := services.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	checkoutService := services.NewCheckoutService(gateway, cfg.Stripe, metricsClient, zapLogger)
	webhookService := services.NewWebhookService(gateway, repo, cfg.Stripe, snsClient, cfg.AWS.DonationTopicARN, metricsClient, zapLogger)
	brickService := services.NewBrickService(repo, config.TotalBricks)

	// --- HTTP router ---
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(cfg.CORS))

	routes.RegisterRoutes(ctx, r, cfg, routes.Controllers{
		Payment: controllers.NewPaymentController(checkoutService, cfg, zapLogger),
		Webhook: controllers.NewWebhookController(webhookService, brickService, zapLogger),
		Bricks:  controllers.NewBricksController(brickService, zapLogger),
		Health:  controllers.NewHealthController(cfg, guard),
	})

	// --- HTTP server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLogger.Info("Donation service started",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("counter_store", cfg.Store.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	zapLogger.Info("Initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown error", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zapLogger.Error("Redis close error", zap.Error(err))
		}
	}

	zapLogger.Info("Donation service stopped gracefully")
}

func needsAWS(cfg *config.Config) bool {
	return cfg.Stripe.SecretsID != "" ||
		cfg.Store.Backend == config.StoreDynamoDB ||
		cfg.AWS.DonationTopicARN != "" ||
		cfg.AWS.CloudWatchEnabled
}

// buildRepository connects the configured counter store. A store without
// usable settings is replaced by one that reports a configuration error on
// every call, so checkout keeps working while /bricks fails loudly.
func buildRepository(ctx context.Context, cfg *config.Config, awsCfg *sdkaws.Config, log *zap.Logger) (repository.BrickRepository, *redis.Client) {
	if !cfg.StoreConfigured() {
		reason := "Redis config missing: REDIS_URL not set"
		if cfg.Store.Backend == config.StoreDynamoDB {
			reason = "DynamoDB config missing: DYNAMODB_TABLE not set"
		}
		log.Error("Counter store not configured", zap.String("reason", reason))
		return repository.NewUnconfiguredRepository(reason), nil
	}

	switch cfg.Store.Backend {
	case config.StoreDynamoDB:
		log.Info("Using DynamoDB counter store", zap.String("table", cfg.Store.DynamoDBTable))
		return repository.NewDynamoBrickRepository(database.NewDynamoDBClient(*awsCfg), cfg.Store.DynamoDBTable, config.TotalBricks), nil
	default:
		client, err := database.NewRedisClient(ctx, cfg.Store.RedisURL, cfg.Store.RedisToken)
		if err != nil {
			// go-redis redials on demand, so an unreachable store is an
			// upstream error per call rather than a permanent one.
			log.Warn("Redis ping failed at startup", zap.Error(err))
			client, err = database.OpenRedis(cfg.Store.RedisURL, cfg.Store.RedisToken)
			if err != nil {
				log.Error("Redis URL is invalid", zap.Error(err))
				return repository.NewUnconfiguredRepository("Redis config invalid: REDIS_URL could not be parsed"), nil
			}
		}
		log.Info("Using Redis counter store")
		return repository.NewRedisBrickRepository(client, config.TotalBricks), client
	}
}
