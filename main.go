package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/common/logger"
	"storefront-service/common/middleware"
	"storefront-service/config"
	"storefront-service/controllers"
	"storefront-service/database"
	"storefront-service/kafka"
	auth "storefront-service/middleware"
	"storefront-service/models"
	aws_pkg "storefront-service/pkg/aws"
	"storefront-service/repository"
	"storefront-service/routes"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "storefront-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	// --- AWS setup ---
	awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	var cwWriter io.Writer
	if cfg.CloudWatchEnabled {
		cwLogs, cwErr := aws_pkg.NewCloudWatchLogsClient(context.Background(), awsCfg, "/storefront/"+serviceName, serviceName)
		if cwErr != nil {
			log.Printf("CloudWatch logs client init failed (non-fatal): %v", cwErr)
		} else {
			cwWriter = cwLogs
		}
	}

	zapLogger, err := logger.New(cfg.AppEnv, cwWriter)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer zapLogger.Sync()

	metricsClient := aws_pkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.MetricsEnabled)

	// --- Databases ---
	db, err := database.ConnectPostgres(zapLogger, cfg.PostgresDSN(), &models.Order{}, &models.OrderItem{}, &models.PromoCode{})
	if err != nil {
		zapLogger.Fatal("DB connection failed", zap.Error(err))
	}

	mongoClient, mongoDB, err := database.ConnectMongo(context.Background(), zapLogger, cfg.MongoURL, cfg.MongoDB)
	if err != nil {
		zapLogger.Fatal("MongoDB connection failed", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(context.Background(), cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("Redis connection failed", zap.Error(err))
	}

	ddbClient := database.NewDynamoClient(awsCfg, cfg.AWSEndpoint)

	// --- Repositories ---
	orderRepo := repository.NewGormOrderRepository(db)
	promoRepo := repository.NewGormPromoRepository(db)

	feedbackRepo := repository.NewMongoFeedbackRepository(mongoDB)
	if err := feedbackRepo.EnsureIndexes(context.Background()); err != nil {
		zapLogger.Fatal("Failed to create feedback indexes", zap.Error(err))
	}

	productRepo := repository.NewCachedProductRepository(
		repository.NewDynamoProductRepository(ddbClient, cfg.ProductsTable, cfg.CountersTable),
		redisClient, cfg.ProductCacheTTL, zapLogger)
	productRepo.OnLookup = func(hit bool) {
		metric := aws_pkg.MetricCacheMisses
		if hit {
			metric = aws_pkg.MetricCacheHits
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsClient.RecordCount(ctx, metric, map[string]string{"Cache": "product"})
		}()
	}

	cartRepo := repository.NewRedisCartRepository(redisClient, cfg.CartTTL)

	// --- Event fan-out (each sink optional) ---
	var producer kafka.ProducerAPI
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic, zapLogger)
	}
	var snsClient aws_pkg.SNSPublisher
	if cfg.OrderSNSTopicArn != "" {
		snsClient = aws_pkg.NewSNSClient(awsCfg)
	}
	var events services.EventPublisher
	if producer != nil || snsClient != nil {
		events = services.NewOrderEventPublisher(producer, snsClient, cfg.OrderSNSTopicArn, zapLogger)
	}

	var images services.ImageStore
	if cfg.ProductImagesBucket != "" {
		images = aws_pkg.NewS3ImageStore(awsCfg, cfg.ProductImagesBucket)
	}

	// --- Services ---
	promoService := services.NewPromoService(promoRepo, zapLogger)
	orderService := services.NewOrderService(orderRepo, productRepo, promoService, events, metricsClient, cfg.OrderIDPrefix, zapLogger)
	feedbackService := services.NewFeedbackService(feedbackRepo, orderRepo, metricsClient, zapLogger)
	productService := services.NewProductService(productRepo, images, zapLogger)
	cartService := services.NewCartService(cartRepo, productRepo, promoService, zapLogger)

	// --- Asynchronous checkout ---
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	if cfg.CheckoutQueueURL != "" {
		checkout := services.NewCheckoutConsumer(orderService, metricsClient, zapLogger)
		sqsConsumer := aws_pkg.NewSQSConsumer(awsCfg, cfg.CheckoutQueueURL, zapLogger)
		go func() {
			defer close(consumerDone)
			zapLogger.Info("Checkout consumer started", zap.String("queue_url", cfg.CheckoutQueueURL))
			if err := sqsConsumer.StartPolling(consumerCtx, checkout.Handle); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("Checkout consumer stopped", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	// --- HTTP router ---
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(apperrors.ErrorMiddleware())
	r.Use(auth.Authenticate(cfg.JWTSecret))

	routes.RegisterRoutes(r, routes.Controllers{
		Products: controllers.NewProductController(productService),
		Cart:     controllers.NewCartController(cartService),
		Promos:   controllers.NewPromoController(promoService),
		Orders:   controllers.NewOrderController(orderService),
		Feedback: controllers.NewFeedbackController(feedbackService),
	}, routes.RateLimits{PerMinute: cfg.RateLimitPerMinute, Burst: cfg.RateLimitBurst})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		zapLogger.Info("Storefront Service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Initiating graceful shutdown...")
	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		zapLogger.Error("Server shutdown error", zap.Error(err))
	}

	stopConsumer()
	select {
	case <-consumerDone:
	case <-httpShutdownCtx.Done():
		zapLogger.Warn("Checkout consumer did not stop in time")
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			zapLogger.Error("Kafka producer close error", zap.Error(err))
		}
	}
	if err := redisClient.Close(); err != nil {
		zapLogger.Error("Redis close error", zap.Error(err))
	}
	if err := database.DisconnectMongo(context.Background(), mongoClient); err != nil {
		zapLogger.Error("MongoDB disconnect error", zap.Error(err))
	}
	if err := database.ClosePostgres(db); err != nil {
		zapLogger.Error("Database close error", zap.Error(err))
	}

	zapLogger.Info("Storefront Service stopped gracefully")
}
