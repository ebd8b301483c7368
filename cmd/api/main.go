package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	awsclients "github.com/imrishuroy/go-commerce-backend/internal/aws"
	"github.com/imrishuroy/go-commerce-backend/internal/config"
	"github.com/imrishuroy/go-commerce-backend/internal/customers"
	"github.com/imrishuroy/go-commerce-backend/internal/handlers"
	"github.com/imrishuroy/go-commerce-backend/internal/idempotency"
	"github.com/imrishuroy/go-commerce-backend/internal/orders"
	"github.com/imrishuroy/go-commerce-backend/internal/products"
	"github.com/imrishuroy/go-commerce-backend/internal/storage"
	"github.com/imrishuroy/go-commerce-backend/internal/validation"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "commerce backend is running"})
	})
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v := validation.New()
	handlers.RegisterOrdersRoutes(r, cfg, v)
	handlers.RegisterCustomersRoutes(r, cfg, v)
	handlers.RegisterProductsRoutes(r, cfg, v)

	return r
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	conf, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	clients, err := awsclients.NewClients(context.Background(), conf.AWSRegion)
	if err != nil {
		log.WithError(err).Fatal("failed to init aws clients")
	}

	db, err := storage.Connect(conf.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := storage.RunMigrations(db, conf.MigrationsDir); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	log.Info("connected to mysql, schema up to date")

	orderStore := orders.NewSQLStore(db)
	cfg := handlers.HandlerConfig{
		Orders:      orders.NewEngine(orderStore, log),
		Customers:   customers.NewStore(db),
		Products:    products.NewStore(db),
		Idempotency: idempotency.NewStore(clients.DynamoDB, conf.IdempotencyTable, conf.IdempotencyTTL),
		Publisher:   awsclients.NewPublisher(clients.SQS, conf.OrdersQueueURL),
		Metrics:     awsclients.NewMetrics(clients.CloudWatch, conf.MetricsNamespace),
		Log:         log,
	}

	r := setupRouter(cfg)

	// if RUN_LOCAL is set, run a plain HTTP server for development.
	if conf.RunLocal {
		log.WithField("addr", conf.HTTPAddr).Info("running local server")
		if err := r.Run(conf.HTTPAddr); err != nil {
			log.WithError(err).Fatal("failed to run local server")
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
