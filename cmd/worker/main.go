package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	awsclients "github.com/imrishuroy/go-commerce-backend/internal/aws"
	"github.com/imrishuroy/go-commerce-backend/internal/config"
	"github.com/imrishuroy/go-commerce-backend/internal/orders"
	"github.com/imrishuroy/go-commerce-backend/internal/storage"
)

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

	processor := NewProcessor(
		orders.NewSQLStore(db),
		awsclients.NewMetrics(clients.CloudWatch, conf.MetricsNamespace),
		log,
	)

	// if RUN_LOCAL is set, process a single simulated event and exit.
	if conf.RunLocal {
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: `{"order_id":"local-order-1","idempotency_key":"local-key-1"}`},
			},
		}
		if err := processor.Handle(context.Background(), event); err != nil {
			log.WithError(err).Fatal("local handler error")
		}
		return
	}

	lambda.Start(processor.Handle)
}
