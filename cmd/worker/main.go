package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/snapit/avatar-orderflow/internal/avatars"
	"github.com/snapit/avatar-orderflow/internal/aws"
	"github.com/snapit/avatar-orderflow/internal/config"
	"github.com/snapit/avatar-orderflow/internal/formatter"
	"github.com/snapit/avatar-orderflow/internal/logging"
)

func main() {
	appCfg := config.Load()

	if err := logging.InitLogger(appCfg.Server.Env); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logging.SyncLogger()
	logger := logging.GetLogger()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	avatarStore := avatars.NewStore(clients.DynamoDB, appCfg.Tables.Avatars)
	invoker := formatter.NewInvoker(appCfg.Overlay.FormatURL)
	p := NewProcessor(invoker, avatarStore, logger)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"avatarId":"local-avatar-1","imageUrl":"https://example.com/raw.jpg"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			logger.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}
