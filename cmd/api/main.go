package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/snapit/avatar-orderflow/internal/aws"
	"github.com/snapit/avatar-orderflow/internal/config"
	"github.com/snapit/avatar-orderflow/internal/handlers"
	"github.com/snapit/avatar-orderflow/internal/logging"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.CORS())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterOrdersRoutes(r, cfg)
	handlers.RegisterAvatarsRoutes(r, cfg)
	handlers.RegisterViewsRoutes(r, cfg)

	return r
}

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

	cfg := handlers.HandlerConfig{
		DynamoDBClient:   clients.DynamoDB,
		SQSClient:        clients.SQS,
		CloudWatchClient: clients.CloudWatch,
		Config:           appCfg,
		Logger:           logger,
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":" + appCfg.Server.Port
		logger.Info("running local server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapters; the function is wired to API Gateway in some stages
	// and to an HTTP API in others, so sniff the event shape per invoke
	adapter := ginadapter.New(r)
	adapterV2 := ginadapter.NewV2(r)

	lambda.Start(func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var probe struct {
			HTTPMethod string `json:"httpMethod"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, err
		}

		if probe.HTTPMethod != "" {
			var req events.APIGatewayProxyRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return nil, err
			}
			return adapter.ProxyWithContext(ctx, req)
		}

		var req events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		return adapterV2.ProxyWithContext(ctx, req)
	})
}
