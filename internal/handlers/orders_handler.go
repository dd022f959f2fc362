package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/snapit/avatar-orderflow/internal/avatars"
	"github.com/snapit/avatar-orderflow/internal/aws"
	"github.com/snapit/avatar-orderflow/internal/config"
	"github.com/snapit/avatar-orderflow/internal/orders"
	"github.com/snapit/avatar-orderflow/internal/validation"
)

// HandlerConfig groups dependencies for the HTTP handlers.
type HandlerConfig struct {
	DynamoDBClient   aws.DynamoDBAPI
	SQSClient        aws.SQSAPI
	CloudWatchClient aws.CloudWatchAPI
	Config           *config.Config
	Logger           *zap.Logger
}

// RegisterOrdersRoutes registers routes for the order API.
func RegisterOrdersRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	avatarStore := avatars.NewStore(cfg.DynamoDBClient, cfg.Config.Tables.Avatars)
	counter := orders.NewCounter(cfg.DynamoDBClient, cfg.Config.Tables.OrderCounter, cfg.Logger)
	store := orders.NewStore(cfg.DynamoDBClient, cfg.Config.Tables.Orders, avatarStore, counter)

	r.POST("/api/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		order, err := store.Create(ctx, req.RequestID, req.CityID, req.Price, req.AvatarIDs)
		if err != nil {
			cfg.Logger.Error("create order failed", zap.String("request_id", req.RequestID), zap.Error(err))
			renderError(c, err)
			return
		}

		cfg.Logger.Info("order created",
			zap.String("order_id", order.OrderID),
			zap.String("request_id", order.RequestID))
		c.JSON(http.StatusCreated, order)
	})

	r.GET("/api/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		list, err := store.List(ctx, c.Query("date"), c.Query("status"))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
	})

	r.GET("/api/orders/:orderId", func(c *gin.Context) {
		ctx := c.Request.Context()

		order, err := store.GetEnriched(ctx, c.Param("orderId"))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	})

	r.POST("/api/orders/:orderId/status", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.UpdateStatusRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		order, err := store.UpdateStatus(ctx, c.Param("orderId"), req.Status)
		if err != nil {
			renderError(c, err)
			return
		}

		cfg.Logger.Info("order status updated",
			zap.String("order_id", order.OrderID),
			zap.String("status", order.Status))
		c.JSON(http.StatusOK, order)
	})

	r.PUT("/api/orders/:orderId/avatars", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.UpdateAvatarsRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		order, err := store.UpdateAvatars(ctx, c.Param("orderId"), req.AvatarIDs)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	})
}
