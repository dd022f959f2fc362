package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/snapit/avatar-orderflow/internal/validation"
	"github.com/snapit/avatar-orderflow/internal/views"
)

// RegisterViewsRoutes registers the gallery view tracking route.
func RegisterViewsRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	store := views.NewStore(cfg.DynamoDBClient, cfg.Config.Tables.AvatarViews)

	r.POST("/api/views", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.RecordViewRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		err := store.Record(ctx, views.Visit{
			RequestID:  req.RequestID,
			Language:   req.Language,
			UserAgent:  req.UserAgent,
			Timezone:   req.Timezone,
			ScreenSize: req.ScreenSize,
		})
		if err != nil {
			cfg.Logger.Warn("record view failed", zap.String("request_id", req.RequestID), zap.Error(err))
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
