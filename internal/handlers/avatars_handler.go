package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/snapit/avatar-orderflow/internal/apperr"
	"github.com/snapit/avatar-orderflow/internal/avatars"
	"github.com/snapit/avatar-orderflow/internal/aws"
	"github.com/snapit/avatar-orderflow/internal/filters"
	"github.com/snapit/avatar-orderflow/internal/formatter"
	"github.com/snapit/avatar-orderflow/internal/lightx"
	"github.com/snapit/avatar-orderflow/internal/orchestrator"
	"github.com/snapit/avatar-orderflow/internal/overlay"
	"github.com/snapit/avatar-orderflow/internal/poller"
	"github.com/snapit/avatar-orderflow/internal/validation"
)

// RegisterAvatarsRoutes registers routes for avatar generation, status checks
// and the async overlay queue.
func RegisterAvatarsRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	avatarStore := avatars.NewStore(cfg.DynamoDBClient, cfg.Config.Tables.Avatars)
	filterStore := filters.NewStore(cfg.DynamoDBClient, cfg.Config.Tables.Filters)
	client := lightx.NewClient(cfg.Config.LightX.BaseURL, cfg.Config.LightX.APIKey)
	jobPoller := poller.New(client.CheckStatus, cfg.Config.Polling.MaxAttempts, cfg.Config.Polling.Interval, cfg.Logger)
	invoker := formatter.NewInvoker(cfg.Config.Overlay.FormatURL)
	metrics := aws.NewMetrics(cfg.CloudWatchClient, "AvatarOrderflow")
	queue := overlay.NewQueue(aws.NewPublisher(cfg.SQSClient, cfg.Config.Overlay.QueueURL))

	svc := orchestrator.NewService(client, jobPoller, invoker, filterStore, avatarStore, metrics,
		cfg.Config.Overlay.AssetURL, cfg.Config.Polling.DispatchConcurrency, cfg.Logger)

	r.POST("/api/avatars/generate", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.GenerateAvatarRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		g, err := svc.GenerateAvatar(ctx, req.RequestID, req.FilterID, req.ImageURL)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(g.State.HTTPStatus(), g)
	})

	r.POST("/api/avatars/dispatch", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.DispatchRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		results, err := svc.Dispatch(ctx, req.RequestID, req.CityID, req.Gender, req.ImageURL)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	})

	r.POST("/api/avatars/status", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.StatusCheckRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		status, err := client.CheckStatus(ctx, req.OrderID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": status.Status, "output": status.Output})
	})

	r.GET("/api/avatars/:requestId", func(c *gin.Context) {
		ctx := c.Request.Context()

		list, err := avatarStore.ListByRequestID(ctx, c.Param("requestId"))
		if err != nil {
			renderError(c, err)
			return
		}

		// entries without an output are still generating or went nowhere;
		// the gallery has nothing to show for them
		rendered := make([]avatars.Rendered, 0, len(list))
		for _, a := range list {
			if a.OutputURL == "" {
				continue
			}
			rendered = append(rendered, avatars.Render(a))
		}
		c.JSON(http.StatusOK, gin.H{"avatars": rendered, "count": len(rendered)})
	})

	r.POST("/api/avatars/overlay", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.OverlayRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		resolved, err := avatarStore.BatchGet(ctx, req.AvatarIDs)
		if err != nil {
			renderError(c, err)
			return
		}
		if len(resolved) != len(req.AvatarIDs) {
			found := map[string]bool{}
			for _, a := range resolved {
				found[a.ID] = true
			}
			var missing []string
			for _, id := range req.AvatarIDs {
				if !found[id] {
					missing = append(missing, id)
				}
			}
			renderError(c, apperr.InvalidErr("some avatar ids do not exist",
				map[string]string{"missingAvatarIds": strings.Join(missing, ",")}))
			return
		}

		overlayURL := req.OverlayURL
		if overlayURL == "" {
			overlayURL = cfg.Config.Overlay.AssetURL
		}
		jobs := make([]overlay.Job, 0, len(resolved))
		for _, a := range resolved {
			jobs = append(jobs, overlay.Job{
				AvatarID:   a.ID,
				ImageURL:   a.OutputURL,
				OverlayURL: overlayURL,
			})
		}

		sent, err := queue.Enqueue(ctx, jobs)
		if err != nil {
			cfg.Logger.Error("overlay enqueue failed",
				zap.Int("sent", sent),
				zap.Int("total", len(jobs)),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue overlay jobs", "queued": sent})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"queued": sent})
	})
}
