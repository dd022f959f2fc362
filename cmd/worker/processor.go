package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/snapit/avatar-orderflow/internal/overlay"
)

type imageFormatter interface {
	Format(ctx context.Context, imageURL, jobID, overlayURL string) (string, error)
}

type outputAttacher interface {
	AttachOutput(ctx context.Context, id, outputURL string) error
}

// Processor consumes overlay jobs from SQS: format the avatar's image with
// the overlay asset, then write the result back to the avatar record.
type Processor struct {
	formatter imageFormatter
	avatars   outputAttacher
	logger    *zap.Logger
}

// NewProcessor creates a worker processor.
func NewProcessor(f imageFormatter, a outputAttacher, logger *zap.Logger) *Processor {
	return &Processor{
		formatter: f,
		avatars:   a,
		logger:    logger,
	}
}

// Handle receives an SQS batch event and processes each message. A failure
// returns the error so the runtime retries the batch and eventually parks the
// message on the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.logger.Info("received overlay batch", zap.Int("messages", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Error("overlay job failed", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var job overlay.Job
	if err := json.Unmarshal([]byte(rec.Body), &job); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if job.AvatarID == "" || job.ImageURL == "" {
		return fmt.Errorf("overlay job missing avatar id or image url: %s", rec.Body)
	}

	formatted, err := p.formatter.Format(ctx, job.ImageURL, job.AvatarID, job.OverlayURL)
	if err != nil {
		return fmt.Errorf("format avatar %s: %w", job.AvatarID, err)
	}

	if err := p.avatars.AttachOutput(ctx, job.AvatarID, formatted); err != nil {
		return fmt.Errorf("attach output for avatar %s: %w", job.AvatarID, err)
	}

	p.logger.Info("overlay applied",
		zap.String("avatar_id", job.AvatarID),
		zap.String("output_url", formatted))
	return nil
}
