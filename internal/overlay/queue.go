// Package overlay carries the async overlay job shape shared by the API
// (producer) and the worker (consumer).
package overlay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/snapit/avatar-orderflow/internal/aws"
)

// Job is one overlay request: take the avatar's current image, composite the
// overlay asset onto it, write the result back to the avatar record.
type Job struct {
	AvatarID   string `json:"avatarId"`
	ImageURL   string `json:"imageUrl"`
	OverlayURL string `json:"overlayUrl,omitempty"`
}

type publisher interface {
	SendOverlayJob(ctx context.Context, messageBody string, attributes map[string]string) error
}

// Queue enqueues overlay jobs, one SQS message per avatar.
type Queue struct {
	publisher publisher
}

// NewQueue returns a Queue over the given publisher.
func NewQueue(p *aws.Publisher) *Queue {
	return &Queue{publisher: p}
}

// Enqueue sends each job as its own message so the worker can process and
// retry avatars independently. Stops at the first send failure, reporting how
// many made it.
func (q *Queue) Enqueue(ctx context.Context, jobs []Job) (int, error) {
	for i, job := range jobs {
		body, err := json.Marshal(job)
		if err != nil {
			return i, fmt.Errorf("marshal overlay job: %w", err)
		}
		err = q.publisher.SendOverlayJob(ctx, string(body), map[string]string{
			"avatarId": job.AvatarID,
		})
		if err != nil {
			return i, fmt.Errorf("enqueue overlay job for %s: %w", job.AvatarID, err)
		}
	}
	return len(jobs), nil
}
