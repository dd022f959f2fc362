// Package orchestrator drives a generation job end to end: filter lookup,
// remote submission, avatar record, polling, formatting, output attachment.
package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/snapit/avatar-orderflow/internal/apperr"
	"github.com/snapit/avatar-orderflow/internal/avatars"
	"github.com/snapit/avatar-orderflow/internal/aws"
	"github.com/snapit/avatar-orderflow/internal/filters"
	"github.com/snapit/avatar-orderflow/internal/poller"
)

// State is where a generation run currently stands, or how it ended.
type State string

const (
	StateSubmitted        State = "SUBMITTED"
	StatePolling          State = "POLLING"
	StateDone             State = "DONE"
	StateFormattingFailed State = "FORMATTING_FAILED"
	StateRemoteFailed     State = "REMOTE_FAILED"
	StateNoOutput         State = "NO_OUTPUT"
	StateTimeout          State = "TIMEOUT"
)

// HTTPStatus maps a terminal state to the response code callers get. A
// formatting failure is still a usable result, so it stays 200; the body
// carries the error alongside the unformatted URL.
func (s State) HTTPStatus() int {
	switch s {
	case StateDone, StateFormattingFailed:
		return http.StatusOK
	case StateRemoteFailed:
		return http.StatusBadGateway
	case StateTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Generation is the outcome of one generation run. OutputURL holds the
// formatted image for DONE and the unformatted one for FORMATTING_FAILED.
type Generation struct {
	AvatarID  string `json:"avatarId,omitempty"`
	FilterID  string `json:"filterId"`
	State     State  `json:"state"`
	OutputURL string `json:"outputUrl,omitempty"`
	Error     string `json:"error,omitempty"`
	Attempts  int    `json:"attempts,omitempty"`
}

type generator interface {
	Submit(ctx context.Context, imageURL, styleImageURL, textPrompt string) (string, error)
}

type jobPoller interface {
	Poll(ctx context.Context, jobID string) poller.Result
}

type imageFormatter interface {
	Format(ctx context.Context, imageURL, jobID, overlayURL string) (string, error)
}

type filterSource interface {
	Get(ctx context.Context, id string) (*filters.Filter, error)
	ListByCity(ctx context.Context, cityID, gender string) ([]filters.Filter, error)
}

type avatarRecorder interface {
	Create(ctx context.Context, a avatars.Avatar) error
	AttachOutput(ctx context.Context, id, outputURL string) error
}

// Service wires the generation pipeline together.
type Service struct {
	generator   generator
	poller      jobPoller
	formatter   imageFormatter
	filters     filterSource
	avatars     avatarRecorder
	metrics     *aws.Metrics
	overlayURL  string
	concurrency int
	logger      *zap.Logger
}

// NewService builds a Service. concurrency bounds the dispatch fan-out;
// metrics may be nil.
func NewService(gen generator, p jobPoller, f imageFormatter, filterStore filterSource, avatarStore avatarRecorder, metrics *aws.Metrics, overlayURL string, concurrency int, logger *zap.Logger) *Service {
	if concurrency <= 0 {
		concurrency = 6
	}
	return &Service{
		generator:   gen,
		poller:      p,
		formatter:   f,
		filters:     filterStore,
		avatars:     avatarStore,
		metrics:     metrics,
		overlayURL:  overlayURL,
		concurrency: concurrency,
		logger:      logger,
	}
}

// GenerateAvatar runs one generation for the given filter. The returned error
// covers only filter resolution; everything past submission lands in the
// Generation so callers can map its state to a response.
func (s *Service) GenerateAvatar(ctx context.Context, requestID, filterID, imageURL string) (*Generation, error) {
	f, err := s.filters.Get(ctx, filterID)
	if err != nil {
		return nil, fmt.Errorf("get filter: %w", err)
	}
	if f == nil {
		return nil, apperr.NotFoundErr(fmt.Sprintf("filter %s not found", filterID))
	}
	g := s.generate(ctx, requestID, *f, imageURL)
	return &g, nil
}

// Dispatch runs a generation per filter configured for the city, at most
// concurrency at a time, and collects the outcomes keyed by filter id.
func (s *Service) Dispatch(ctx context.Context, requestID, cityID, gender, imageURL string) (map[string]Generation, error) {
	cityFilters, err := s.filters.ListByCity(ctx, cityID, gender)
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	if len(cityFilters) == 0 {
		return nil, apperr.NotFoundErr(fmt.Sprintf("no filters configured for city %s", cityID))
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]Generation, len(cityFilters))
		sem     = make(chan struct{}, s.concurrency)
	)
	for _, f := range cityFilters {
		f := f
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			g := s.generate(ctx, requestID, f, imageURL)
			mu.Lock()
			results[f.ID] = g
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results, nil
}

func (s *Service) generate(ctx context.Context, requestID string, f filters.Filter, imageURL string) Generation {
	g := Generation{FilterID: f.ID, State: StateSubmitted}

	jobID, err := s.generator.Submit(ctx, imageURL, f.ImageStyle, f.Prompt)
	if err != nil {
		s.logger.Error("generation submit failed",
			zap.String("filter_id", f.ID),
			zap.String("request_id", requestID),
			zap.Error(err))
		g.State = StateRemoteFailed
		g.Error = apperr.PublicMessage(err)
		s.count(ctx, g.State)
		return g
	}
	g.AvatarID = jobID

	if err := s.avatars.Create(ctx, avatars.Avatar{
		ID:        jobID,
		RequestID: requestID,
		FilterID:  f.ID,
	}); err != nil {
		// the remote job is already running; keep going and let the
		// attach step surface the record problem again if it persists
		s.logger.Error("avatar record create failed",
			zap.String("avatar_id", jobID),
			zap.Error(err))
	}

	g.State = StatePolling
	res := s.poller.Poll(ctx, jobID)
	g.Attempts = res.Attempts

	switch res.Outcome {
	case poller.OutcomeRemoteFailure:
		g.State = StateRemoteFailed
		g.Error = "generation job failed"
	case poller.OutcomeNoOutput:
		g.State = StateNoOutput
		g.Error = "generation job finished without an output"
	case poller.OutcomeTimeout:
		g.State = StateTimeout
		g.Error = "generation job did not finish in time"
	case poller.OutcomeSuccess:
		g = s.format(ctx, g, res.OutputURL)
	}

	s.count(ctx, g.State)
	return g
}

// format runs the post-processing step. A failure there keeps the raw URL:
// the avatar is still deliverable, just unframed.
func (s *Service) format(ctx context.Context, g Generation, rawURL string) Generation {
	formatted, err := s.formatter.Format(ctx, rawURL, g.AvatarID, s.overlayURL)
	if err != nil {
		s.logger.Warn("formatting failed, keeping unformatted output",
			zap.String("avatar_id", g.AvatarID),
			zap.Error(err))
		g.State = StateFormattingFailed
		g.OutputURL = rawURL
		g.Error = apperr.PublicMessage(err)
	} else {
		g.State = StateDone
		g.OutputURL = formatted
	}

	if err := s.avatars.AttachOutput(ctx, g.AvatarID, g.OutputURL); err != nil {
		s.logger.Error("attach output failed",
			zap.String("avatar_id", g.AvatarID),
			zap.Error(err))
	}
	return g
}

func (s *Service) count(ctx context.Context, state State) {
	err := s.metrics.Count(ctx, "AvatarGeneration", 1, map[string]string{"Outcome": string(state)})
	if err != nil {
		s.logger.Warn("metric emission failed", zap.Error(err))
	}
}
