package service

import (
	"context"
	"sync"
	"time"

	"coderelay/internal/execute/language"
	"coderelay/internal/execute/remote"
	"coderelay/internal/execute/repository"
	pkgerrors "coderelay/pkg/errors"
	"coderelay/pkg/utils/contextkey"
	"coderelay/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultEventTimeout   = 2 * time.Second
	defaultEventQueueSize = 256
	missingFieldsDetail   = "Both language and code are required"
)

// ExecuteRequest is one caller submission.
type ExecuteRequest struct {
	Language string
	Code     string
}

// ExecuteServiceConfig holds configuration for ExecuteService.
type ExecuteServiceConfig struct {
	EventTimeout   time.Duration // per-event publish bound
	EventQueueSize int           // events buffered ahead of the publisher
}

type queuedEvent struct {
	ctx   context.Context
	event repository.ExecutionEvent
}

// ExecuteService turns a submission into a classified execution outcome.
type ExecuteService struct {
	registry *language.Registry
	executor remote.Executor
	events   repository.ExecutionEventPublisher
	config   ExecuteServiceConfig

	queue  chan queuedEvent
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewExecuteService creates a new ExecuteService. A nil publisher disables audit events.
// With a publisher, events are handed to a bounded queue drained by one goroutine;
// call Close to stop it.
func NewExecuteService(
	registry *language.Registry,
	executor remote.Executor,
	events repository.ExecutionEventPublisher,
	cfg ExecuteServiceConfig,
) *ExecuteService {
	if registry == nil {
		registry = language.DefaultRegistry()
	}
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = defaultEventTimeout
	}
	if cfg.EventQueueSize <= 0 {
		cfg.EventQueueSize = defaultEventQueueSize
	}
	s := &ExecuteService{
		registry: registry,
		executor: executor,
		events:   events,
		config:   cfg,
		done:     make(chan struct{}),
	}
	if events == nil {
		close(s.done)
		return s
	}
	s.queue = make(chan queuedEvent, cfg.EventQueueSize)
	go s.runEventWorker()
	return s
}

// Close stops accepting audit events and waits until queued ones are published
// or ctx expires.
func (s *ExecuteService) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.queue != nil && !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Languages lists the supported language names.
func (s *ExecuteService) Languages() []string {
	return s.registry.Names()
}

// Execute validates the request, dispatches it once and classifies the result.
// A returned error means the request was rejected before any dispatch.
func (s *ExecuteService) Execute(ctx context.Context, req ExecuteRequest) (Outcome, error) {
	if req.Language == "" || req.Code == "" {
		return Outcome{}, pkgerrors.BadRequest(missingFieldsDetail)
	}

	cfg, err := s.registry.Resolve(req.Language)
	if err != nil {
		return Outcome{}, err
	}

	payload := remote.Payload{
		ExecutorID:      cfg.ExecutorID,
		VersionSelector: cfg.VersionSelector,
		Source:          language.Wrap(req.Code, cfg.Strategy),
	}

	start := time.Now()
	resp, err := s.executor.Execute(ctx, payload)
	elapsed := time.Since(start)

	var outcome Outcome
	upstream := 0
	if err != nil {
		outcome = TransportOutcome(err)
		upstream = outcome.StatusCode
		logger.Error(ctx, "remote execution failed",
			zap.String("language", cfg.Name),
			zap.Int("upstreamStatus", upstream),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	} else {
		outcome = Classify(resp)
		upstream = resp.HTTPStatus
		logger.Info(ctx, "remote execution finished",
			zap.String("language", cfg.Name),
			zap.String("outcome", outcome.Kind.String()),
			zap.Int("statusCode", resp.StatusCode),
			zap.Duration("elapsed", elapsed),
		)
	}

	s.publish(ctx, repository.ExecutionEvent{
		TraceID:        traceID(ctx),
		Language:       cfg.Name,
		ExecutorID:     cfg.ExecutorID,
		Version:        cfg.VersionSelector,
		CodeLength:     len(req.Code),
		Outcome:        outcome.Kind.String(),
		UpstreamStatus: upstream,
		DurationMs:     elapsed.Milliseconds(),
		CreatedAt:      time.Now().Unix(),
	})
	return outcome, nil
}

// publish never blocks; an event that does not fit in the queue is dropped.
func (s *ExecuteService) publish(ctx context.Context, event repository.ExecutionEvent) {
	if s.queue == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		logger.Warn(ctx, "execute service closed, dropping execution event", zap.String("language", event.Language))
		return
	}
	select {
	case s.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		logger.Warn(ctx, "execution event queue full, dropping event",
			zap.String("language", event.Language),
			zap.Int("queueSize", cap(s.queue)),
		)
	}
}

func (s *ExecuteService) runEventWorker() {
	defer close(s.done)
	for item := range s.queue {
		pubCtx, cancel := context.WithTimeout(item.ctx, s.config.EventTimeout)
		err := s.events.PublishExecution(pubCtx, item.event)
		cancel()
		if err != nil {
			logger.Warn(item.ctx, "publish execution event failed",
				zap.String("language", item.event.Language),
				zap.Error(err),
			)
		}
	}
}

func traceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(contextkey.TraceID).(string); ok {
		return v
	}
	return ""
}
