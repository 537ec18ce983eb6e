package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coderelay/internal/common/mq"
	appErr "coderelay/pkg/errors"
)

// ExecutionEvent is the audit record emitted after each dispatch.
// It never carries source text or credentials.
type ExecutionEvent struct {
	TraceID        string `json:"trace_id"`
	Language       string `json:"language"`
	ExecutorID     string `json:"executor_id"`
	Version        string `json:"version"`
	CodeLength     int    `json:"code_length"`
	Outcome        string `json:"outcome"`
	UpstreamStatus int    `json:"upstream_status"`
	DurationMs     int64  `json:"duration_ms"`
	CreatedAt      int64  `json:"created_at"`
}

// ExecutionEventPublisher publishes execution audit events.
type ExecutionEventPublisher interface {
	PublishExecution(ctx context.Context, event ExecutionEvent) error
}

// MQExecutionEventPublisher publishes execution events to a message queue.
type MQExecutionEventPublisher struct {
	producer mq.Producer
	topic    string
}

// NewMQExecutionEventPublisher creates a new MQ execution event publisher.
func NewMQExecutionEventPublisher(producer mq.Producer, topic string) *MQExecutionEventPublisher {
	return &MQExecutionEventPublisher{producer: producer, topic: topic}
}

// PublishExecution publishes one execution event.
func (p *MQExecutionEventPublisher) PublishExecution(ctx context.Context, event ExecutionEvent) error {
	if p == nil || p.producer == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("execution publisher is not configured")
	}
	if p.topic == "" {
		return appErr.New(appErr.InvalidParams).WithMessage("execution topic is required")
	}
	if event.Language == "" {
		return appErr.ValidationError("language", "required")
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal execution event failed: %w", err)
	}
	message := mq.NewMessage(payload)
	message.ID = event.TraceID
	message.SetHeader("outcome", event.Outcome)
	if err := p.producer.Publish(ctx, p.topic, message); err != nil {
		return appErr.Wrapf(err, appErr.ServiceUnavailable, "publish execution event failed")
	}
	return nil
}

var _ ExecutionEventPublisher = (*MQExecutionEventPublisher)(nil)
