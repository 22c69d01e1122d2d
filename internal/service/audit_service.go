package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/video-service/internal/events"
)

// AuditService writes account and stream events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service. Audit lines carry a fixed
// "audit" logger name so they can be routed separately.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", event.Actor.UserID),
		zap.Stringer("role", event.Actor.Role),
		zap.Time("at", event.Timestamp),
	}

	switch p := event.Payload.(type) {
	case events.SessionPayload:
		fields = append(fields,
			zap.String("roll_no", p.RollNo),
			zap.String("token_id", p.TokenID),
			zap.Bool("remember_me", p.RememberMe))
	case events.StreamPayload:
		fields = append(fields,
			zap.String("video", p.Video),
			zap.Bool("partial", p.Partial),
			zap.Int64("start", p.Start),
			zap.Int64("sent", p.Sent),
			zap.Int64("expected", p.Expected))
		if p.Error != "" {
			fields = append(fields, zap.String("stream_error", p.Error))
		}
	}

	if event.Type == events.EventStreamAborted {
		a.logger.Warn("audit event", fields...)
		return nil
	}
	a.logger.Info("audit event", fields...)
	return nil
}
