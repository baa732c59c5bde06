package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tickerbell/ticket-service/internal/events"
)

// AuthEventRecorder counts audit events. *observability.Metrics satisfies it.
type AuthEventRecorder interface {
	RecordAuthEvent(eventType string)
}

// AuditService records auth events published by the HTTP layer.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	recorder   AuthEventRecorder
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, recorder AuthEventRecorder) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		recorder:   recorder,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventMemberJoined, a.handleMemberJoined)
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleLoginSucceeded)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventTokenRefreshed, a.handleTokenRefreshed)
}

func (a *AuditService) handleMemberJoined(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.MemberJoinedPayload); ok {
		fields = append(fields, zap.String("member_id", p.MemberID))
	}
	a.logger.Info("MemberJoined", fields...)
	a.count(event)
	return nil
}

func (a *AuditService) handleLoginSucceeded(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.LoginSucceededPayload); ok {
		fields = append(fields, zap.String("member_id", p.MemberID), zap.String("remote_ip", p.RemoteIP))
	}
	a.logger.Info("LoginSucceeded", fields...)
	a.count(event)
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.LoginFailedPayload); ok {
		fields = append(fields, zap.String("reason", p.Reason), zap.String("remote_ip", p.RemoteIP))
	}
	a.logger.Warn("LoginFailed", fields...)
	a.count(event)
	return nil
}

func (a *AuditService) handleTokenRefreshed(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.TokenRefreshedPayload); ok {
		fields = append(fields, zap.Bool("rotated", p.Rotated))
	}
	a.logger.Info("TokenRefreshed", fields...)
	a.count(event)
	return nil
}

func (a *AuditService) baseFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("subject", event.Subject),
		zap.String("role", string(event.Role)),
		zap.Time("at", event.Timestamp),
	}
}

func (a *AuditService) count(event events.Event) {
	if a.recorder == nil {
		return
	}
	a.recorder.RecordAuthEvent(string(event.Type))
}
