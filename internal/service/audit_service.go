package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/villa-web/internal/events"
	"github.com/spec-kit/villa-web/internal/observability"
)

// AuditService records session and navigation events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// StartAuditService creates the service and subscribes it to dispatcher.
// dispatcher and metrics may be nil.
func StartAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
	if dispatcher != nil {
		a.subscribe()
	}
	return a
}

func (a *AuditService) subscribe() {
	a.dispatcher.Subscribe(events.EventCredentialsSet, a.handleCredentialsSet)
	a.dispatcher.Subscribe(events.EventLoggedOut, a.handleLoggedOut)
	a.dispatcher.Subscribe(events.EventRedirected, a.handleRedirected)
}

func (a *AuditService) handleCredentialsSet(_ context.Context, event events.Event) error {
	a.logger.Info("CredentialsSet", zap.String("event_id", event.ID), zap.String("role", event.Role.String()))
	return nil
}

func (a *AuditService) handleLoggedOut(_ context.Context, event events.Event) error {
	a.logger.Info("LoggedOut", zap.String("event_id", event.ID))
	return nil
}

func (a *AuditService) handleRedirected(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RedirectedPayload)
	if !ok {
		a.logger.Warn("redirect event without payload", zap.String("event_id", event.ID))
		return nil
	}
	a.logger.Debug("Redirected",
		zap.String("from", payload.From),
		zap.String("to", payload.To),
		zap.String("role", event.Role.String()))
	a.metrics.RecordRedirect(payload.From, payload.To, event.Role.String())
	return nil
}
