package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

var _ Sink = (*ZapSink)(nil)

// ZapSink surfaces notifications on the process log. It backs local
// deployments and doubles as the fallback when the queue sink is down.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Notify(ctx context.Context, notification Notification) error {
	if s == nil || s.logger == nil {
		return fmt.Errorf("zap sink is not initialized")
	}
	if err := notification.Validate(); err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("paymentId", notification.PaymentID),
		zap.String("kind", notification.Kind.String()),
		zap.String("status", notification.Status.String()),
		zap.String("message", notification.Message),
	}
	if notification.CorrelationID != "" {
		fields = append(fields, zap.String("correlationId", notification.CorrelationID))
	}

	switch notification.Kind {
	case KindError:
		s.logger.Warn("member notification", fields...)
	default:
		s.logger.Info("member notification", fields...)
	}

	return nil
}
