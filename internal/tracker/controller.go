package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fitgrid/settlement-tracker/internal/authority"
	"github.com/fitgrid/settlement-tracker/internal/dedup"
	"github.com/fitgrid/settlement-tracker/internal/domain"
	"github.com/fitgrid/settlement-tracker/internal/membership"
	"github.com/fitgrid/settlement-tracker/internal/notify"
	"github.com/fitgrid/settlement-tracker/internal/observability"
	"github.com/fitgrid/settlement-tracker/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Controller owns the tracking lifecycle: it starts and stops sessions,
// applies reconciliation decisions, and is the only writer of registry state.
//
// Side effects for a poll result are applied under one mutex, after re-checking
// that the session is still active. A poll whose session was cancelled while
// the authority call was in flight is discarded without any side effect.
type Controller struct {
	authority   authority.StatusAuthority
	registry    *Registry
	scheduler   *Scheduler
	dedup       dedup.Store
	sink        notify.Sink
	memberships membership.Store
	payments    repository.PaymentRepository
	transitions repository.TransitionRepository
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time

	mu sync.Mutex
}

func NewController(
	statusAuthority authority.StatusAuthority,
	registry *Registry,
	scheduler *Scheduler,
	dedupStore dedup.Store,
	sink notify.Sink,
	memberships membership.Store,
	payments repository.PaymentRepository,
	transitions repository.TransitionRepository,
	logger *zap.Logger,
) (*Controller, error) {
	if statusAuthority == nil {
		return nil, fmt.Errorf("status authority is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	if dedupStore == nil {
		return nil, fmt.Errorf("dedup store is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("notification sink is required")
	}
	if memberships == nil {
		return nil, fmt.Errorf("membership store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// payments and transitions may be nil: the local projection and the audit
	// trail are best-effort and never gate the tracking flow.
	return &Controller{
		authority:   statusAuthority,
		registry:    registry,
		scheduler:   scheduler,
		dedup:       dedupStore,
		sink:        sink,
		memberships: memberships,
		payments:    payments,
		transitions: transitions,
		logger:      logger,
		now:         time.Now,
	}, nil
}

func (c *Controller) SetMetrics(metrics *observability.Metrics) {
	c.metrics = metrics
}

// StartTracking fetches the payment from the authority and begins tracking it.
// Starting an already-tracked payment is a no-op.
func (c *Controller) StartTracking(ctx context.Context, paymentID string) error {
	trimmedID := strings.TrimSpace(paymentID)
	if trimmedID == "" {
		return fmt.Errorf("%w: payment id is required", domain.ErrValidation)
	}

	payment, err := c.authority.GetPaymentStatus(ctx, trimmedID)
	if err != nil {
		return fmt.Errorf("failed to fetch payment %s: %w", trimmedID, err)
	}

	_, err = c.Track(ctx, *payment)
	return err
}

// Track starts a session for an already-fetched payment. It reports whether a
// new session was created; false with a nil error means the payment was
// already tracked.
func (c *Controller) Track(ctx context.Context, payment domain.TrackedPayment) (bool, error) {
	if err := payment.Validate(); err != nil {
		return false, err
	}
	if payment.Status.IsTerminal() {
		return false, fmt.Errorf("%w: payment %s already settled as %s", domain.ErrConflict, payment.ID, payment.Status)
	}

	correlationID := uuid.NewString()
	sessCtx, cancel := context.WithCancel(context.Background())
	sessCtx = observability.WithCorrelationID(sessCtx, correlationID)

	startedAt := c.now()
	if !c.registry.add(payment.ID, payment.Method, payment.Status, startedAt, cancel) {
		cancel()
		return false, nil
	}
	c.metrics.IncSessionsActive()

	if c.payments != nil {
		if err := c.payments.Upsert(ctx, &payment); err != nil {
			c.logger.Warn("failed to persist tracked payment",
				zap.String("paymentId", payment.ID),
				zap.Error(err),
			)
		}
	}

	c.logger.Info("tracking started",
		zap.String("paymentId", payment.ID),
		zap.String("correlationId", correlationID),
		zap.String("method", payment.Method.String()),
		zap.String("status", payment.Status.String()),
	)

	paymentID := payment.ID
	c.scheduler.Schedule(sessCtx, paymentID, startedAt,
		func(tickCtx context.Context) error {
			return c.poll(tickCtx, paymentID)
		},
		func() {
			c.handleTimeout(sessCtx, paymentID)
		},
	)

	return true, nil
}

// StopTracking cancels the session for a payment. Safe to call for ids that
// are not tracked; reports whether a session existed.
func (c *Controller) StopTracking(paymentID string) bool {
	return c.stopSession(strings.TrimSpace(paymentID))
}

// StopAll tears down every active session. Used on shutdown and logout.
func (c *Controller) StopAll() {
	snapshots, _ := c.registry.Snapshot(c.now())
	for _, snapshot := range snapshots {
		c.stopSession(snapshot.PaymentID)
	}
}

// Snapshot returns the current sessions and whether any status changed since
// the last read.
func (c *Controller) Snapshot() ([]SessionSnapshot, bool) {
	return c.registry.Snapshot(c.now())
}

// DiscoverPending asks the authority for deferred payments still awaiting
// settlement and starts tracking any that are not tracked yet. Terminal
// payments in the response are skipped. Returns the number of new sessions.
func (c *Controller) DiscoverPending(ctx context.Context) (int, error) {
	payments, err := c.authority.ListPendingPayments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending payments: %w", err)
	}

	started := 0
	for i := range payments {
		if payments[i].Status.IsTerminal() {
			continue
		}

		created, err := c.Track(ctx, payments[i])
		if err != nil {
			c.logger.Warn("failed to start discovered session",
				zap.String("paymentId", payments[i].ID),
				zap.Error(err),
			)
			continue
		}
		if created {
			started++
		}
	}

	if started > 0 {
		c.logger.Info("auto-discovery started sessions", zap.Int("count", started))
	}
	return started, nil
}

// RunDiscovery scans for untracked pending payments on a fixed interval until
// the context is cancelled. It runs one scan immediately on start.
func (c *Controller) RunDiscovery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	if _, err := c.DiscoverPending(ctx); err != nil && ctx.Err() == nil {
		c.logger.Warn("pending payment discovery failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.DiscoverPending(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warn("pending payment discovery failed", zap.Error(err))
			}
		}
	}
}

func (c *Controller) poll(ctx context.Context, paymentID string) error {
	if !c.registry.isActive(paymentID) {
		return nil
	}

	start := c.now()
	payment, err := c.authority.GetPaymentStatus(ctx, paymentID)
	c.metrics.ObserveAuthorityCallDuration("get_payment_status", c.now().Sub(start))
	if err != nil {
		c.metrics.IncPoll(pollResultLabel(err))
		return err
	}
	c.metrics.IncPoll("ok")

	// The session may have been cancelled while the request was in flight;
	// a stale result must produce no side effects.
	if ctx.Err() != nil || !c.registry.isActive(paymentID) {
		return nil
	}

	c.apply(ctx, payment)
	return nil
}

// apply reconciles one fresh payment snapshot and performs the resulting side
// effects. Runs under the controller mutex so decisions observe a stable
// registry and side effects are applied exactly once per decision.
func (c *Controller) apply(ctx context.Context, payment *domain.TrackedPayment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.registry.get(payment.ID)
	if !ok || !sess.Active {
		return
	}

	decision := Reconcile(sess.LastStatus, payment.Status, payment.Method)
	c.metrics.IncReconcileOutcome(decision.Outcome.String())

	logger := observability.WithContextLogger(c.logger, ctx).With(zap.String("paymentId", payment.ID))

	if decision.Anomaly {
		logger.Warn("ignoring status regression from authority",
			zap.String("lastStatus", sess.LastStatus.String()),
			zap.String("freshStatus", payment.Status.String()),
		)
		c.recordTransition(ctx, payment.ID, sess.LastStatus, payment.Status, decision)
		return
	}
	if decision.Outcome == domain.OutcomeUnchanged {
		return
	}

	c.registry.setLastStatus(payment.ID, payment.Status)
	if c.payments != nil {
		if err := c.payments.UpdateStatus(ctx, payment.ID, payment.Status); err != nil {
			logger.Warn("failed to persist status change", zap.Error(err))
		}
	}
	c.recordTransition(ctx, payment.ID, sess.LastStatus, payment.Status, decision)

	logger.Info("payment status reconciled",
		zap.String("lastStatus", sess.LastStatus.String()),
		zap.String("freshStatus", payment.Status.String()),
		zap.String("outcome", decision.Outcome.String()),
	)

	if decision.Notify {
		c.notifyOnce(ctx, payment, decision)
	}

	if decision.RefreshMembership {
		if err := c.memberships.Invalidate(ctx, payment.MemberID); err != nil {
			logger.Warn("failed to invalidate membership snapshot",
				zap.String("memberId", payment.MemberID),
				zap.Error(err),
			)
		}
	}

	if decision.Outcome.IsTerminal() {
		c.stopSession(payment.ID)
	}
}

// notifyOnce marks the dedup store first and emits best-effort afterwards.
// A failed emit is never retried, so a notification fires at most once per
// (payment, status) even across re-tracking.
func (c *Controller) notifyOnce(ctx context.Context, payment *domain.TrackedPayment, decision Decision) {
	logger := observability.WithContextLogger(c.logger, ctx).With(zap.String("paymentId", payment.ID))

	advanced, err := c.dedup.MarkNotified(ctx, payment.ID, payment.Status)
	if err != nil {
		logger.Error("dedup store unavailable; suppressing notification", zap.Error(err))
		return
	}
	if !advanced {
		return
	}

	if c.payments != nil {
		if err := c.payments.SetLastNotifiedStatus(ctx, payment.ID, payment.Status); err != nil {
			logger.Warn("failed to persist notification high-water mark", zap.Error(err))
		}
	}

	correlationID, _ := observability.CorrelationIDFromContext(ctx)
	notification := notify.Notification{
		PaymentID:     payment.ID,
		CorrelationID: correlationID,
		Kind:          decision.NotifyKind,
		Status:        payment.Status,
		Message:       decision.Message,
	}
	if err := c.sink.Notify(ctx, notification); err != nil {
		logger.Warn("notification delivery failed", zap.Error(err))
	}
	c.metrics.IncNotification(decision.NotifyKind.String())
}

// handleTimeout ends a session that exceeded the maximum poll duration.
// The timed-out message bypasses the status dedup store: timeout is not a
// status transition and the scheduler fires it at most once per session.
func (c *Controller) handleTimeout(ctx context.Context, paymentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.registry.get(paymentID)
	if !ok || !sess.Active {
		return
	}

	logger := observability.WithContextLogger(c.logger, ctx).With(zap.String("paymentId", paymentID))
	logger.Info("tracking session timed out",
		zap.String("lastStatus", sess.LastStatus.String()),
		zap.Duration("elapsed", sess.Elapsed(c.now())),
	)
	c.metrics.IncSessionTimedOut()

	correlationID, _ := observability.CorrelationIDFromContext(ctx)
	notification := notify.Notification{
		PaymentID:     paymentID,
		CorrelationID: correlationID,
		Kind:          notify.KindInfo,
		Status:        sess.LastStatus,
		Message:       notify.TimedOutMessage(),
	}
	if err := c.sink.Notify(ctx, notification); err != nil {
		logger.Warn("timeout notification delivery failed", zap.Error(err))
	}
	c.metrics.IncNotification(notify.KindInfo.String())

	c.stopSession(paymentID)
}

func (c *Controller) recordTransition(ctx context.Context, paymentID string, previous, fresh domain.Status, decision Decision) {
	if c.transitions == nil {
		return
	}

	correlationID, _ := observability.CorrelationIDFromContext(ctx)
	from := previous
	transition := domain.StatusTransition{
		ID:            uuid.NewString(),
		PaymentID:     paymentID,
		CorrelationID: correlationID,
		FromStatus:    &from,
		ToStatus:      fresh,
		Outcome:       decision.Outcome,
		Anomaly:       decision.Anomaly,
		ObservedAt:    c.now(),
	}
	if err := c.transitions.Create(ctx, &transition); err != nil {
		c.logger.Warn("failed to record status transition",
			zap.String("paymentId", paymentID),
			zap.Error(err),
		)
	}
}

func (c *Controller) stopSession(paymentID string) bool {
	if !c.registry.remove(paymentID) {
		return false
	}

	c.metrics.DecSessionsActive()
	c.logger.Info("tracking stopped", zap.String("paymentId", paymentID))
	return true
}

func pollResultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case authority.IsTransient(err):
		return "transient_error"
	default:
		return "permanent_error"
	}
}
