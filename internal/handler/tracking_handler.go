package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fitgrid/settlement-tracker/internal/authority"
	"github.com/fitgrid/settlement-tracker/internal/domain"
	"github.com/fitgrid/settlement-tracker/internal/repository"
	"github.com/fitgrid/settlement-tracker/internal/tracker"
	"github.com/gofiber/fiber/v2"
)

// TrackingService is the controller surface the HTTP layer depends on.
type TrackingService interface {
	StartTracking(ctx context.Context, paymentID string) error
	StopTracking(paymentID string) bool
	Snapshot() ([]tracker.SessionSnapshot, bool)
	DiscoverPending(ctx context.Context) (int, error)
}

type TrackingHandler struct {
	service     TrackingService
	transitions repository.TransitionRepository
}

func NewTrackingHandler(service TrackingService, transitions repository.TransitionRepository) (*TrackingHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("tracking service is required")
	}
	return &TrackingHandler{
		service:     service,
		transitions: transitions,
	}, nil
}

func RegisterTrackingRoutes(router fiber.Router, service TrackingService, transitions repository.TransitionRepository) error {
	h, err := NewTrackingHandler(service, transitions)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/tracking/discover", h.Discover)
	v1.Post("/tracking/:paymentId", h.StartTracking)
	v1.Delete("/tracking/:paymentId", h.StopTracking)
	v1.Get("/tracking", h.ListSessions)
	v1.Get("/payments/:paymentId/transitions", h.ListTransitions)

	return nil
}

type sessionResponse struct {
	PaymentID      string    `json:"paymentId"`
	Method         string    `json:"method"`
	LastStatus     string    `json:"lastStatus"`
	StartedAt      time.Time `json:"startedAt"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
}

type listSessionsResponse struct {
	Data    []sessionResponse `json:"data"`
	Changed bool              `json:"changed"`
}

type transitionResponse struct {
	ID            string    `json:"id"`
	PaymentID     string    `json:"paymentId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	FromStatus    *string   `json:"fromStatus,omitempty"`
	ToStatus      string    `json:"toStatus"`
	Outcome       string    `json:"outcome"`
	Anomaly       bool      `json:"anomaly"`
	ObservedAt    time.Time `json:"observedAt"`
}

type listTransitionsResponse struct {
	Data []transitionResponse `json:"data"`
}

func (h *TrackingHandler) StartTracking(c *fiber.Ctx) error {
	paymentID := strings.TrimSpace(c.Params("paymentId"))
	if err := h.service.StartTracking(c.Context(), paymentID); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"paymentId": paymentID,
		"tracking":  true,
	})
}

func (h *TrackingHandler) StopTracking(c *fiber.Ctx) error {
	paymentID := strings.TrimSpace(c.Params("paymentId"))
	if paymentID == "" {
		return toHTTPError(fmt.Errorf("%w: payment id is required", domain.ErrValidation))
	}

	stopped := h.service.StopTracking(paymentID)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"paymentId": paymentID,
		"stopped":   stopped,
	})
}

func (h *TrackingHandler) ListSessions(c *fiber.Ctx) error {
	sessions, changed := h.service.Snapshot()

	data := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		data = append(data, sessionResponse{
			PaymentID:      session.PaymentID,
			Method:         session.Method.String(),
			LastStatus:     session.LastStatus.String(),
			StartedAt:      session.StartedAt,
			ElapsedSeconds: session.Elapsed.Seconds(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(listSessionsResponse{
		Data:    data,
		Changed: changed,
	})
}

func (h *TrackingHandler) Discover(c *fiber.Ctx) error {
	started, err := h.service.DiscoverPending(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"started": started,
	})
}

func (h *TrackingHandler) ListTransitions(c *fiber.Ctx) error {
	if h.transitions == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "transition audit is not enabled")
	}

	paymentID := strings.TrimSpace(c.Params("paymentId"))
	if paymentID == "" {
		return toHTTPError(fmt.Errorf("%w: payment id is required", domain.ErrValidation))
	}

	transitions, err := h.transitions.ListByPayment(c.Context(), paymentID)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]transitionResponse, 0, len(transitions))
	for _, transition := range transitions {
		var from *string
		if transition.FromStatus != nil {
			value := transition.FromStatus.String()
			from = &value
		}
		data = append(data, transitionResponse{
			ID:            transition.ID,
			PaymentID:     transition.PaymentID,
			CorrelationID: transition.CorrelationID,
			FromStatus:    from,
			ToStatus:      transition.ToStatus.String(),
			Outcome:       transition.Outcome.String(),
			Anomaly:       transition.Anomaly,
			ObservedAt:    transition.ObservedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(listTransitionsResponse{Data: data})
}

func toHTTPError(err error) error {
	var authorityErr *authority.AuthorityError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.As(err, &authorityErr):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return err
	}
}
