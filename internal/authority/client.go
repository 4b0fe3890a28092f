package authority

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fitgrid/settlement-tracker/internal/domain"
	"github.com/go-resty/resty/v2"
)

const defaultRequestTimeout = 10 * time.Second

// StatusAuthority is the read-only port to the remote payment authority.
// The authority owns payment and membership truth; this client only observes it.
type StatusAuthority interface {
	GetPaymentStatus(ctx context.Context, paymentID string) (*domain.TrackedPayment, error)
	ListPendingPayments(ctx context.Context) ([]domain.TrackedPayment, error)
	GetMembership(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error)
}

type paymentResponse struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"memberId"`
	Status      string    `json:"status"`
	Method      string    `json:"method"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"createdAt"`
}

type paymentListResponse struct {
	Data []paymentResponse `json:"data"`
}

type membershipResponse struct {
	MemberID   string     `json:"memberId"`
	Status     string     `json:"status"`
	PlanName   string     `json:"planName"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
}

// Client talks to the authority's REST API.
type Client struct {
	http    *resty.Client
	baseURL string
}

func NewClient(baseURL string, apiKey string) (*Client, error) {
	client := resty.New()
	client.SetTimeout(defaultRequestTimeout)
	client.SetRetryCount(0)
	client.SetHeader("Authorization", "Bearer "+strings.TrimSpace(apiKey))

	return NewClientWithHTTP(baseURL, client)
}

func NewClientWithHTTP(baseURL string, client *resty.Client) (*Client, error) {
	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedBaseURL == "" {
		return nil, fmt.Errorf("authority base url is required")
	}
	if _, err := url.ParseRequestURI(trimmedBaseURL); err != nil {
		return nil, fmt.Errorf("invalid authority base url: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultRequestTimeout)
	}
	client.SetRetryCount(0)

	return &Client{
		http:    client,
		baseURL: trimmedBaseURL,
	}, nil
}

var _ StatusAuthority = (*Client)(nil)

// GetPaymentStatus fetches the authoritative settlement state for one payment.
func (c *Client) GetPaymentStatus(ctx context.Context, paymentID string) (*domain.TrackedPayment, error) {
	if c == nil || c.http == nil {
		return nil, fmt.Errorf("authority client is not initialized")
	}
	trimmedID := strings.TrimSpace(paymentID)
	if trimmedID == "" {
		return nil, fmt.Errorf("%w: payment id is required", domain.ErrValidation)
	}

	var body paymentResponse
	response, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(c.baseURL + "/v1/payments/" + url.PathEscape(trimmedID))
	if err != nil {
		return nil, transportError(err)
	}

	if err := checkResponse(response, "payment "+trimmedID); err != nil {
		return nil, err
	}

	return paymentFromResponse(body)
}

// ListPendingPayments returns the deferred payments still awaiting settlement
// for the authenticated credential. Used by tracking auto-discovery.
func (c *Client) ListPendingPayments(ctx context.Context) ([]domain.TrackedPayment, error) {
	if c == nil || c.http == nil {
		return nil, fmt.Errorf("authority client is not initialized")
	}

	var body paymentListResponse
	response, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("status", "pending").
		SetResult(&body).
		Get(c.baseURL + "/v1/payments")
	if err != nil {
		return nil, transportError(err)
	}

	if err := checkResponse(response, "pending payments"); err != nil {
		return nil, err
	}

	payments := make([]domain.TrackedPayment, 0, len(body.Data))
	for i := range body.Data {
		payment, err := paymentFromResponse(body.Data[i])
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}

	return payments, nil
}

// GetMembership fetches the current membership record projection for a member.
func (c *Client) GetMembership(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error) {
	if c == nil || c.http == nil {
		return nil, fmt.Errorf("authority client is not initialized")
	}
	trimmedID := strings.TrimSpace(memberID)
	if trimmedID == "" {
		return nil, fmt.Errorf("%w: member id is required", domain.ErrValidation)
	}

	var body membershipResponse
	response, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(c.baseURL + "/v1/memberships/" + url.PathEscape(trimmedID))
	if err != nil {
		return nil, transportError(err)
	}

	if err := checkResponse(response, "membership "+trimmedID); err != nil {
		return nil, err
	}

	status := domain.MembershipStatus(strings.ToUpper(strings.TrimSpace(body.Status)))
	if !status.IsValid() {
		return nil, &AuthorityError{
			Message: fmt.Sprintf("authority returned unknown membership status %q", body.Status),
		}
	}

	return &domain.MembershipSnapshot{
		MemberID:   body.MemberID,
		Status:     status,
		PlanName:   body.PlanName,
		ValidUntil: body.ValidUntil,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

func paymentFromResponse(body paymentResponse) (*domain.TrackedPayment, error) {
	status, err := domain.ParseStatusFromString(body.Status)
	if err != nil {
		return nil, &AuthorityError{
			Message: fmt.Sprintf("authority returned unknown status %q", body.Status),
			Cause:   err,
		}
	}
	method, err := domain.ParseMethodFromString(body.Method)
	if err != nil {
		return nil, &AuthorityError{
			Message: fmt.Sprintf("authority returned unknown method %q", body.Method),
			Cause:   err,
		}
	}

	return &domain.TrackedPayment{
		ID:          body.ID,
		MemberID:    body.MemberID,
		Method:      method,
		Status:      status,
		AmountCents: body.AmountCents,
		Currency:    body.Currency,
		CreatedAt:   body.CreatedAt,
	}, nil
}

func transportError(err error) error {
	return &AuthorityError{
		Message:   "authority request failed",
		Transient: !errors.Is(err, context.Canceled),
		Cause:     err,
	}
}

func checkResponse(response *resty.Response, subject string) error {
	if response == nil {
		return &AuthorityError{
			Message:   "authority returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	if statusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, subject)
	}

	return &AuthorityError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("authority returned status %d for %s", statusCode, subject),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}
