package clients

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"voltswap/api"
)

// Payment statuses and methods.
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"

	PaymentMethodCash  = "CASH"
	PaymentMethodVnpay = "VNPAY"
)

// Payment is a billing record for a swap or a package purchase.
type Payment struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	BookingID int64     `json:"bookingId,omitempty"`
	PlanID    int64     `json:"planId,omitempty"`
	Amount    int64     `json:"amount"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Customer is the billing service's view of a user.
type Customer struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// PaymentFilter narrows payment searches. Empty fields are dropped.
type PaymentFilter struct {
	UserID string
	Status string
	Method string
}

func (f PaymentFilter) values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "userId", f.UserID)
	setNonEmpty(v, "status", f.Status)
	setNonEmpty(v, "method", f.Method)
	return v
}

// CreatePaymentRequest opens a payment for a booking swap or a package plan.
type CreatePaymentRequest struct {
	UserID    string `json:"userId"`
	BookingID int64  `json:"bookingId,omitempty"`
	PlanID    int64  `json:"planId,omitempty"`
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
}

// PaymentsClient calls the billing service.
type PaymentsClient struct {
	api *api.Client
}

// NewPaymentsClient returns client.
func NewPaymentsClient(apiClient *api.Client) *PaymentsClient {
	return &PaymentsClient{api: apiClient}
}

// CreateSwapPayment opens a payment for a booking's swap.
func (c *PaymentsClient) CreateSwapPayment(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	var payment Payment
	if err := c.api.Post(ctx, "/billing/api/payments/swap", req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// CreatePackagePayment opens a payment for a package-plan purchase.
func (c *PaymentsClient) CreatePackagePayment(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	var payment Payment
	if err := c.api.Post(ctx, "/billing/api/payments/package", req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ConfirmCash marks a pending cash payment as PAID.
func (c *PaymentsClient) ConfirmCash(ctx context.Context, paymentID int64) (*Payment, error) {
	var payment Payment
	if err := c.api.Post(ctx, fmt.Sprintf("/billing/api/payments/%d/confirm-cash", paymentID), nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Refund reverses a paid payment.
func (c *PaymentsClient) Refund(ctx context.Context, paymentID int64) (*Payment, error) {
	var payment Payment
	if err := c.api.Post(ctx, fmt.Sprintf("/billing/api/payments/%d/refund", paymentID), nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// CustomerLookup resolves billing customer details by phone or user id.
func (c *PaymentsClient) CustomerLookup(ctx context.Context, keyword string) (*Customer, error) {
	query := url.Values{}
	setNonEmpty(query, "keyword", keyword)
	var customer Customer
	if err := c.api.Get(ctx, "/billing/api/payments/customer", query, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// Search lists payments matching filter, page envelope returned unchanged.
func (c *PaymentsClient) Search(ctx context.Context, filter PaymentFilter, page PageQuery) (api.Page[Payment], error) {
	query := page.values()
	for key, vals := range filter.values() {
		query[key] = vals
	}
	var result api.Page[Payment]
	err := c.api.Get(ctx, "/billing/api/payments/search", query, &result)
	return result, err
}
