package clients

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"voltswap/api"
)

// Booking statuses.
const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCompleted = "COMPLETED"
	BookingStatusCancelled = "CANCELLED"
	BookingStatusExpired   = "EXPIRED"
)

// Booking is a scheduled battery swap.
type Booking struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	VehicleID   int64     `json:"vehicleId"`
	StationID   int64     `json:"stationId"`
	BatteryID   int64     `json:"batteryId,omitempty"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduledAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BookingFilter narrows booking searches. Empty fields are dropped.
type BookingFilter struct {
	UserID    string
	StationID int64
	Status    string
	DateFrom  string
	DateTo    string
}

func (f BookingFilter) values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "userId", f.UserID)
	setNonZero(v, "stationId", f.StationID)
	setNonEmpty(v, "status", f.Status)
	setNonEmpty(v, "dateFrom", f.DateFrom)
	setNonEmpty(v, "dateTo", f.DateTo)
	return v
}

// CreateBookingRequest opens a new booking.
type CreateBookingRequest struct {
	VehicleID   int64     `json:"vehicleId"`
	StationID   int64     `json:"stationId"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

// BookingStatistics aggregates booking counts for dashboards.
type BookingStatistics struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

// BookingsClient calls the booking service.
type BookingsClient struct {
	api *api.Client
}

// NewBookingsClient returns client.
func NewBookingsClient(apiClient *api.Client) *BookingsClient {
	return &BookingsClient{api: apiClient}
}

// GetAll lists bookings, page envelope returned unchanged.
func (c *BookingsClient) GetAll(ctx context.Context, page PageQuery) (api.Page[Booking], error) {
	var result api.Page[Booking]
	err := c.api.Get(ctx, "/booking/api/bookings/getall", page.values(), &result)
	return result, err
}

// GetByID fetches one booking.
func (c *BookingsClient) GetByID(ctx context.Context, id int64) (*Booking, error) {
	var booking Booking
	if err := c.api.Get(ctx, fmt.Sprintf("/booking/api/bookings/%d", id), nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Search lists bookings matching filter.
func (c *BookingsClient) Search(ctx context.Context, filter BookingFilter, page PageQuery) (api.Page[Booking], error) {
	query := page.values()
	for key, vals := range filter.values() {
		query[key] = vals
	}
	var result api.Page[Booking]
	err := c.api.Get(ctx, "/booking/api/bookings/search", query, &result)
	return result, err
}

// Create opens a booking.
func (c *BookingsClient) Create(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	var booking Booking
	if err := c.api.Post(ctx, "/booking/api/bookings/create", req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Confirm moves a booking to CONFIRMED.
func (c *BookingsClient) Confirm(ctx context.Context, id int64) (*Booking, error) {
	var booking Booking
	if err := c.api.Post(ctx, fmt.Sprintf("/booking/api/bookings/%d/confirm", id), nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Complete moves a booking to COMPLETED after the swap.
func (c *BookingsClient) Complete(ctx context.Context, id int64) (*Booking, error) {
	var booking Booking
	if err := c.api.Post(ctx, fmt.Sprintf("/booking/api/bookings/%d/complete", id), nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Cancel moves a booking to CANCELLED.
func (c *BookingsClient) Cancel(ctx context.Context, id int64) (*Booking, error) {
	var booking Booking
	if err := c.api.Post(ctx, fmt.Sprintf("/booking/api/bookings/%d/cancel", id), nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Statistics returns aggregate booking counts.
func (c *BookingsClient) Statistics(ctx context.Context, filter BookingFilter) (*BookingStatistics, error) {
	var stats BookingStatistics
	if err := c.api.Get(ctx, "/booking/api/bookings/statistics", filter.values(), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
