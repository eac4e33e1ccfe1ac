package workflow

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voltswap/cache"
	"voltswap/clients"
	"voltswap/transport"
)

// SwapParams drive one booking-to-swap pipeline run.
type SwapParams struct {
	BookingID     int64
	BatteryID     int64
	FromStationID int64
	ToStationID   int64
	UserID        string
	Amount        int64
	PaymentMethod string // CASH confirms in-flow; VNPAY is confirmed by the gateway callback
}

// SwapResult carries the ids produced along the pipeline.
type SwapResult struct {
	BookingID int64
	PaymentID int64
	BatteryID int64
}

// SwapPipeline executes the confirm → hold → pay → swap → complete sequence
// as a saga: each step has a compensating action and the whole run carries
// one idempotency key, so a retried or failed run cannot strand a booking
// half-processed.
type SwapPipeline struct {
	bookings  *clients.BookingsClient
	batteries *clients.BatteriesClient
	payments  *clients.PaymentsClient
	store     *cache.Store
	logger    *zap.Logger
}

// NewSwapPipeline returns a pipeline over the given resource clients.
func NewSwapPipeline(bookings *clients.BookingsClient, batteries *clients.BatteriesClient, payments *clients.PaymentsClient, store *cache.Store, logger *zap.Logger) *SwapPipeline {
	return &SwapPipeline{
		bookings:  bookings,
		batteries: batteries,
		payments:  payments,
		store:     store,
		logger:    logger,
	}
}

// Execute runs the pipeline. On success the booking, battery and payment
// cache keys are invalidated so the next reads see the final state.
func (p *SwapPipeline) Execute(ctx context.Context, params SwapParams) (*SwapResult, error) {
	ctx = transport.WithIdempotencyKey(ctx, uuid.NewString())

	result := &SwapResult{BookingID: params.BookingID, BatteryID: params.BatteryID}
	hold := clients.HoldRequest{BatteryID: params.BatteryID, BookingID: params.BookingID}
	swap := clients.SwapRequest{
		BatteryID:     params.BatteryID,
		FromStationID: params.FromStationID,
		ToStationID:   params.ToStationID,
	}

	steps := []Step{
		{
			Name: "confirm booking",
			Run: func(ctx context.Context) error {
				_, err := p.bookings.Confirm(ctx, params.BookingID)
				return err
			},
			Compensate: func(ctx context.Context) error {
				_, err := p.bookings.Cancel(ctx, params.BookingID)
				return err
			},
		},
		{
			Name: "hold battery",
			Run: func(ctx context.Context) error {
				_, err := p.batteries.Hold(ctx, hold)
				return err
			},
			Compensate: func(ctx context.Context) error {
				_, err := p.batteries.Release(ctx, hold)
				return err
			},
		},
		{
			Name: "create payment",
			Run: func(ctx context.Context) error {
				payment, err := p.payments.CreateSwapPayment(ctx, clients.CreatePaymentRequest{
					UserID:    params.UserID,
					BookingID: params.BookingID,
					Amount:    params.Amount,
					Method:    params.PaymentMethod,
				})
				if err != nil {
					return err
				}
				result.PaymentID = payment.ID
				return nil
			},
			// An unpaid PENDING payment is abandoned server-side; nothing to undo.
		},
		{
			Name: "confirm payment",
			Run: func(ctx context.Context) error {
				if params.PaymentMethod != clients.PaymentMethodCash {
					return nil
				}
				_, err := p.payments.ConfirmCash(ctx, result.PaymentID)
				return err
			},
			Compensate: func(ctx context.Context) error {
				if params.PaymentMethod != clients.PaymentMethodCash {
					return nil
				}
				_, err := p.payments.Refund(ctx, result.PaymentID)
				return err
			},
		},
		{
			Name: "swap battery",
			Run: func(ctx context.Context) error {
				_, err := p.batteries.SwapStationToStation(ctx, swap)
				return err
			},
			Compensate: func(ctx context.Context) error {
				reversed := clients.SwapRequest{
					BatteryID:     params.BatteryID,
					FromStationID: params.ToStationID,
					ToStationID:   params.FromStationID,
				}
				_, err := p.batteries.SwapStationToStation(ctx, reversed)
				return err
			},
		},
		{
			Name: "complete booking",
			Run: func(ctx context.Context) error {
				_, err := p.bookings.Complete(ctx, params.BookingID)
				return err
			},
		},
	}

	saga := New("battery-swap", p.logger, steps...)
	if err := saga.Execute(ctx); err != nil {
		return nil, err
	}

	p.store.Invalidate(
		cache.NewKey("bookings"),
		cache.NewKey("bookings", params.BookingID),
		cache.NewKey("batteries"),
		cache.NewKey("batteries", params.BatteryID),
		cache.NewKey("payments"),
	)
	return result, nil
}
