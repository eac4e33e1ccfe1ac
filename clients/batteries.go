package clients

import (
	"context"
	"fmt"
	"net/url"

	"voltswap/api"
)

// Battery statuses.
const (
	BatteryStatusFull        = "FULL"
	BatteryStatusCharging    = "CHARGING"
	BatteryStatusInUse       = "IN_USE"
	BatteryStatusDefective   = "DEFECTIVE"
	BatteryStatusMaintenance = "MAINTENANCE"
	BatteryStatusInStock     = "IN_STOCK"
)

// Battery is a swappable battery pack.
type Battery struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	StationID   int64  `json:"stationId"`
	Model       string `json:"model"`
	Status      string `json:"status"`
	ChargeLevel int    `json:"chargeLevel"`
	HealthPct   int    `json:"healthPct"`
}

// BatteryFilter narrows battery searches. Empty fields are dropped.
type BatteryFilter struct {
	StationID int64
	Status    string
	Model     string
}

func (f BatteryFilter) values() url.Values {
	v := url.Values{}
	setNonZero(v, "stationId", f.StationID)
	setNonEmpty(v, "status", f.Status)
	setNonEmpty(v, "model", f.Model)
	return v
}

// HoldRequest reserves a battery for a booking.
type HoldRequest struct {
	BatteryID int64 `json:"batteryId"`
	BookingID int64 `json:"bookingId"`
}

// SwapRequest moves a battery between stations.
type SwapRequest struct {
	BatteryID     int64 `json:"batteryId"`
	FromStationID int64 `json:"fromStationId"`
	ToStationID   int64 `json:"toStationId"`
}

// BatteriesClient calls the station service's battery endpoints.
type BatteriesClient struct {
	api *api.Client
}

// NewBatteriesClient returns client.
func NewBatteriesClient(apiClient *api.Client) *BatteriesClient {
	return &BatteriesClient{api: apiClient}
}

// GetAll lists batteries, page envelope returned unchanged.
func (c *BatteriesClient) GetAll(ctx context.Context, page PageQuery) (api.Page[Battery], error) {
	var result api.Page[Battery]
	err := c.api.Get(ctx, "/station/api/batteries/getall", page.values(), &result)
	return result, err
}

// GetByStation lists a station's batteries.
func (c *BatteriesClient) GetByStation(ctx context.Context, stationID int64) ([]Battery, error) {
	var batteries []Battery
	if err := c.api.Get(ctx, fmt.Sprintf("/station/api/batteries/station/%d", stationID), nil, &batteries); err != nil {
		return nil, err
	}
	if batteries == nil {
		batteries = []Battery{}
	}
	return batteries, nil
}

// Search lists batteries matching filter.
func (c *BatteriesClient) Search(ctx context.Context, filter BatteryFilter, page PageQuery) (api.Page[Battery], error) {
	query := page.values()
	for key, vals := range filter.values() {
		query[key] = vals
	}
	var result api.Page[Battery]
	err := c.api.Get(ctx, "/station/api/batteries/search", query, &result)
	return result, err
}

// Hold reserves a battery for a booking.
func (c *BatteriesClient) Hold(ctx context.Context, req HoldRequest) (*Battery, error) {
	var battery Battery
	if err := c.api.Post(ctx, "/station/api/batteries/event/hold", req, &battery); err != nil {
		return nil, err
	}
	return &battery, nil
}

// Release frees a previously held battery.
func (c *BatteriesClient) Release(ctx context.Context, req HoldRequest) (*Battery, error) {
	var battery Battery
	if err := c.api.Post(ctx, "/station/api/batteries/event/release", req, &battery); err != nil {
		return nil, err
	}
	return &battery, nil
}

// SwapStationToStation moves a battery between stations.
func (c *BatteriesClient) SwapStationToStation(ctx context.Context, req SwapRequest) (*Battery, error) {
	var battery Battery
	if err := c.api.Post(ctx, "/station/api/batteries/event/swapstation-to-station", req, &battery); err != nil {
		return nil, err
	}
	return &battery, nil
}

// UpdateStatus transitions a battery's status; the transition itself is
// validated server-side.
func (c *BatteriesClient) UpdateStatus(ctx context.Context, id int64, status string) (*Battery, error) {
	var battery Battery
	body := map[string]string{"status": status}
	if err := c.api.Patch(ctx, fmt.Sprintf("/station/api/batteries/%d/status", id), body, &battery); err != nil {
		return nil, err
	}
	return &battery, nil
}
