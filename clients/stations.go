package clients

import (
	"context"
	"fmt"
	"net/url"

	"voltswap/api"
)

// Station statuses.
const (
	StationStatusActive      = "ACTIVE"
	StationStatusInactive    = "INACTIVE"
	StationStatusMaintenance = "MAINTENANCE"
)

// Station is a battery-swap station.
type Station struct {
	ID        int64   `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Status    string  `json:"status"`
	Capacity  int     `json:"capacity"`
}

// StationFilter narrows station searches. Empty fields are dropped.
type StationFilter struct {
	Keyword string
	City    string
	Status  string
}

func (f StationFilter) values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "keyword", f.Keyword)
	setNonEmpty(v, "city", f.City)
	setNonEmpty(v, "status", f.Status)
	return v
}

// StationsClient calls the station service.
type StationsClient struct {
	api *api.Client
}

// NewStationsClient returns client.
func NewStationsClient(apiClient *api.Client) *StationsClient {
	return &StationsClient{api: apiClient}
}

// GetAll lists stations, page envelope returned unchanged.
func (c *StationsClient) GetAll(ctx context.Context, page PageQuery) (api.Page[Station], error) {
	var result api.Page[Station]
	err := c.api.Get(ctx, "/station/api/stations/getall", page.values(), &result)
	return result, err
}

// GetByID fetches one station.
func (c *StationsClient) GetByID(ctx context.Context, id int64) (*Station, error) {
	var station Station
	if err := c.api.Get(ctx, fmt.Sprintf("/station/api/stations/%d", id), nil, &station); err != nil {
		return nil, err
	}
	return &station, nil
}

// Search lists stations matching filter.
func (c *StationsClient) Search(ctx context.Context, filter StationFilter, page PageQuery) (api.Page[Station], error) {
	query := page.values()
	for key, vals := range filter.values() {
		query[key] = vals
	}
	var result api.Page[Station]
	err := c.api.Get(ctx, "/station/api/stations/search", query, &result)
	return result, err
}

// Create registers a station.
func (c *StationsClient) Create(ctx context.Context, station Station) (*Station, error) {
	var created Station
	if err := c.api.Post(ctx, "/station/api/stations", station, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces a station.
func (c *StationsClient) Update(ctx context.Context, id int64, station Station) (*Station, error) {
	var updated Station
	if err := c.api.Put(ctx, fmt.Sprintf("/station/api/stations/%d", id), station, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a station.
func (c *StationsClient) Delete(ctx context.Context, id int64) error {
	return c.api.Delete(ctx, fmt.Sprintf("/station/api/stations/%d", id), nil, nil)
}
