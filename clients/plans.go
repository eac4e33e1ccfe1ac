package clients

import (
	"context"
	"fmt"

	"voltswap/api"
)

// Package plan statuses.
const (
	PlanStatusActive   = "ACTIVE"
	PlanStatusInactive = "INACTIVE"
	PlanStatusArchived = "ARCHIVED"
)

// PackagePlan is a prepaid swap subscription offering.
type PackagePlan struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	SwapCount    int    `json:"swapCount"`
	DurationDays int    `json:"durationDays"`
	Price        int64  `json:"price"`
	Status       string `json:"status"`
}

// PlansClient calls the booking service's package-plan endpoints.
type PlansClient struct {
	api *api.Client
}

// NewPlansClient returns client.
func NewPlansClient(apiClient *api.Client) *PlansClient {
	return &PlansClient{api: apiClient}
}

// GetAll lists package plans, page envelope returned unchanged.
func (c *PlansClient) GetAll(ctx context.Context, page PageQuery) (api.Page[PackagePlan], error) {
	var result api.Page[PackagePlan]
	err := c.api.Get(ctx, "/booking/api/package-plans", page.values(), &result)
	return result, err
}

// GetByID fetches one plan.
func (c *PlansClient) GetByID(ctx context.Context, id int64) (*PackagePlan, error) {
	var plan PackagePlan
	if err := c.api.Get(ctx, fmt.Sprintf("/booking/api/package-plans/%d", id), nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Create registers a plan.
func (c *PlansClient) Create(ctx context.Context, plan PackagePlan) (*PackagePlan, error) {
	var created PackagePlan
	if err := c.api.Post(ctx, "/booking/api/package-plans", plan, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update patches plan fields.
func (c *PlansClient) Update(ctx context.Context, id int64, plan PackagePlan) (*PackagePlan, error) {
	var updated PackagePlan
	if err := c.api.Patch(ctx, fmt.Sprintf("/booking/api/package-plans/%d", id), plan, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a plan.
func (c *PlansClient) Delete(ctx context.Context, id int64) error {
	return c.api.Delete(ctx, fmt.Sprintf("/booking/api/package-plans/%d", id), nil, nil)
}

// Activate switches a plan to ACTIVE.
func (c *PlansClient) Activate(ctx context.Context, id int64) (*PackagePlan, error) {
	var plan PackagePlan
	if err := c.api.Post(ctx, fmt.Sprintf("/booking/api/package-plans/%d/activate", id), nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}
