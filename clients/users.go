package clients

import (
	"context"
	"fmt"
	"net/url"

	"voltswap/api"
)

// User roles.
const (
	RoleAdmin  = "ADMIN"
	RoleStaff  = "STAFF"
	RoleDriver = "DRIVER"
)

// User is an account in the swap network.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

// Vehicle is a driver's registered electric vehicle.
type Vehicle struct {
	ID           int64  `json:"id"`
	UserID       string `json:"userId"`
	Plate        string `json:"plate"`
	Model        string `json:"model"`
	BatteryModel string `json:"batteryModel"`
}

// UserFilter narrows user searches. Empty fields are dropped.
type UserFilter struct {
	Keyword string
	Role    string
}

func (f UserFilter) values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "keyword", f.Keyword)
	setNonEmpty(v, "role", f.Role)
	return v
}

// UsersClient calls the user administration endpoints.
type UsersClient struct {
	api *api.Client
}

// NewUsersClient returns client.
func NewUsersClient(apiClient *api.Client) *UsersClient {
	return &UsersClient{api: apiClient}
}

// GetAll lists users, page envelope returned unchanged.
func (c *UsersClient) GetAll(ctx context.Context, page PageQuery) (api.Page[User], error) {
	var result api.Page[User]
	err := c.api.Get(ctx, "/user/api/users/getall", page.values(), &result)
	return result, err
}

// Search lists users matching filter.
func (c *UsersClient) Search(ctx context.Context, filter UserFilter, page PageQuery) (api.Page[User], error) {
	query := page.values()
	for key, vals := range filter.values() {
		query[key] = vals
	}
	var result api.Page[User]
	err := c.api.Get(ctx, "/user/api/users/search", query, &result)
	return result, err
}

// GetByID fetches one user.
func (c *UsersClient) GetByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := c.api.Get(ctx, fmt.Sprintf("/user/api/users/%s", url.PathEscape(id)), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update patches user fields.
func (c *UsersClient) Update(ctx context.Context, id string, user User) (*User, error) {
	var updated User
	if err := c.api.Patch(ctx, fmt.Sprintf("/user/api/users/%s", url.PathEscape(id)), user, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Vehicles lists a user's registered vehicles.
func (c *UsersClient) Vehicles(ctx context.Context, userID string) ([]Vehicle, error) {
	var vehicles []Vehicle
	if err := c.api.Get(ctx, fmt.Sprintf("/user/api/users/%s/vehicles", url.PathEscape(userID)), nil, &vehicles); err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []Vehicle{}
	}
	return vehicles, nil
}

// AddVehicle registers a vehicle for a user.
func (c *UsersClient) AddVehicle(ctx context.Context, userID string, vehicle Vehicle) (*Vehicle, error) {
	var created Vehicle
	if err := c.api.Post(ctx, fmt.Sprintf("/user/api/users/%s/vehicles", url.PathEscape(userID)), vehicle, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
