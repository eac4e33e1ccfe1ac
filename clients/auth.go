package clients

import (
	"context"

	"voltswap/api"
)

// LoginRequest carries operator credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

// AuthClient calls the auth endpoints.
type AuthClient struct {
	api *api.Client
}

// NewAuthClient returns client.
func NewAuthClient(apiClient *api.Client) *AuthClient {
	return &AuthClient{api: apiClient}
}

// Login exchanges credentials for a token.
func (c *AuthClient) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.api.Post(ctx, "/user/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
