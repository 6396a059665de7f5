package api

import (
	"context"
	"net/http"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Username    string `json:"username"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Color       string `json:"color,omitempty"`
}

// RegisterResponse reports the outcome of a registration.
type RegisterResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	UserID   int    `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// LoginRequest holds credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse identifies the signed-in user. Session cookies arrive
// through the jar.
type LoginResponse struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var resp RegisterResponse
	err := c.do(ctx, http.MethodPost, "/register/", req, &resp)
	return resp, err
}

// Login signs in and stores the session cookies in the jar.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/login/", req, &resp)
	return resp, err
}

// Refresh renews the access cookie using the refresh cookie.
func (c *Client) Refresh(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/refresh/", struct{}{}, nil)
}

// Logout ends the session on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout/", struct{}{}, nil)
}
