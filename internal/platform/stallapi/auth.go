package stallapi

import (
	"context"
	"fmt"

	"github.com/campusbid/stallbid/internal/domain"
)

// Login authenticates with email and password and returns the session the
// backend issued.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var resp apiAuthResponse
	if err := c.postJSON(ctx, "/auth/login", body, &resp); err != nil {
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}
	return sessionFromAuth(resp, "login")
}

// SignUp registers a new account. The backend typically responds with an
// OTP challenge; the returned message tells the caller what to do next.
func (c *Client) SignUp(ctx context.Context, name, email, phone, password string) (string, error) {
	body := map[string]string{
		"studentName":  name,
		"studentEmail": email,
		"phone":        phone,
		"password":     password,
	}
	var resp apiAuthResponse
	if err := c.postJSON(ctx, "/auth/signup", body, &resp); err != nil {
		return "", fmt.Errorf("signup: %w", err)
	}
	if !resp.Success {
		return "", fmt.Errorf("signup: %s", resp.Message)
	}
	return resp.Message, nil
}

// RequestOTP asks the backend to send a fresh one-time password to the
// given email.
func (c *Client) RequestOTP(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	var resp apiAuthResponse
	if err := c.postJSON(ctx, "/auth/request-otp", body, &resp); err != nil {
		return fmt.Errorf("request otp: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("request otp: %s", resp.Message)
	}
	return nil
}

// VerifyOTP completes an OTP challenge and returns the issued session.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (domain.Session, error) {
	body := map[string]string{
		"email": email,
		"otp":   otp,
	}
	var resp apiAuthResponse
	if err := c.postJSON(ctx, "/auth/verify-otp", body, &resp); err != nil {
		return domain.Session{}, fmt.Errorf("verify otp: %w", err)
	}
	return sessionFromAuth(resp, "verify otp")
}

// ForgotPassword starts a password reset for the given email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	var resp apiAuthResponse
	if err := c.postJSON(ctx, "/auth/forgot-password", body, &resp); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("forgot password: %s", resp.Message)
	}
	return nil
}

// ResetPassword completes a password reset using the emailed token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{
		"token":       token,
		"newPassword": newPassword,
	}
	var resp apiAuthResponse
	if err := c.postJSON(ctx, "/auth/reset-password", body, &resp); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("reset password: %s", resp.Message)
	}
	return nil
}

// Me returns the user behind the client's current token.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var api apiUser
	if err := c.getJSON(ctx, "/auth/me", &api); err != nil {
		return domain.User{}, fmt.Errorf("me: %w", err)
	}
	return api.toDomain(), nil
}

func sessionFromAuth(resp apiAuthResponse, op string) (domain.Session, error) {
	if !resp.Success || resp.Token == "" || resp.User == nil {
		msg := resp.Message
		if msg == "" {
			msg = "backend returned no session"
		}
		return domain.Session{}, fmt.Errorf("%s: %s: %w", op, msg, domain.ErrUnauthorized)
	}
	return domain.Session{
		Token:     resp.Token,
		User:      resp.User.toDomain(),
		ExpiresAt: resp.ExpiresAt.Time,
	}, nil
}
