package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrHandoffPending indica que el login federado todavia no volvio del proveedor.
var ErrHandoffPending = errors.New("oauth sign-in pending")

// APIError es una respuesta de error del servicio de identidad.
// Message es el texto que devolvio el servidor, sin modificar.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth api status %d", e.StatusCode)
	}
	return e.Message
}

// UserRecord es el registro crudo del usuario tal como lo entrega el servidor.
type UserRecord struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	AccountType     *string   `json:"account_type"`
	Company         *string   `json:"company"`
	Verified        bool      `json:"verified"`
	EmailVerified   bool      `json:"email_verified"`
	NeedsOnboarding *bool     `json:"needs_onboarding"`
	CreatedAt       time.Time `json:"created_at"`
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthResult struct {
	User   UserRecord `json:"user"`
	Tokens Tokens     `json:"tokens"`
}

// ProfileUpdate es el cuerpo de POST /auth/update-profile; nil significa "sin cambio".
type ProfileUpdate struct {
	Name            *string `json:"name,omitempty"`
	AccountType     *string `json:"account_type,omitempty"`
	Company         *string `json:"company,omitempty"`
	NeedsOnboarding *bool   `json:"needs_onboarding,omitempty"`
}

type OAuthStart struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// Client habla con el servicio de identidad por HTTP/JSON.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// New construye un cliente apuntando a la URL base del API.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) SignUp(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	_, err := c.do(ctx, http.MethodPost, "/auth/sign-up", "", body, &out)
	return out, err
}

func (c *Client) SignIn(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	_, err := c.do(ctx, http.MethodPost, "/auth/sign-in", "", body, &out)
	return out, err
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	var out struct {
		Tokens Tokens `json:"tokens"`
	}
	_, err := c.do(ctx, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refreshToken}, &out)
	return out.Tokens, err
}

func (c *Client) SignOut(ctx context.Context, refreshToken string) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/sign-out", "", map[string]string{"refresh_token": refreshToken}, nil)
	return err
}

func (c *Client) Session(ctx context.Context, accessToken string) (UserRecord, error) {
	var out struct {
		User UserRecord `json:"user"`
	}
	_, err := c.do(ctx, http.MethodGet, "/auth/session", accessToken, nil, &out)
	return out.User, err
}

func (c *Client) UpdateProfile(ctx context.Context, accessToken string, update ProfileUpdate) (UserRecord, error) {
	var out struct {
		User UserRecord `json:"user"`
	}
	_, err := c.do(ctx, http.MethodPost, "/auth/update-profile", accessToken, update, &out)
	return out.User, err
}

func (c *Client) StartOAuth(ctx context.Context, provider string) (OAuthStart, error) {
	var out OAuthStart
	_, err := c.do(ctx, http.MethodGet, "/auth/oauth/"+url.PathEscape(provider)+"/start", "", nil, &out)
	return out, err
}

// Handoff retira la sesion de un login federado; devuelve ErrHandoffPending mientras
// el proveedor no haya redirigido de vuelta.
func (c *Client) Handoff(ctx context.Context, state string) (AuthResult, error) {
	var out AuthResult
	status, err := c.do(ctx, http.MethodGet, "/auth/oauth/handoff?state="+url.QueryEscape(state), "", nil, &out)
	if err != nil {
		return AuthResult{}, err
	}
	if status == http.StatusAccepted {
		return AuthResult{}, ErrHandoffPending
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &apiErr)
		c.logger.Debug("auth api error",
			zap.String("method", method),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("error", apiErr.Error),
		)
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusAccepted || len(respBody) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp.StatusCode, nil
}
