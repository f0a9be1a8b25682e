package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"majji-market/internal/service"
)

type stubProvider struct {
	identity service.OAuthIdentity
}

func (p *stubProvider) Name() string { return "google" }

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + state
}

func (p *stubProvider) Exchange(_ context.Context, _ string) (service.OAuthIdentity, error) {
	return p.identity, nil
}

func newOAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := newMockUserRepo()
	jwtSvc := service.NewJWTService("secret", 15*time.Minute, time.Hour)
	userSvc := service.NewUserService(zap.NewNop(), repo, &mockEmailSender{}, nil)
	oauthSvc := service.NewOAuthService(zap.NewNop(), userSvc, jwtSvc, service.NewMemoryOAuthFlowStore(), time.Minute, time.Minute,
		&stubProvider{identity: service.OAuthIdentity{Subject: "g-1", Email: "oauth@example.com", EmailVerified: true}})
	return NewRouter(zap.NewNop(), jwtSvc, NewUserHandler(zap.NewNop(), userSvc, jwtSvc), NewOAuthHandler(zap.NewNop(), oauthSvc), nil)
}

func TestOAuthHandler_StartCallbackHandoff(t *testing.T) {
	r := newOAuthRouter(t)

	rec := performRequest(r, http.MethodGet, "/auth/oauth/google/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var started struct {
		URL   string `json:"url"`
		State string `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil || started.State == "" || started.URL == "" {
		t.Fatalf("unexpected start response %q: %v", rec.Body.String(), err)
	}

	rec = performRequest(r, http.MethodGet, "/auth/oauth/handoff?state="+started.State, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202 while pending, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodGet, "/auth/oauth/google/callback?state="+started.State+"&code=abc", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 on callback, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(r, http.MethodGet, "/auth/oauth/handoff?state="+started.State, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 on handoff, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp.Tokens.AccessToken == "" || resp.User["email"] != "oauth@example.com" {
		t.Fatalf("unexpected handoff %+v", resp)
	}
	if resp.User["name"] != "" || resp.User["needs_onboarding"] != true || resp.User["email_verified"] != true {
		t.Fatalf("expected fresh oauth user pending onboarding, got %+v", resp.User)
	}

	session := performRequest(r, http.MethodGet, "/auth/session", nil, resp.Tokens.AccessToken)
	if session.Code != http.StatusOK {
		t.Fatalf("expected handed-off token to open a session, got %d", session.Code)
	}

	rec = performRequest(r, http.MethodGet, "/auth/oauth/handoff?state="+started.State, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected handoff to be single use, got %d", rec.Code)
	}
}

func TestOAuthHandler_Errors(t *testing.T) {
	r := newOAuthRouter(t)

	if rec := performRequest(r, http.MethodGet, "/auth/oauth/github/start", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown provider, got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodGet, "/auth/oauth/google/callback?state=bogus&code=abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown state, got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodGet, "/auth/oauth/google/callback?error=access_denied", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when user cancels, got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodGet, "/auth/oauth/handoff?state=bogus", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown handoff, got %d", rec.Code)
	}
}
