package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"majji-market/internal/domain"
)

var (
	ErrOAuthProviderUnknown = errors.New("oauth provider not configured")
	ErrOAuthStateInvalid    = errors.New("oauth state invalid")
	ErrHandoffPending       = errors.New("oauth sign-in still pending")
)

// OAuthIdentity es lo que el proveedor informa del usuario autenticado.
type OAuthIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
}

// OAuthProvider abstrae un proveedor de identidad OAuth2.
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (OAuthIdentity, error)
}

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider arma el proveedor de Google con el redirect registrado.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) OAuthProvider {
	return &googleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (p *googleProvider) Name() string { return "google" }

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
}

func (p *googleProvider) Exchange(ctx context.Context, code string) (OAuthIdentity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return OAuthIdentity{}, fmt.Errorf("exchange code: %w", err)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return OAuthIdentity{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return OAuthIdentity{}, fmt.Errorf("user info status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return OAuthIdentity{}, fmt.Errorf("decode user info: %w", err)
	}
	return OAuthIdentity{
		Subject:       info.ID,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
	}, nil
}

// OAuthService conduce el login federado: start, callback y hand-off de la sesion.
type OAuthService struct {
	logger     *zap.Logger
	users      *UserService
	jwt        *JWTService
	flows      OAuthFlowStore
	providers  map[string]OAuthProvider
	stateTTL   time.Duration
	handoffTTL time.Duration
}

func NewOAuthService(logger *zap.Logger, users *UserService, jwt *JWTService, flows OAuthFlowStore, stateTTL, handoffTTL time.Duration, providers ...OAuthProvider) *OAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if flows == nil {
		flows = NewMemoryOAuthFlowStore()
	}
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	if handoffTTL <= 0 {
		handoffTTL = 2 * time.Minute
	}
	byName := make(map[string]OAuthProvider, len(providers))
	for _, p := range providers {
		if p != nil {
			byName[strings.ToLower(p.Name())] = p
		}
	}
	return &OAuthService{
		logger:     logger,
		users:      users,
		jwt:        jwt,
		flows:      flows,
		providers:  byName,
		stateTTL:   stateTTL,
		handoffTTL: handoffTTL,
	}
}

// Providers lista los proveedores configurados.
func (s *OAuthService) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start registra un flujo pendiente y devuelve la URL de autorizacion del proveedor.
func (s *OAuthService) Start(ctx context.Context, provider string) (string, string, error) {
	p, ok := s.providers[strings.ToLower(provider)]
	if !ok {
		return "", "", ErrOAuthProviderUnknown
	}
	state, err := generateState()
	if err != nil {
		return "", "", err
	}
	flow := OAuthFlow{State: state, Provider: p.Name(), Status: oauthFlowPending}
	if err := s.flows.Put(ctx, flow, s.stateTTL); err != nil {
		return "", "", err
	}
	return p.AuthCodeURL(state), state, nil
}

// Complete procesa el callback: canjea el codigo, crea o vincula al usuario y
// deja los tokens listos para que el cliente los retire con Handoff.
func (s *OAuthService) Complete(ctx context.Context, provider, state, code string) (domain.User, error) {
	p, ok := s.providers[strings.ToLower(provider)]
	if !ok {
		return domain.User{}, ErrOAuthProviderUnknown
	}
	state = strings.TrimSpace(state)
	if state == "" || strings.TrimSpace(code) == "" {
		return domain.User{}, ErrOAuthStateInvalid
	}
	flow, found, err := s.flows.Get(ctx, state)
	if err != nil {
		return domain.User{}, err
	}
	if !found || flow.Status != oauthFlowPending || flow.Provider != p.Name() {
		return domain.User{}, ErrOAuthStateInvalid
	}

	identity, err := p.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("oauth exchange failed", zap.String("provider", p.Name()), zap.Error(err))
		return domain.User{}, ErrOAuthInvalid
	}
	user, err := s.users.UpsertOAuthUser(ctx, OAuthInput{
		Provider:      p.Name(),
		Subject:       identity.Subject,
		Email:         identity.Email,
		EmailVerified: identity.EmailVerified,
	})
	if err != nil {
		return domain.User{}, err
	}
	tokens, err := s.jwt.GeneratePair(user)
	if err != nil {
		return domain.User{}, err
	}

	flow.Status = oauthFlowComplete
	flow.UserID = user.ID
	flow.Tokens = &tokens
	if err := s.flows.Put(ctx, flow, s.handoffTTL); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("oauth sign-in completed", zap.String("provider", p.Name()), zap.String("user_id", user.ID))
	return user, nil
}

// Handoff entrega una sola vez la sesion de un flujo completado.
func (s *OAuthService) Handoff(ctx context.Context, state string) (domain.User, TokenPair, error) {
	state = strings.TrimSpace(state)
	if state == "" {
		return domain.User{}, TokenPair{}, ErrOAuthStateInvalid
	}
	flow, found, err := s.flows.Get(ctx, state)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	if !found {
		return domain.User{}, TokenPair{}, ErrOAuthStateInvalid
	}
	if flow.Status == oauthFlowPending {
		return domain.User{}, TokenPair{}, ErrHandoffPending
	}

	flow, found, err = s.flows.Take(ctx, state)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	if !found || flow.Tokens == nil {
		return domain.User{}, TokenPair{}, ErrOAuthStateInvalid
	}
	user, err := s.users.GetUser(ctx, flow.UserID)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, *flow.Tokens, nil
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
