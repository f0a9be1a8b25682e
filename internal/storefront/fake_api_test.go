package storefront

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"majji-market/internal/authclient"
)

// fakeAuthAPI simula el servicio de identidad en memoria.
type fakeAuthAPI struct {
	mu sync.Mutex

	users   map[string]authclient.UserRecord
	pass    map[string]string
	tokens  map[string]string
	nextID  int
	handoff map[string]*authclient.AuthResult

	signOutErr    error
	updateErr     error
	expireAccess  bool
	signInDelay   chan struct{}
	signInCalls   int
	refreshCalls  int
	updateCalls   int
	handoffCalls  int
	signOutCalls  int
	lastUpdate    authclient.ProfileUpdate
	revokedTokens []string
}

func newFakeAuthAPI() *fakeAuthAPI {
	return &fakeAuthAPI{
		users:   make(map[string]authclient.UserRecord),
		pass:    make(map[string]string),
		tokens:  make(map[string]string),
		handoff: make(map[string]*authclient.AuthResult),
	}
}

func (f *fakeAuthAPI) seed(rec authclient.UserRecord, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[rec.Email] = rec
	f.pass[rec.Email] = password
}

func (f *fakeAuthAPI) issue(rec authclient.UserRecord) authclient.AuthResult {
	f.nextID++
	access := "access-" + rec.ID + "-" + strconv.Itoa(f.nextID)
	f.tokens[access] = rec.Email
	return authclient.AuthResult{User: rec, Tokens: authclient.Tokens{AccessToken: access, RefreshToken: "refresh-" + rec.Email}}
}

func (f *fakeAuthAPI) SignUp(_ context.Context, email, password string) (authclient.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return authclient.AuthResult{}, &authclient.APIError{StatusCode: 409, Message: "email already taken"}
	}
	rec := authclient.UserRecord{ID: "new-" + email, Email: email, NeedsOnboarding: boolPtr(true), CreatedAt: time.Now().UTC()}
	f.users[email] = rec
	f.pass[email] = password
	return f.issue(rec), nil
}

func (f *fakeAuthAPI) SignIn(_ context.Context, email, password string) (authclient.AuthResult, error) {
	f.mu.Lock()
	f.signInCalls++
	gate := f.signInDelay
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.users[email]
	if !ok || f.pass[email] != password {
		return authclient.AuthResult{}, &authclient.APIError{StatusCode: 401, Message: "invalid credentials"}
	}
	return f.issue(rec), nil
}

func (f *fakeAuthAPI) Refresh(_ context.Context, refreshToken string) (authclient.Tokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	for email, rec := range f.users {
		if refreshToken == "refresh-"+email {
			f.expireAccess = false
			return f.issue(rec).Tokens, nil
		}
	}
	return authclient.Tokens{}, &authclient.APIError{StatusCode: 401, Message: "unauthorized"}
}

func (f *fakeAuthAPI) SignOut(_ context.Context, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	f.revokedTokens = append(f.revokedTokens, refreshToken)
	return f.signOutErr
}

func (f *fakeAuthAPI) UpdateProfile(_ context.Context, accessToken string, update authclient.ProfileUpdate) (authclient.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastUpdate = update
	if f.updateErr != nil {
		return authclient.UserRecord{}, f.updateErr
	}
	email, ok := f.tokens[accessToken]
	if !ok || f.expireAccess {
		return authclient.UserRecord{}, &authclient.APIError{StatusCode: 401, Message: "unauthorized"}
	}
	rec := f.users[email]
	if update.Name != nil {
		rec.Name = *update.Name
	}
	if update.AccountType != nil {
		rec.AccountType = update.AccountType
	}
	if update.Company != nil {
		rec.Company = update.Company
	}
	if update.NeedsOnboarding != nil {
		rec.NeedsOnboarding = update.NeedsOnboarding
	}
	f.users[email] = rec
	return rec, nil
}

func (f *fakeAuthAPI) StartOAuth(_ context.Context, provider string) (authclient.OAuthStart, error) {
	if provider != "google" {
		return authclient.OAuthStart{}, &authclient.APIError{StatusCode: 404, Message: "oauth provider not configured"}
	}
	return authclient.OAuthStart{URL: "https://accounts.example.com/auth?state=st-1", State: "st-1"}, nil
}

func (f *fakeAuthAPI) Handoff(_ context.Context, state string) (authclient.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handoffCalls++
	res, ok := f.handoff[state]
	if !ok {
		return authclient.AuthResult{}, authclient.ErrHandoffPending
	}
	if res == nil {
		return authclient.AuthResult{}, &authclient.APIError{StatusCode: 404, Message: "oauth state invalid"}
	}
	delete(f.handoff, state)
	f.handoff[state] = nil
	return *res, nil
}

// completeOAuth simula el callback del proveedor para el state dado.
func (f *fakeAuthAPI) completeOAuth(state string, rec authclient.UserRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[rec.Email] = rec
	res := f.issue(rec)
	f.handoff[state] = &res
}

func (f *fakeAuthAPI) counts() (signIn, refresh, update, signOut int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signInCalls, f.refreshCalls, f.updateCalls, f.signOutCalls
}

var errTransport = errors.New("dial tcp: connection refused")
