package storefront

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"majji-market/internal/authclient"
)

// IdentityResolver resuelve cuentas conocidas por email. Se inyecta en DemoAdapter
// para no fijar las cuentas de demostracion en el codigo del sincronizador.
type IdentityResolver interface {
	Resolve(email string) (authclient.UserRecord, bool)
}

// StaticResolver resuelve contra un mapa fijo indexado por email en minusculas.
type StaticResolver map[string]authclient.UserRecord

func (r StaticResolver) Resolve(email string) (authclient.UserRecord, bool) {
	rec, ok := r[strings.ToLower(strings.TrimSpace(email))]
	return rec, ok
}

// DemoAccounts devuelve las cuentas de demostracion de la tienda.
func DemoAccounts() StaticResolver {
	seller, buyer := string(AccountTypeSeller), string(AccountTypeBuyer)
	company := "TechCorp Inc."
	done := false
	return StaticResolver{
		"sarah.dev@email.com": {
			ID:              "1",
			Email:           "sarah.dev@email.com",
			Name:            "Sarah Johnson",
			AccountType:     &seller,
			Verified:        true,
			NeedsOnboarding: &done,
			CreatedAt:       time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		"buyer@company.com": {
			ID:              "2",
			Email:           "buyer@company.com",
			Name:            "Mike Chen",
			AccountType:     &buyer,
			Company:         &company,
			Verified:        true,
			NeedsOnboarding: &done,
			CreatedAt:       time.Date(2023, 6, 20, 0, 0, 0, 0, time.UTC),
		},
	}
}

// DemoAdapter implementa SessionAdapter en memoria, sin servidor.
type DemoAdapter struct {
	sessionState
	inflight

	resolver IdentityResolver
	now      func() time.Time

	mu       sync.Mutex
	accounts map[string]authclient.UserRecord
}

func NewDemoAdapter(resolver IdentityResolver) *DemoAdapter {
	if resolver == nil {
		resolver = StaticResolver{}
	}
	return &DemoAdapter{
		resolver: resolver,
		now:      func() time.Time { return time.Now().UTC() },
		accounts: make(map[string]authclient.UserRecord),
	}
}

func (a *DemoAdapter) lookup(email string) (authclient.UserRecord, bool) {
	key := strings.ToLower(strings.TrimSpace(email))
	a.mu.Lock()
	rec, ok := a.accounts[key]
	a.mu.Unlock()
	if ok {
		return rec, true
	}
	return a.resolver.Resolve(key)
}

func (a *DemoAdapter) store(rec authclient.UserRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accounts[strings.ToLower(rec.Email)] = rec
}

func demoSession(rec authclient.UserRecord) *Session {
	return &Session{
		AccessToken:  "demo-access-" + rec.ID,
		RefreshToken: "demo-refresh-" + rec.ID,
		User:         rec,
	}
}

func (a *DemoAdapter) SignInWithPassword(_ context.Context, email, password string) (*Session, error) {
	defer a.start(ActionSignIn)()
	rec, ok := a.lookup(email)
	if !ok || password == "" {
		return nil, newAuthError(ErrInvalidCredentials, "Invalid credentials")
	}
	sess := demoSession(rec)
	a.publish(sess)
	return sess, nil
}

func (a *DemoAdapter) SignUp(_ context.Context, input SignUpInput) (*Session, error) {
	defer a.start(ActionSignUp)()
	if errs := validateCredentials(input.Email, input.Password); errs != nil {
		return nil, errs
	}
	if _, taken := a.lookup(input.Email); taken {
		return nil, newAuthError(ErrEmailTaken, "")
	}
	pending := true
	rec := authclient.UserRecord{
		ID:              uuid.NewString(),
		Email:           strings.ToLower(strings.TrimSpace(input.Email)),
		NeedsOnboarding: &pending,
		CreatedAt:       a.now(),
	}
	a.store(rec)
	sess := demoSession(rec)
	a.publish(sess)
	return sess, nil
}

// SignInWithProvider simula el redirect: la sesion federada llega despues por Subscribe.
func (a *DemoAdapter) SignInWithProvider(_ context.Context, provider string) (string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "", newAuthError(ErrRejected, "provider is required")
	}
	done := a.start(ActionProvider)
	email := "demo." + provider + "@majji.dev"
	go func() {
		defer done()
		rec, ok := a.lookup(email)
		if !ok {
			pending := true
			rec = authclient.UserRecord{
				ID:              uuid.NewString(),
				Email:           email,
				EmailVerified:   true,
				NeedsOnboarding: &pending,
				CreatedAt:       a.now(),
			}
			a.store(rec)
		}
		a.publish(demoSession(rec))
	}()
	return "demo://oauth/" + provider, nil
}

func (a *DemoAdapter) SignOut(context.Context) error {
	a.publish(nil)
	return nil
}

func (a *DemoAdapter) UpdateProfile(_ context.Context, update ProfileUpdate) (authclient.UserRecord, error) {
	defer a.start(ActionUpdateProfile)()
	sess := a.CurrentSession()
	if sess == nil {
		return authclient.UserRecord{}, newAuthError(ErrUnauthorized, "")
	}
	rec := sess.User
	if update.Name != nil {
		rec.Name = strings.TrimSpace(*update.Name)
	}
	if update.AccountType != nil {
		if rec.AccountType != nil && *rec.AccountType != string(*update.AccountType) {
			return authclient.UserRecord{}, newAuthError(ErrRejected, "account type already set")
		}
		t := string(*update.AccountType)
		rec.AccountType = &t
	}
	if update.Company != nil {
		company := strings.TrimSpace(*update.Company)
		rec.Company = &company
	}
	if update.NeedsOnboarding != nil {
		v := *update.NeedsOnboarding
		rec.NeedsOnboarding = &v
	}
	a.store(rec)
	next := *sess
	next.User = rec
	a.replace(sess, &next)
	return rec, nil
}
