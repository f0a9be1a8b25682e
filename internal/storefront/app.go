package storefront

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// App conecta adaptador, sincronizador, navegador y asistente. Todo el estado se
// muta bajo mu; las llamadas al adaptador se hacen siempre sin mu tomado porque
// sus notificaciones vuelven a entrar por Bind.
type App struct {
	mu         sync.Mutex
	adapter    SessionAdapter
	users      *Synchronizer
	nav        *Navigator
	onboarding *Onboarding
	logger     *zap.Logger

	userID      string
	unsubscribe func()
}

func NewApp(adapter SessionAdapter, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	users := NewSynchronizer()
	nav := NewNavigator()
	a := &App{
		adapter:    adapter,
		users:      users,
		nav:        nav,
		onboarding: NewOnboarding(adapter, users, nav),
		logger:     logger,
	}
	users.OnChange(a.onUserChange)

	a.mu.Lock()
	users.Apply(adapter.CurrentSession())
	a.mu.Unlock()
	a.unsubscribe = users.Bind(adapter, &a.mu)
	return a
}

// onUserChange corre con mu tomado.
func (a *App) onUserChange(u *User) {
	prevID := a.userID
	before := a.nav.State().CurrentView
	a.nav.SetUser(u)

	if u == nil {
		a.userID = ""
		a.onboarding.Reset()
		return
	}
	a.userID = u.ID
	if u.ID != prevID {
		a.onboarding.Reset()
		a.logger.Info("session user changed", zap.String("user_id", u.ID), zap.Bool("needs_onboarding", u.NeedsOnboarding))
	}
	if u.NeedsOnboarding {
		a.onboarding.Prefill(u.Name, u.AccountType, u.Company)
	}
	if prevID == "" && before == ViewAuth && a.nav.State().CurrentView == ViewAuth {
		_, _ = a.nav.Navigate(ViewDashboard)
	}
}

// Busy reporta si la accion tiene una operacion en vuelo en el adaptador.
func (a *App) Busy(action string) bool {
	if b, ok := a.adapter.(interface{ Busy(string) bool }); ok {
		return b.Busy(action)
	}
	return false
}

func (a *App) User() *User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.users.User()
}

func (a *App) State() NavigationState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav.State()
}

// Page renderiza la vista actual.
func (a *App) Page() Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Render(a.nav.State(), a.users.User())
}

func (a *App) Navigate(dest Destination) (NavigationState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav.Navigate(dest)
}

func (a *App) NavigateString(id string) (NavigationState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav.NavigateString(id)
}

// SignIn autentica con email y contraseña y lleva al dashboard.
func (a *App) SignIn(ctx context.Context, email, password string) error {
	if _, err := a.adapter.SignInWithPassword(ctx, email, password); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := a.nav.Navigate(ViewDashboard)
	return err
}

// SignUp crea la cuenta; nombre, tipo y empresa quedan como sugerencias del onboarding.
func (a *App) SignUp(ctx context.Context, input SignUpInput) error {
	if _, err := a.adapter.SignUp(ctx, input); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onboarding.Prefill(input.Name, input.AccountType, input.Company)
	_, err := a.nav.Navigate(ViewDashboard)
	return err
}

// SignInWithProvider devuelve la URL a abrir; la sesion llega por suscripcion.
func (a *App) SignInWithProvider(ctx context.Context, provider string) (string, error) {
	return a.adapter.SignInWithProvider(ctx, provider)
}

// SignOut cierra la sesion local siempre y vuelve al inicio.
func (a *App) SignOut(ctx context.Context) error {
	if err := a.adapter.SignOut(ctx); err != nil {
		a.logger.Warn("sign-out failed", zap.Error(err))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := a.nav.Navigate(ViewHome)
	return err
}

// WithOnboarding ejecuta fn sobre el asistente con el estado bloqueado.
func (a *App) WithOnboarding(fn func(o *Onboarding) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn(a.onboarding)
}

// ConfirmOnboarding envia el resumen. La llamada remota se hace sin mu tomado.
func (a *App) ConfirmOnboarding(ctx context.Context) error {
	a.mu.Lock()
	update, err := a.onboarding.prepare()
	a.mu.Unlock()
	if err != nil {
		return err
	}

	rec, err := a.adapter.UpdateProfile(ctx, update)

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.onboarding.finish(rec, err)
}

// Close corta la suscripcion al adaptador.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}
