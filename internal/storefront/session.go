package storefront

import (
	"context"
	"sync"

	"majji-market/internal/authclient"
)

// Acciones que pueden estar en vuelo; la UI deshabilita el reenvio mientras Busy.
const (
	ActionSignIn        = "sign-in"
	ActionSignUp        = "sign-up"
	ActionProvider      = "provider"
	ActionUpdateProfile = "update-profile"
)

// Session es la prueba de autenticacion vigente junto con el registro crudo del usuario.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         authclient.UserRecord
}

type SignUpInput struct {
	Email       string
	Password    string
	Name        string
	AccountType AccountType
	Company     string
}

// ProfileUpdate es una actualizacion parcial; nil significa "sin cambio".
type ProfileUpdate struct {
	Name            *string
	AccountType     *AccountType
	Company         *string
	NeedsOnboarding *bool
}

func (u ProfileUpdate) wire() authclient.ProfileUpdate {
	out := authclient.ProfileUpdate{
		Name:            u.Name,
		Company:         u.Company,
		NeedsOnboarding: u.NeedsOnboarding,
	}
	if u.AccountType != nil {
		t := string(*u.AccountType)
		out.AccountType = &t
	}
	return out
}

// SessionAdapter envuelve al proveedor de identidad. La sesion cambia de forma
// asincrona y se observa con Subscribe.
type SessionAdapter interface {
	CurrentSession() *Session
	Subscribe(fn func(*Session)) (unsubscribe func())
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignInWithProvider(ctx context.Context, provider string) (redirectURL string, err error)
	SignUp(ctx context.Context, input SignUpInput) (*Session, error)
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, update ProfileUpdate) (authclient.UserRecord, error)
}

type subscriber struct {
	id int
	fn func(*Session)
}

// sessionState guarda la sesion actual y entrega los cambios en orden de llegada.
type sessionState struct {
	notifyMu sync.Mutex
	mu       sync.Mutex
	current  *Session
	subs     []subscriber
	nextID   int
}

func (s *sessionState) CurrentSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *sessionState) Subscribe(fn func(*Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// publish reemplaza la sesion y notifica a los suscriptores. notifyMu serializa
// las entregas para que lleguen en el mismo orden en que se publicaron.
func (s *sessionState) publish(sess *Session) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.current = sess
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(sess)
	}
}

// replace actualiza la sesion sin notificar (tokens rotados, registro refrescado),
// solo si old sigue siendo la sesion vigente.
func (s *sessionState) replace(old, sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != old {
		return false
	}
	s.current = sess
	return true
}

// inflight cuenta operaciones en curso por accion.
type inflight struct {
	mu     sync.Mutex
	counts map[string]int
}

func (f *inflight) start(action string) func() {
	f.mu.Lock()
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[action]++
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.counts[action]--
		if f.counts[action] <= 0 {
			delete(f.counts, action)
		}
		f.mu.Unlock()
	}
}

// Busy reporta si hay una operacion de la accion dada en vuelo.
func (f *inflight) Busy(action string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[action] > 0
}

func sessionFromResult(res authclient.AuthResult) *Session {
	return &Session{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		User:         res.User,
	}
}
