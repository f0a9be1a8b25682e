package storefront

import (
	"sync"
	"time"

	"majji-market/internal/authclient"
)

// AccountType indica si el usuario vende o compra; vacio hasta completar el onboarding.
type AccountType string

const (
	AccountTypeSeller AccountType = "seller"
	AccountTypeBuyer  AccountType = "buyer"
)

func (t AccountType) Valid() bool {
	return t == AccountTypeSeller || t == AccountTypeBuyer
}

// User es el usuario canonico de la tienda, derivado del registro del proveedor.
type User struct {
	ID              string
	Email           string
	Name            string
	AccountType     AccountType
	Company         string
	Verified        bool
	NeedsOnboarding bool
	JoinedDate      time.Time
}

// userFromRecord mapea el registro crudo. Un registro sin needs_onboarding o sin
// tipo de cuenta se considera pendiente de onboarding.
func userFromRecord(rec authclient.UserRecord) User {
	u := User{
		ID:              rec.ID,
		Email:           rec.Email,
		Name:            rec.Name,
		Verified:        rec.Verified || rec.EmailVerified,
		NeedsOnboarding: true,
	}
	if rec.AccountType != nil {
		u.AccountType = AccountType(*rec.AccountType)
	}
	if rec.Company != nil {
		u.Company = *rec.Company
	}
	if rec.NeedsOnboarding != nil && u.AccountType.Valid() {
		u.NeedsOnboarding = *rec.NeedsOnboarding
	}
	if !rec.CreatedAt.IsZero() {
		u.JoinedDate = truncateDate(rec.CreatedAt)
	}
	return u
}

func truncateDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Synchronizer mantiene el User canonico a partir de los cambios de sesion.
// No es seguro para uso concurrente; App lo protege con su mutex.
type Synchronizer struct {
	user      *User
	listeners []func(*User)
	now       func() time.Time
}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{now: func() time.Time { return time.Now().UTC() }}
}

// Bind suscribe el sincronizador al adaptador. Cada notificacion se aplica con
// lock tomado, en el orden en que llega.
func (s *Synchronizer) Bind(adapter SessionAdapter, lock sync.Locker) (unsubscribe func()) {
	return adapter.Subscribe(func(sess *Session) {
		lock.Lock()
		defer lock.Unlock()
		s.Apply(sess)
	})
}

// OnChange registra un listener que recibe el usuario tras cada cambio.
func (s *Synchronizer) OnChange(fn func(*User)) {
	s.listeners = append(s.listeners, fn)
}

// User devuelve una copia del usuario actual, o nil sin sesion.
func (s *Synchronizer) User() *User {
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Apply recalcula el usuario para la sesion dada.
func (s *Synchronizer) Apply(sess *Session) {
	if sess == nil {
		s.set(nil)
		return
	}
	u := userFromRecord(sess.User)
	s.keepJoinedDate(&u)
	s.set(&u)
}

// MarkOnboarded aplica el resultado de un update de perfil exitoso de forma optimista.
func (s *Synchronizer) MarkOnboarded(rec authclient.UserRecord) {
	if s.user == nil {
		return
	}
	u := *s.user
	if rec.ID != "" && rec.ID == u.ID {
		u = userFromRecord(rec)
		s.keepJoinedDate(&u)
	}
	u.NeedsOnboarding = false
	s.set(&u)
}

func (s *Synchronizer) keepJoinedDate(u *User) {
	switch {
	case s.user != nil && s.user.ID == u.ID && !s.user.JoinedDate.IsZero():
		u.JoinedDate = s.user.JoinedDate
	case u.JoinedDate.IsZero():
		u.JoinedDate = truncateDate(s.now())
	}
}

func (s *Synchronizer) set(u *User) {
	s.user = u
	for _, fn := range s.listeners {
		fn(s.User())
	}
}
