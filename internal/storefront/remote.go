package storefront

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"majji-market/internal/authclient"
)

// AuthAPI es el subconjunto del servicio de identidad que usa RemoteAdapter.
type AuthAPI interface {
	SignUp(ctx context.Context, email, password string) (authclient.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (authclient.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (authclient.Tokens, error)
	SignOut(ctx context.Context, refreshToken string) error
	UpdateProfile(ctx context.Context, accessToken string, update authclient.ProfileUpdate) (authclient.UserRecord, error)
	StartOAuth(ctx context.Context, provider string) (authclient.OAuthStart, error)
	Handoff(ctx context.Context, state string) (authclient.AuthResult, error)
}

// RemoteAdapter implementa SessionAdapter contra el servicio de identidad.
type RemoteAdapter struct {
	sessionState
	inflight

	api            AuthAPI
	logger         *zap.Logger
	group          singleflight.Group
	pollInterval   time.Duration
	handoffTimeout time.Duration

	pollMu     sync.Mutex
	pollGen    int
	pollCancel context.CancelFunc
}

type RemoteOption func(*RemoteAdapter)

// WithOAuthPolling ajusta cada cuanto y hasta cuando se consulta el hand-off OAuth.
func WithOAuthPolling(interval, timeout time.Duration) RemoteOption {
	return func(a *RemoteAdapter) {
		if interval > 0 {
			a.pollInterval = interval
		}
		if timeout > 0 {
			a.handoffTimeout = timeout
		}
	}
}

func NewRemoteAdapter(api AuthAPI, logger *zap.Logger, opts ...RemoteOption) *RemoteAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &RemoteAdapter{
		api:            api,
		logger:         logger,
		pollInterval:   2 * time.Second,
		handoffTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// do ejecuta fn como unica llamada en vuelo para la accion con los mismos datos.
// Llamadas concurrentes con datos distintos no se fusionan.
func (a *RemoteAdapter) do(action string, inputs []string, fn func() (any, error)) (any, error) {
	v, err, _ := a.group.Do(flightKey(action, inputs...), func() (any, error) {
		done := a.start(action)
		defer done()
		return fn()
	})
	return v, err
}

func (a *RemoteAdapter) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, newAuthError(ErrInvalidCredentials, "")
	}
	v, err := a.do(ActionSignIn, []string{email, password}, func() (any, error) {
		res, err := a.api.SignIn(ctx, email, password)
		if err != nil {
			return nil, classify(err)
		}
		sess := sessionFromResult(res)
		a.establish(sess)
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (a *RemoteAdapter) SignUp(ctx context.Context, input SignUpInput) (*Session, error) {
	if errs := validateCredentials(input.Email, input.Password); errs != nil {
		return nil, errs
	}
	v, err := a.do(ActionSignUp, []string{strings.TrimSpace(input.Email), input.Password}, func() (any, error) {
		res, err := a.api.SignUp(ctx, strings.TrimSpace(input.Email), input.Password)
		if err != nil {
			return nil, classify(err)
		}
		sess := sessionFromResult(res)
		a.establish(sess)
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// SignInWithProvider devuelve la URL del proveedor. La sesion llega despues, cuando
// el hand-off se completa, a traves de Subscribe.
func (a *RemoteAdapter) SignInWithProvider(ctx context.Context, provider string) (string, error) {
	v, err := a.do(ActionProvider, []string{provider}, func() (any, error) {
		started, err := a.api.StartOAuth(ctx, provider)
		if err != nil {
			return "", classify(err)
		}
		a.watchHandoff(started.State)
		return started.URL, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// SignOut limpia la sesion local siempre; el revoke remoto es best-effort.
func (a *RemoteAdapter) SignOut(ctx context.Context) error {
	a.pollMu.Lock()
	a.stopPollLocked()
	sess := a.CurrentSession()
	a.publish(nil)
	a.pollMu.Unlock()

	if sess != nil && sess.RefreshToken != "" {
		if err := a.api.SignOut(ctx, sess.RefreshToken); err != nil {
			a.logger.Warn("remote sign-out failed", zap.Error(err))
		}
	}
	return nil
}

func (a *RemoteAdapter) UpdateProfile(ctx context.Context, update ProfileUpdate) (authclient.UserRecord, error) {
	body, err := json.Marshal(update.wire())
	if err != nil {
		return authclient.UserRecord{}, fmt.Errorf("encode profile update: %w", err)
	}
	v, err := a.do(ActionUpdateProfile, []string{string(body)}, func() (any, error) {
		sess := a.CurrentSession()
		if sess == nil {
			return authclient.UserRecord{}, newAuthError(ErrUnauthorized, "")
		}
		rec, err := a.api.UpdateProfile(ctx, sess.AccessToken, update.wire())
		if isUnauthorized(err) && sess.RefreshToken != "" {
			refreshed, rerr := a.refresh(ctx, sess)
			if rerr != nil {
				return authclient.UserRecord{}, rerr
			}
			sess = refreshed
			rec, err = a.api.UpdateProfile(ctx, sess.AccessToken, update.wire())
		}
		if err != nil {
			return authclient.UserRecord{}, classify(err)
		}
		next := *sess
		next.User = rec
		a.replace(sess, &next)
		return rec, nil
	})
	if err != nil {
		return authclient.UserRecord{}, err
	}
	return v.(authclient.UserRecord), nil
}

// refresh rota los tokens una vez; si el servidor los rechaza la sesion es invalida.
func (a *RemoteAdapter) refresh(ctx context.Context, sess *Session) (*Session, error) {
	tokens, err := a.api.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		if isUnauthorized(err) {
			return nil, newAuthError(ErrUnauthorized, "")
		}
		return nil, classify(err)
	}
	next := *sess
	next.AccessToken = tokens.AccessToken
	next.RefreshToken = tokens.RefreshToken
	if !a.replace(sess, &next) {
		return nil, newAuthError(ErrUnauthorized, "")
	}
	a.logger.Debug("access token refreshed", zap.String("user_id", sess.User.ID))
	return &next, nil
}

// establish publica una sesion nueva y descarta cualquier hand-off pendiente.
func (a *RemoteAdapter) establish(sess *Session) {
	a.pollMu.Lock()
	defer a.pollMu.Unlock()
	a.stopPollLocked()
	a.publish(sess)
}

func (a *RemoteAdapter) stopPollLocked() {
	a.pollGen++
	if a.pollCancel != nil {
		a.pollCancel()
		a.pollCancel = nil
	}
}

// watchHandoff consulta el hand-off en segundo plano hasta que llega la sesion o vence
// el plazo. Un nuevo login o un sign-out invalidan el sondeo en curso.
func (a *RemoteAdapter) watchHandoff(state string) {
	a.pollMu.Lock()
	a.stopPollLocked()
	gen := a.pollGen
	ctx, cancel := context.WithTimeout(context.Background(), a.handoffTimeout)
	a.pollCancel = cancel
	a.pollMu.Unlock()

	go func() {
		defer cancel()
		backoff := retry.NewConstant(a.pollInterval)
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			res, err := a.api.Handoff(ctx, state)
			if errors.Is(err, authclient.ErrHandoffPending) {
				return retry.RetryableError(err)
			}
			if err != nil {
				var apiErr *authclient.APIError
				if errors.As(err, &apiErr) {
					return fmt.Errorf("oauth handoff: %w", err)
				}
				return retry.RetryableError(err)
			}

			a.pollMu.Lock()
			defer a.pollMu.Unlock()
			if gen != a.pollGen {
				return nil
			}
			a.pollCancel = nil
			a.publish(sessionFromResult(res))
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Info("oauth sign-in not completed", zap.Error(err))
		}
	}()
}

// flightKey identifica una llamada por accion y por un digest de sus datos, sin
// guardar la contraseña en claro.
func flightKey(action string, inputs ...string) string {
	h := sha256.New()
	for _, in := range inputs {
		h.Write([]byte(in))
		h.Write([]byte{0})
	}
	return action + "|" + hex.EncodeToString(h.Sum(nil))
}

func isUnauthorized(err error) bool {
	var apiErr *authclient.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}

func validateCredentials(email, password string) error {
	errs := ValidationErrors{}
	if !strings.Contains(strings.TrimSpace(email), "@") {
		errs["email"] = "Please enter a valid email address"
	}
	if len(password) < 8 {
		errs["password"] = "Password must be at least 8 characters"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
