package storefront

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"majji-market/internal/authclient"
)

func newRemote(t *testing.T, api *fakeAuthAPI) *RemoteAdapter {
	t.Helper()
	return NewRemoteAdapter(api, zap.NewNop(), WithOAuthPolling(5*time.Millisecond, time.Second))
}

func seededAPI() *fakeAuthAPI {
	api := newFakeAuthAPI()
	api.seed(onboardedRecord("u1", AccountTypeSeller), "password123")
	return api
}

func TestRemoteAdapter_SignInPublishesSession(t *testing.T) {
	a := newRemote(t, seededAPI())
	var got []*Session
	unsubscribe := a.Subscribe(func(s *Session) { got = append(got, s) })
	defer unsubscribe()

	sess, err := a.SignInWithPassword(context.Background(), "u1@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, "u1", sess.User.ID)
	require.Same(t, sess, a.CurrentSession())
	require.Len(t, got, 1)
	require.Same(t, sess, got[0])
}

func TestRemoteAdapter_SignInInvalidCredentials(t *testing.T) {
	a := newRemote(t, seededAPI())

	_, err := a.SignInWithPassword(context.Background(), "u1@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, "invalid credentials", err.Error())
	require.Nil(t, a.CurrentSession())

	_, err = a.SignInWithPassword(context.Background(), " ", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRemoteAdapter_SignUp(t *testing.T) {
	api := seededAPI()
	a := newRemote(t, api)

	_, err := a.SignUp(context.Background(), SignUpInput{Email: "not-an-email", Password: "short"})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.NotNil(t, verrs.Field("email"))
	require.NotNil(t, verrs.Field("password"))
	require.Len(t, api.users, 1)

	_, err = a.SignUp(context.Background(), SignUpInput{Email: "u1@example.com", Password: "password123"})
	require.ErrorIs(t, err, ErrEmailTaken)

	sess, err := a.SignUp(context.Background(), SignUpInput{Email: "new@example.com", Password: "password123", Name: "New"})
	require.NoError(t, err)
	require.True(t, *sess.User.NeedsOnboarding)
	require.Nil(t, sess.User.AccountType)
}

func TestRemoteAdapter_SignOutClearsSessionEvenWhenRemoteFails(t *testing.T) {
	api := seededAPI()
	api.signOutErr = errTransport
	a := newRemote(t, api)
	_, err := a.SignInWithPassword(context.Background(), "u1@example.com", "password123")
	require.NoError(t, err)

	last := &Session{}
	a.Subscribe(func(s *Session) { last = s })

	require.NoError(t, a.SignOut(context.Background()))
	require.Nil(t, a.CurrentSession())
	require.Nil(t, last)
	_, _, _, signOuts := api.counts()
	require.Equal(t, 1, signOuts)
	require.Equal(t, []string{"refresh-u1@example.com"}, api.revokedTokens)
}

func TestRemoteAdapter_SignOutWithoutSession(t *testing.T) {
	api := seededAPI()
	a := newRemote(t, api)

	require.NoError(t, a.SignOut(context.Background()))
	_, _, _, signOuts := api.counts()
	require.Zero(t, signOuts)
}

func TestRemoteAdapter_UpdateProfileRequiresSession(t *testing.T) {
	a := newRemote(t, seededAPI())

	_, err := a.UpdateProfile(context.Background(), ProfileUpdate{Name: strPtr("x")})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRemoteAdapter_UpdateProfileRefreshesOnce(t *testing.T) {
	api := seededAPI()
	a := newRemote(t, api)
	before, err := a.SignInWithPassword(context.Background(), "u1@example.com", "password123")
	require.NoError(t, err)

	api.mu.Lock()
	api.expireAccess = true
	api.mu.Unlock()

	rec, err := a.UpdateProfile(context.Background(), ProfileUpdate{Name: strPtr("Sarah")})
	require.NoError(t, err)
	require.Equal(t, "Sarah", rec.Name)

	_, refreshes, updates, _ := api.counts()
	require.Equal(t, 1, refreshes)
	require.Equal(t, 2, updates)

	after := a.CurrentSession()
	require.NotEqual(t, before.AccessToken, after.AccessToken)
	require.Equal(t, "Sarah", after.User.Name)
}

func TestRemoteAdapter_UpdateProfileRefreshRejected(t *testing.T) {
	api := seededAPI()
	a := newRemote(t, api)
	_, err := a.SignInWithPassword(context.Background(), "u1@example.com", "password123")
	require.NoError(t, err)

	api.mu.Lock()
	api.expireAccess = true
	delete(api.users, "u1@example.com")
	api.mu.Unlock()

	_, err = a.UpdateProfile(context.Background(), ProfileUpdate{Name: strPtr("Sarah")})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRemoteAdapter_UpdateProfileErrors(t *testing.T) {
	api := seededAPI()
	a := newRemote(t, api)
	_, err := a.SignInWithPassword(context.Background(), "u1@example.com", "password123")
	require.NoError(t, err)

	api.updateErr = errTransport
	_, err = a.UpdateProfile(context.Background(), ProfileUpdate{Name: strPtr("x")})
	require.ErrorIs(t, err, ErrNetwork)

	api.updateErr = &authclient.APIError{StatusCode: 409, Message: "account type already set"}
	_, err = a.UpdateProfile(context.Background(), ProfileUpdate{Name: strPtr("x")})
	require.ErrorIs(t, err, ErrRejected)
	require.Equal(t, "account type already set", err.Error())
}

func TestRemoteAdapter_ProviderSignInDeliversSessionLater(t *testing.T) {
	api := seededAPI()
	a := newRemote(t, api)

	url, err := a.SignInWithProvider(context.Background(), "google")
	require.NoError(t, err)
	require.Contains(t, url, "state=st-1")
	require.Nil(t, a.CurrentSession())

	federated := authclient.UserRecord{ID: "g1", Email: "g1@gmail.com", EmailVerified: true, NeedsOnboarding: boolPtr(true)}
	api.completeOAuth("st-1", federated)

	require.Eventually(t, func() bool {
		s := a.CurrentSession()
		return s != nil && s.User.ID == "g1"
	}, time.Second, 5*time.Millisecond)
}

func TestRemoteAdapter_SignOutAbandonsPendingProviderSignIn(t *testing.T) {
	api := seededAPI()
	a := newRemote(t, api)

	_, err := a.SignInWithProvider(context.Background(), "google")
	require.NoError(t, err)
	require.NoError(t, a.SignOut(context.Background()))

	api.completeOAuth("st-1", authclient.UserRecord{ID: "g1", Email: "g1@gmail.com"})

	require.Never(t, func() bool { return a.CurrentSession() != nil }, 100*time.Millisecond, 5*time.Millisecond)
}

func TestRemoteAdapter_ProviderUnknown(t *testing.T) {
	a := newRemote(t, seededAPI())

	_, err := a.SignInWithProvider(context.Background(), "github")
	require.ErrorIs(t, err, ErrRejected)
	require.False(t, a.Busy(ActionProvider))
}

func TestRemoteAdapter_DuplicateSignInSharesInflightCall(t *testing.T) {
	api := seededAPI()
	gate := make(chan struct{})
	api.signInDelay = gate
	a := newRemote(t, api)

	var wg sync.WaitGroup
	results := make([]*Session, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = a.SignInWithPassword(context.Background(), "u1@example.com", "password123")
	}()
	require.Eventually(t, func() bool { return a.Busy(ActionSignIn) }, time.Second, time.Millisecond)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = a.SignInWithPassword(context.Background(), "u1@example.com", "password123")
	}()
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	signIns, _, _, _ := api.counts()
	require.Equal(t, 1, signIns)
	require.NotNil(t, results[0])
	require.Same(t, results[0], results[1])
	require.False(t, a.Busy(ActionSignIn))
}

func TestRemoteAdapter_ConcurrentSignInWithDifferentCredentialsRunsSeparately(t *testing.T) {
	api := seededAPI()
	gate := make(chan struct{})
	api.signInDelay = gate
	a := newRemote(t, api)

	var (
		wg                sync.WaitGroup
		wrongErr, goodErr error
		good              *Session
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, wrongErr = a.SignInWithPassword(context.Background(), "u1@example.com", "wrong-password")
	}()
	require.Eventually(t, func() bool { return a.Busy(ActionSignIn) }, time.Second, time.Millisecond)
	go func() {
		defer wg.Done()
		good, goodErr = a.SignInWithPassword(context.Background(), "u1@example.com", "password123")
	}()
	require.Eventually(t, func() bool {
		signIns, _, _, _ := api.counts()
		return signIns == 2
	}, time.Second, time.Millisecond)
	close(gate)
	wg.Wait()

	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	require.NoError(t, goodErr)
	require.Equal(t, "u1", good.User.ID)
}

func TestFlightKey_DependsOnInputs(t *testing.T) {
	nameA, nameB := "A", "B"
	keyA, err := json.Marshal(ProfileUpdate{Name: &nameA}.wire())
	require.NoError(t, err)
	keyB, err := json.Marshal(ProfileUpdate{Name: &nameB}.wire())
	require.NoError(t, err)

	require.NotEqual(t, flightKey(ActionUpdateProfile, string(keyA)), flightKey(ActionUpdateProfile, string(keyB)))
	require.Equal(t, flightKey(ActionSignIn, "a@b.c", "pw"), flightKey(ActionSignIn, "a@b.c", "pw"))
	require.NotEqual(t, flightKey(ActionSignIn, "a@b.c", "pw"), flightKey(ActionSignUp, "a@b.c", "pw"))
	require.NotEqual(t, flightKey(ActionSignIn, "ab", "c"), flightKey(ActionSignIn, "a", "bc"))
	require.NotContains(t, flightKey(ActionSignIn, "a@b.c", "secret-pw"), "secret-pw")
}
