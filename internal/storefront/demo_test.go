package storefront

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDemoAdapter_SignIn(t *testing.T) {
	a := NewDemoAdapter(DemoAccounts())

	sess, err := a.SignInWithPassword(context.Background(), "Sarah.Dev@email.com", "anything")
	require.NoError(t, err)
	require.Equal(t, "Sarah Johnson", sess.User.Name)
	require.Same(t, sess, a.CurrentSession())

	_, err = a.SignInWithPassword(context.Background(), "ghost@example.com", "x")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, "Invalid credentials", err.Error())
}

func TestDemoAdapter_SignUp(t *testing.T) {
	a := NewDemoAdapter(DemoAccounts())
	ctx := context.Background()

	_, err := a.SignUp(ctx, SignUpInput{Email: "buyer@company.com", Password: "password123"})
	require.ErrorIs(t, err, ErrEmailTaken)

	sess, err := a.SignUp(ctx, SignUpInput{Email: "new@example.com", Password: "password123", Name: "Ignored"})
	require.NoError(t, err)
	require.Empty(t, sess.User.Name)
	require.True(t, userFromRecord(sess.User).NeedsOnboarding)

	_, err = a.SignUp(ctx, SignUpInput{Email: "NEW@example.com", Password: "password123"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestDemoAdapter_ProviderPublishesAsynchronously(t *testing.T) {
	a := NewDemoAdapter(nil)
	got := make(chan *Session, 1)
	a.Subscribe(func(s *Session) { got <- s })

	url, err := a.SignInWithProvider(context.Background(), "Google")
	require.NoError(t, err)
	require.Equal(t, "demo://oauth/google", url)

	select {
	case s := <-got:
		require.Equal(t, "demo.google@majji.dev", s.User.Email)
		require.True(t, s.User.EmailVerified)
	case <-time.After(time.Second):
		t.Fatal("provider session never arrived")
	}
	require.Eventually(t, func() bool { return !a.Busy(ActionProvider) }, time.Second, time.Millisecond)
}

func TestDemoAdapter_UpdateProfile(t *testing.T) {
	a := NewDemoAdapter(DemoAccounts())
	ctx := context.Background()

	_, err := a.UpdateProfile(ctx, ProfileUpdate{})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = a.SignInWithPassword(ctx, "sarah.dev@email.com", "x")
	require.NoError(t, err)

	buyer := AccountTypeBuyer
	_, err = a.UpdateProfile(ctx, ProfileUpdate{AccountType: &buyer})
	require.ErrorIs(t, err, ErrRejected)

	name := " Sarah J. "
	rec, err := a.UpdateProfile(ctx, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Sarah J.", rec.Name)
	require.Equal(t, "Sarah J.", a.CurrentSession().User.Name)

	require.NoError(t, a.SignOut(ctx))
	sess, err := a.SignInWithPassword(ctx, "sarah.dev@email.com", "x")
	require.NoError(t, err)
	require.Equal(t, "Sarah J.", sess.User.Name)
}
