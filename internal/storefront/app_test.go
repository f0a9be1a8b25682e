package storefront

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"majji-market/internal/authclient"
)

func newTestApp(t *testing.T, api *fakeAuthAPI) *App {
	t.Helper()
	app := NewApp(newRemote(t, api), zap.NewNop())
	t.Cleanup(app.Close)
	return app
}

func TestApp_SignUpOnboardingToDashboard(t *testing.T) {
	api := seededAPI()
	app := newTestApp(t, api)
	ctx := context.Background()

	err := app.SignUp(ctx, SignUpInput{Email: "mike@techcorp.com", Password: "password123", Name: "Mike Chen", AccountType: AccountTypeBuyer, Company: "TechCorp Inc."})
	require.NoError(t, err)
	require.Equal(t, ViewOnboarding, app.State().CurrentView)
	require.True(t, app.User().NeedsOnboarding)

	state, err := app.Navigate(NavRequest{View: ViewBrowse, SearchTerm: "cms"})
	require.NoError(t, err)
	require.Equal(t, NavigationState{CurrentView: ViewOnboarding}, state)

	require.NoError(t, app.WithOnboarding(func(o *Onboarding) error {
		d := o.Draft()
		require.Equal(t, "Mike Chen", d.Name)
		require.Equal(t, "TechCorp Inc.", d.Company)
		if err := o.Next(); err != nil {
			return err
		}
		return o.Next()
	}))

	require.NoError(t, app.ConfirmOnboarding(ctx))
	require.Equal(t, ViewDashboard, app.State().CurrentView)
	u := app.User()
	require.False(t, u.NeedsOnboarding)
	require.Equal(t, AccountTypeBuyer, u.AccountType)
	require.Equal(t, "Buyer Dashboard", app.Page().Title)

	require.False(t, *api.lastUpdate.NeedsOnboarding)
	require.Equal(t, "buyer", *api.lastUpdate.AccountType)
	require.False(t, app.Busy(ActionUpdateProfile))
}

func TestApp_ConfirmFailureKeepsOnboardingPending(t *testing.T) {
	api := seededAPI()
	app := newTestApp(t, api)
	ctx := context.Background()
	require.NoError(t, app.SignUp(ctx, SignUpInput{Email: "s@example.com", Password: "password123"}))

	require.NoError(t, app.WithOnboarding(func(o *Onboarding) error {
		o.SetName("Sam")
		if err := o.SetAccountType(AccountTypeSeller); err != nil {
			return err
		}
		if err := o.Next(); err != nil {
			return err
		}
		return o.Next()
	}))

	api.updateErr = errTransport
	err := app.ConfirmOnboarding(ctx)
	require.ErrorIs(t, err, ErrNetwork)

	require.True(t, app.User().NeedsOnboarding)
	require.Equal(t, ViewOnboarding, app.State().CurrentView)
	require.NoError(t, app.WithOnboarding(func(o *Onboarding) error {
		require.Equal(t, StepSummary, o.Step())
		require.ErrorIs(t, o.Err(), ErrNetwork)
		return nil
	}))
}

func TestApp_SignInAndSignOut(t *testing.T) {
	api := seededAPI()
	api.signOutErr = errTransport
	app := newTestApp(t, api)
	ctx := context.Background()

	state, err := app.Navigate(ViewDashboard)
	require.NoError(t, err)
	require.Equal(t, ViewAuth, state.CurrentView)
	require.Equal(t, "Sign in to your account", app.Page().Title)

	err = app.SignIn(ctx, "u1@example.com", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Nil(t, app.User())
	require.Equal(t, ViewAuth, app.State().CurrentView)

	require.NoError(t, app.SignIn(ctx, "u1@example.com", "password123"))
	require.Equal(t, ViewDashboard, app.State().CurrentView)
	require.Equal(t, "Seller Dashboard", app.Page().Title)

	_, err = app.Navigate(ViewAddProduct)
	require.NoError(t, err)

	require.NoError(t, app.SignOut(ctx))
	require.Nil(t, app.User())
	require.Equal(t, ViewHome, app.State().CurrentView)
}

func TestApp_ProviderSignInLeavesAuthPage(t *testing.T) {
	api := seededAPI()
	app := newTestApp(t, api)
	ctx := context.Background()

	_, err := app.Navigate(ViewAuth)
	require.NoError(t, err)
	url, err := app.SignInWithProvider(ctx, "google")
	require.NoError(t, err)
	require.NotEmpty(t, url)

	state, err := app.Navigate(NavRequest{View: ViewProduct, ProductID: "2"})
	require.NoError(t, err)
	require.Equal(t, "2", state.SelectedProductID)
	_, err = app.Navigate(ViewAuth)
	require.NoError(t, err)

	api.completeOAuth("st-1", onboardedRecord("g1", AccountTypeSeller))

	require.Eventually(t, func() bool {
		return app.State().CurrentView == ViewDashboard
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "g1", app.User().ID)
}

func TestApp_ProviderSignInNewUserGoesToOnboarding(t *testing.T) {
	api := seededAPI()
	app := newTestApp(t, api)

	_, err := app.Navigate(NavRequest{View: ViewBrowse, SearchTerm: "api"})
	require.NoError(t, err)
	_, err = app.SignInWithProvider(context.Background(), "google")
	require.NoError(t, err)

	api.completeOAuth("st-1", authclient.UserRecord{ID: "g2", Email: "g2@gmail.com", EmailVerified: true, NeedsOnboarding: boolPtr(true)})

	require.Eventually(t, func() bool {
		return app.State().CurrentView == ViewOnboarding
	}, time.Second, 5*time.Millisecond)
	require.True(t, app.User().Verified)
}

func TestApp_DemoAccounts(t *testing.T) {
	app := NewApp(NewDemoAdapter(DemoAccounts()), zap.NewNop())
	defer app.Close()
	ctx := context.Background()

	require.NoError(t, app.SignIn(ctx, "buyer@company.com", "demo"))
	page := app.Page()
	require.Equal(t, "Buyer Dashboard", page.Title)
	require.Contains(t, page.Body, "Company: TechCorp Inc.")
	require.Contains(t, page.Body, "Member since June 2023")

	require.NoError(t, app.SignOut(ctx))
	require.NoError(t, app.SignIn(ctx, "sarah.dev@email.com", "demo"))
	require.Equal(t, "Seller Dashboard", app.Page().Title)
}
