package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/panelkeeper/internal/client/client"
	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPanels(context.Context, models.Endpoint) ([]models.PanelSummary, error) {
	return []models.PanelSummary{
		{ID: 1, Name: "Home", AppSync: true},
		{ID: 2, Name: "Shop", AppSync: true},
	}, nil
}

func TestEstablish_SinglePanelHappyPath(t *testing.T) {
	h := newHarness(t)

	res := h.login("1234")

	require.Equal(t, StateDone, res.State, "err: %v", res.Err)
	require.NoError(t, res.Err)
	assert.Equal(t, []State{
		StateCheckConnectivity, StateAuthenticate, StateRegisterPush, StateResolvePanel,
		StateValidateCode, StateRememberCode, StateSyncIfNeeded, StateSetCode,
		StateProbeStatus, StateFinalizeLogin, StateDone,
	}, res.Trace)
	require.NotNil(t, res.Panel)
	assert.Equal(t, homePanel.ID, res.Panel.ID)
	require.NotNil(t, res.Status)
	assert.True(t, res.Status.Reachable)

	assert.Equal(t, []string{"Authenticate", "Panels", "SetCode", "Ping", "PanelLogin"}, h.client.Calls())
	assert.Equal(t, models.AuthRequest{
		Username:     "a@b.c",
		Password:     "pw",
		App:          "panelkeeper",
		PushToken:    "expo",
		DeviceToken:  "dev",
		DeviceLocale: "en_GB",
	}, h.client.lastAuth)

	// Navigation happens while the control is still disabled.
	assert.Equal(t, []string{"busy:true", "nav:home", "busy:false"}, h.events.All())
	assert.True(t, h.nav.busyAtHome)
	assert.False(t, h.ui.Busy())
	assert.Empty(t, h.ui.Alerts())

	sess, ok := h.holder.Current()
	require.True(t, ok)
	assert.True(t, sess.LoggedIn())
	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, "expo", sess.PushToken)
	assert.Equal(t, homePanel.ID, sess.PanelID)
	assert.Equal(t, "1234", sess.PanelCode)
	assert.Equal(t, map[string]bool{"arm": true}, sess.Access)
	assert.Equal(t, sess, h.nav.homeSession)

	ctx := context.Background()
	assert.Equal(t, testCreds, h.store.Load(ctx))
	last, err := h.store.LastPanel(ctx, testCreds.Email, testCreds.Server)
	require.NoError(t, err)
	assert.Equal(t, "11", last)
}

func TestEstablish_ThemeFromServerIsCached(t *testing.T) {
	h := newHarness(t)
	h.client.authFn = func(context.Context, string, models.AuthRequest) (*models.AuthResponse, error) {
		return &models.AuthResponse{Token: "tok", Theme: "dark"}, nil
	}

	require.Equal(t, StateDone, h.login("1234").State)

	theme, err := h.store.Theme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)
	sess, _ := h.holder.Current()
	assert.Equal(t, "dark", sess.Theme)
}

func TestEstablish_SelectionThenExplicitChoice(t *testing.T) {
	h := newHarness(t)
	h.client.panelsFn = twoPanels

	res := h.login("1234")

	require.Equal(t, StateSelectionRequired, res.State)
	assert.Len(t, res.Panels, 2)
	assert.Equal(t, []State{
		StateCheckConnectivity, StateAuthenticate, StateRegisterPush, StateResolvePanel, StateSelectionRequired,
	}, res.Trace)
	assert.False(t, h.client.Called("SetCode"))
	assert.False(t, h.client.Called("Ping"))
	assert.Equal(t, []string{"busy:true", "nav:select", "busy:false"}, h.events.All())
	assert.Len(t, h.nav.selected, 2)
	assert.Empty(t, h.ui.Alerts())

	res = h.est.Establish(context.Background(), testCreds, Trigger{Code: "1234", PanelID: 2})

	require.Equal(t, StateDone, res.State, "err: %v", res.Err)
	sess, _ := h.holder.Current()
	assert.Equal(t, int64(2), sess.PanelID)
	assert.Equal(t, "Shop", sess.PanelName)

	// The choice is remembered for the next manual login.
	res = h.login("1234")
	require.Equal(t, StateDone, res.State)
	assert.Equal(t, int64(2), res.Panel.ID)
}

func TestEstablish_ForceSelectIgnoresRememberedPanel(t *testing.T) {
	h := newHarness(t)
	h.client.panelsFn = twoPanels
	require.NoError(t, h.store.SetLastPanel(context.Background(), testCreds.Email, testCreds.Server, 2))

	res := h.est.Establish(context.Background(), testCreds, Trigger{Code: "1234", ForceSelect: true})
	assert.Equal(t, StateSelectionRequired, res.State)

	res = h.login("1234")
	require.Equal(t, StateDone, res.State)
	assert.Equal(t, int64(2), res.Panel.ID)
}

func TestEstablish_UnreachableKeepsTokenAndRetries(t *testing.T) {
	h := newHarness(t)
	h.client.pingFn = func(context.Context, models.Endpoint, int64) (*models.PingResponse, error) {
		return nil, client.ErrUnavailable
	}

	res := h.login("1234")

	require.Equal(t, StateFailed, res.State)
	require.ErrorIs(t, res.Err, ErrUnreachable)
	assert.Equal(t, "Failed to connect to panel, please check your network connection", res.Message)
	require.NotNil(t, res.Status)
	assert.False(t, res.Status.Reachable)
	assert.False(t, h.ui.Busy())
	assert.Equal(t, []string{res.Message}, h.ui.Alerts())
	assert.False(t, h.client.Called("PanelLogin"))

	sess, ok := h.holder.Current()
	require.True(t, ok)
	assert.Equal(t, "tok", sess.Token)
	assert.False(t, sess.LoggedIn())

	h.client.pingFn = nil
	res = h.login("1234")
	require.Equal(t, StateDone, res.State, "err: %v", res.Err)
	sess, _ = h.holder.Current()
	assert.True(t, sess.LoggedIn())
}

func TestEstablish_NoConnectivity(t *testing.T) {
	h := newHarness(t)
	h.reach.Set(false)

	res := h.login("1234")

	require.ErrorIs(t, res.Err, ErrNoConnectivity)
	assert.Equal(t, "You need a valid internet connection", res.Message)
	assert.Equal(t, []State{StateCheckConnectivity, StateFailed}, res.Trace)
	assert.Empty(t, h.client.Calls())
	assert.Equal(t, []string{"busy:true", "progress:hide", "busy:false", "alert"}, h.events.All())
}

func TestEstablish_MissingConfiguration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.est.Establish(ctx, models.Credentials{Email: "a@b.c", Password: "pw"}, Trigger{Code: "1234"})
	assert.ErrorIs(t, res.Err, ErrNotConfigured)

	res = h.est.Establish(ctx, models.Credentials{Email: "a@b.c", Server: "https://x"}, Trigger{Code: "1234"})
	assert.ErrorIs(t, res.Err, ErrMissingCredentials)
	assert.Equal(t, "Please enter your username and password", res.Message)
	assert.Empty(t, h.client.Calls())
}

func TestEstablish_InvalidCode(t *testing.T) {
	h := newHarness(t)

	res := h.login("12a")

	require.ErrorIs(t, res.Err, ErrInvalidCode)
	assert.Equal(t, "Please check your Security System Code. It should be a 4, 5 or 6 digit code.", res.Message)
	assert.Equal(t, []string{"Authenticate", "Panels"}, h.client.Calls())
	require.NotNil(t, res.Panel)
	assert.Nil(t, res.Status)
}

func TestEstablish_AuthRejectedRedirectsToAccount(t *testing.T) {
	h := newHarness(t)
	h.client.authFn = func(context.Context, string, models.AuthRequest) (*models.AuthResponse, error) {
		return nil, client.ErrUnauthorized
	}

	res := h.login("1234")

	require.ErrorIs(t, res.Err, ErrAuthRejected)
	assert.Equal(t, "Failed to log in, please check your username and password", res.Message)
	assert.Equal(t, []string{"busy:true", "progress:hide", "busy:false", "alert", "nav:account"}, h.events.All())
	_, ok := h.holder.Current()
	assert.False(t, ok)
	assert.Empty(t, h.diag.Captures())
	assert.Empty(t, h.store.Load(context.Background()).Email)
}

func TestEstablish_AuthServerUnavailable(t *testing.T) {
	h := newHarness(t)
	h.client.authFn = func(context.Context, string, models.AuthRequest) (*models.AuthResponse, error) {
		return nil, client.ErrUnavailable
	}

	res := h.login("1234")

	require.ErrorIs(t, res.Err, ErrServerUnavailable)
	assert.False(t, h.events.Has("nav:account"))
}

func TestEstablish_AuthTimeout(t *testing.T) {
	h := newHarness(t)
	h.est.Config.LoginTimeout = 20 * time.Millisecond
	h.client.authFn = func(ctx context.Context, _ string, _ models.AuthRequest) (*models.AuthResponse, error) {
		<-ctx.Done()
		return nil, errors.Join(client.ErrUnavailable, ctx.Err())
	}

	res := h.login("1234")

	require.ErrorIs(t, res.Err, ErrServerUnavailable)
	require.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestEstablish_CodeRejected(t *testing.T) {
	h := newHarness(t)
	h.client.setCodeFn = func(context.Context, models.Endpoint, int64, string) error {
		return client.ErrRejected
	}

	res := h.login("1234")

	require.ErrorIs(t, res.Err, ErrCodeRejected)
	assert.Equal(t, "Please ensure your user code is correct", res.Message)
	assert.False(t, h.client.Called("Ping"))
}

func TestEstablish_RememberedCodeLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := testCreds.Email

	require.NoError(t, h.store.SetPreferences(ctx, homePanel.ID, userID, models.CodePreferences{Biometric: true}))
	require.Equal(t, StateDone, h.login("1234").State)

	code, err := h.store.RememberedCode(ctx, homePanel.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, code)
	assert.Equal(t, "1234", code.Pin)
	assert.True(t, code.Biometric)
	assert.False(t, code.RememberMe)

	require.NoError(t, h.store.SetPreferences(ctx, homePanel.ID, userID, models.CodePreferences{RememberMe: true}))
	require.Equal(t, StateDone, h.login("5678").State)

	code, err = h.store.RememberedCode(ctx, homePanel.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, code)
	assert.Equal(t, "5678", code.Pin)
	assert.True(t, code.RememberMe)

	require.NoError(t, h.store.SetPreferences(ctx, homePanel.ID, userID, models.CodePreferences{}))
	require.Equal(t, StateDone, h.login("4321").State)

	code, err = h.store.RememberedCode(ctx, homePanel.ID, userID)
	require.NoError(t, err)
	assert.Nil(t, code)
}

func TestEstablish_SyncProgress(t *testing.T) {
	h := newHarness(t)
	h.client.panelsFn = func(context.Context, models.Endpoint) ([]models.PanelSummary, error) {
		return []models.PanelSummary{{ID: 3, Name: "Office"}}, nil
	}
	h.client.syncFn = scriptedSync(models.SyncStatus{Progress: 0.5}, models.SyncStatus{Complete: true})

	res := h.login("1234")

	require.Equal(t, StateDone, res.State, "err: %v", res.Err)
	assert.Equal(t, []float64{0, 0.5, 1}, h.ui.ProgressValues())
	assert.True(t, h.events.Has("progress:hide"))
}

func TestEstablish_SyncFailureAlertsLater(t *testing.T) {
	h := newHarness(t)
	h.est.Config.AlertDelay = 200 * time.Millisecond
	h.client.panelsFn = func(context.Context, models.Endpoint) ([]models.PanelSummary, error) {
		return []models.PanelSummary{{ID: 3, Name: "Office"}}, nil
	}
	h.client.syncFn = func(context.Context, models.Endpoint, int64) (*models.SyncStatus, error) {
		return nil, client.ErrRejected
	}

	res := h.login("1234")

	require.ErrorIs(t, res.Err, ErrSyncFailed)
	assert.Equal(t, "Failed to synchronise with panel", res.Message)
	assert.False(t, h.ui.Busy())
	assert.False(t, h.client.Called("SetCode"))
	assert.Empty(t, h.ui.Alerts())

	assert.Eventually(t, func() bool { return len(h.ui.Alerts()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{res.Message}, h.ui.Alerts())

	caps := h.diag.Captures()
	require.Len(t, caps, 1)
	assert.Equal(t, "login: failed to sync users", caps[0].msg)
	assert.ErrorIs(t, caps[0].err, ErrSyncFailed)
}

func TestEstablish_SyncCancelled(t *testing.T) {
	h := newHarness(t)
	h.client.panelsFn = func(context.Context, models.Endpoint) ([]models.PanelSummary, error) {
		return []models.PanelSummary{{ID: 3, Name: "Office"}}, nil
	}
	h.client.syncFn = func(context.Context, models.Endpoint, int64) (*models.SyncStatus, error) {
		assert.True(t, h.est.CancelSync())
		return &models.SyncStatus{Progress: 0.3}, nil
	}

	res := h.login("1234")

	require.ErrorIs(t, res.Err, ErrCancelled)
	assert.Equal(t, "Cancelled", res.Message)
	assert.Equal(t, []float64{0}, h.ui.ProgressValues())
	assert.False(t, h.client.Called("SetCode"))
	assert.False(t, h.est.CancelSync())

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, h.ui.Alerts())
	assert.Empty(t, h.diag.Captures())
}

func TestEstablish_Upgrade(t *testing.T) {
	upgradePing := func(context.Context, models.Endpoint, int64) (*models.PingResponse, error) {
		return &models.PingResponse{Response: models.ResponseResult, Details: models.StatusDetails{NeedsUpgrade: true}}, nil
	}

	t.Run("with firmware right", func(t *testing.T) {
		h := newHarness(t)
		h.client.panelsFn = func(context.Context, models.Endpoint) ([]models.PanelSummary, error) {
			p := homePanel
			p.User = &models.PanelUser{ID: 1, FirmwareUpgrade: true}
			return []models.PanelSummary{p}, nil
		}
		h.client.pingFn = upgradePing

		res := h.login("1234")

		require.Equal(t, StateUpgradeRequired, res.State)
		require.NotNil(t, res.Status)
		assert.True(t, res.Status.NeedsUpgrade)
		assert.Equal(t, []string{"busy:true", "busy:false", "nav:upgrade"}, h.events.All())
		assert.False(t, h.client.Called("PanelLogin"))
	})

	t.Run("without firmware right", func(t *testing.T) {
		h := newHarness(t)
		h.client.pingFn = upgradePing

		res := h.login("1234")

		require.Equal(t, StateDone, res.State)
		assert.True(t, res.Status.NeedsUpgrade)
		assert.True(t, h.events.Has("nav:home"))
	})
}

func TestEstablish_ConcurrentCallIsBusy(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.client.authFn = func(ctx context.Context, _ string, _ models.AuthRequest) (*models.AuthResponse, error) {
		<-release
		return &models.AuthResponse{Token: "tok"}, nil
	}

	done := make(chan Result, 1)
	go func() { done <- h.login("1234") }()

	require.Eventually(t, func() bool { return h.client.Called("Authenticate") }, 2*time.Second, 5*time.Millisecond)
	before := h.events.All()

	res := h.login("1234")
	assert.ErrorIs(t, res.Err, ErrBusy)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, before, h.events.All())

	close(release)
	first := <-done
	assert.Equal(t, StateDone, first.State)
}

func TestEstablish_MalformedResponseIsCaptured(t *testing.T) {
	h := newHarness(t)
	h.client.loginFn = func(context.Context, models.Endpoint, int64) (*models.PanelLoginResponse, error) {
		return nil, client.ErrMalformedResponse
	}

	res := h.login("1234")

	require.ErrorIs(t, res.Err, client.ErrMalformedResponse)
	assert.Equal(t, GenericFailureMessage, res.Message)
	caps := h.diag.Captures()
	require.Len(t, caps, 1)
	assert.Equal(t, "login: unexpected error", caps[0].msg)
}

func TestEstablish_PanelLoginRejected(t *testing.T) {
	h := newHarness(t)
	h.client.loginFn = func(context.Context, models.Endpoint, int64) (*models.PanelLoginResponse, error) {
		return &models.PanelLoginResponse{Response: "error"}, nil
	}

	res := h.login("1234")

	require.ErrorIs(t, res.Err, ErrLoginRejected)
	sess, _ := h.holder.Current()
	assert.False(t, sess.LoggedIn())
}

func TestEstablish_IncompleteDeviceInfoStillLogsIn(t *testing.T) {
	h := newHarness(t)
	h.est.Push = fakePush{err: errors.New("no push service")}

	res := h.login("1234")

	require.Equal(t, StateDone, res.State)
	assert.Empty(t, h.client.lastAuth.PushToken)
	caps := h.diag.Captures()
	require.Len(t, caps, 1)
	assert.Contains(t, caps[0].msg, "incomplete device info")
	sess, _ := h.holder.Current()
	assert.Empty(t, sess.PushToken)
}

func TestRegisterPush_LeavesSessionUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	committed := models.SessionToken{Email: "a@b.c", Server: "https://x", Token: "tok", PushToken: "expo"}
	h.holder.Replace(committed)

	o, err := h.est.registerPush(ctx, &attempt{tokens: models.PushTokens{Expo: "other"}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, o)

	sess, ok := h.holder.Current()
	require.True(t, ok)
	assert.Equal(t, committed, sess)
}

func TestEstablish_PushTokenCommittedWithSession(t *testing.T) {
	h := newHarness(t)
	var seen models.SessionToken
	h.client.panelsFn = func(context.Context, models.Endpoint) ([]models.PanelSummary, error) {
		seen, _ = h.holder.Current()
		return []models.PanelSummary{homePanel}, nil
	}

	res := h.login("1234")

	require.Equal(t, StateDone, res.State, "err: %v", res.Err)
	assert.Equal(t, "tok", seen.Token)
	assert.Equal(t, "expo", seen.PushToken)
}

func TestEstablisher_Logout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.Equal(t, StateDone, h.login("1234").State)

	require.NoError(t, h.est.Logout(ctx))

	_, ok := h.holder.Current()
	assert.False(t, ok)
	creds := h.store.Load(ctx)
	assert.Equal(t, testCreds.Email, creds.Email)
	assert.Empty(t, creds.Password)

	res := h.est.Establish(ctx, creds, Trigger{Code: "1234"})
	assert.ErrorIs(t, res.Err, ErrMissingCredentials)
}
