package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/panelkeeper/internal/client/client"
	"github.com/dmitrijs2005/panelkeeper/internal/client/diagnostics"
	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/client/session"
	"github.com/dmitrijs2005/panelkeeper/internal/logging"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLoginTimeout = 30 * time.Second
	DefaultAlertDelay   = time.Second

	syncProgressTitle = "Users"
)

// CredentialStore is the persistence the login flow needs.
type CredentialStore interface {
	Save(ctx context.Context, c models.Credentials) error
	ForgetPassword(ctx context.Context) error
	LastPanel(ctx context.Context, email, server string) (string, error)
	SetLastPanel(ctx context.Context, email, server string, panelID int64) error
	Theme(ctx context.Context) (string, error)
	SetTheme(ctx context.Context, theme string) error
	Preferences(ctx context.Context, panelID int64, userID string) (models.CodePreferences, error)
	RememberedCode(ctx context.Context, panelID int64, userID string) (*models.RememberedCode, error)
	SetRememberedCode(ctx context.Context, code models.RememberedCode) error
	ClearRememberedCode(ctx context.Context, panelID int64, userID string) error
}

type Reachability interface {
	Connected(ctx context.Context) bool
}

type PushTokenProvider interface {
	PushTokens(ctx context.Context) (models.PushTokens, error)
}

type LocaleProvider interface {
	Locale(ctx context.Context) (string, error)
}

// LoginUI is the login screen as seen by the flow.
type LoginUI interface {
	// SetBusy disables (true) or re-enables (false) the login control.
	SetBusy(busy bool)
	Progress(title string, fraction float64, visible bool)
	Alert(msg string)
}

// Navigator receives control when the flow leaves the login screen.
type Navigator interface {
	Home(ctx context.Context, sess models.SessionToken, panel models.PanelSummary, status models.PanelStatus)
	Upgrade(ctx context.Context, sess models.SessionToken, panel models.PanelSummary, status models.PanelStatus)
	SelectPanel(ctx context.Context, panels []models.PanelSummary)
	Account(ctx context.Context)
}

type TriggerKind int

const (
	TriggerManual TriggerKind = iota
	TriggerBiometric
)

func (k TriggerKind) String() string {
	if k == TriggerBiometric {
		return "biometric"
	}
	return "manual"
}

// Trigger starts a login attempt. PanelID, when set, is an explicit panel
// choice and overrides the remembered panel and ForceSelect.
type Trigger struct {
	Kind        TriggerKind
	Code        string
	PanelID     int64
	ForceSelect bool
}

// Result describes where an attempt stopped.
type Result struct {
	State   State
	Err     error
	Message string

	Panel  *models.PanelSummary
	Panels []models.PanelSummary
	Status *models.PanelStatus

	Trace []State
}

type EstablisherConfig struct {
	AppSlug      string
	LoginTimeout time.Duration
	AlertDelay   time.Duration
}

type EstablisherDeps struct {
	Client      client.Client
	Store       CredentialStore
	Session     *session.Holder
	Resolver    *Resolver
	Prober      *Prober
	Syncer      *Syncer
	Reach       Reachability
	Push        PushTokenProvider
	Locale      LocaleProvider
	UI          LoginUI
	Nav         Navigator
	Diagnostics diagnostics.Collector
	Logger      logging.Logger
	Config      EstablisherConfig
}

// Establisher runs the session establishment flow. One attempt runs at a
// time; a concurrent Establish returns ErrBusy without touching the UI.
type Establisher struct {
	EstablisherDeps

	running atomic.Bool

	mu         sync.Mutex
	cancelSync context.CancelFunc
}

func NewEstablisher(d EstablisherDeps) *Establisher {
	if d.Config.LoginTimeout <= 0 {
		d.Config.LoginTimeout = DefaultLoginTimeout
	}
	if d.Config.AlertDelay <= 0 {
		d.Config.AlertDelay = DefaultAlertDelay
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Diagnostics == nil {
		d.Diagnostics = diagnostics.NewLogCollector(d.Logger)
	}
	return &Establisher{EstablisherDeps: d}
}

// attempt is the state of one Establish call. Nothing in it outlives the
// call.
type attempt struct {
	creds   models.Credentials
	trigger Trigger

	tokens models.PushTokens
	locale string

	res    Resolution
	panel  models.PanelSummary
	status models.PanelStatus

	probed          bool
	err             error
	delayAlert      bool
	accountRedirect bool
}

// Establish runs the flow for creds until it reaches a terminal state.
func (e *Establisher) Establish(ctx context.Context, creds models.Credentials, t Trigger) Result {
	if !e.running.CompareAndSwap(false, true) {
		return Result{State: StateFailed, Err: ErrBusy, Message: UserMessage(ErrBusy)}
	}
	defer e.running.Store(false)

	log := e.Logger.With("email", creds.Email, "trigger", t.Kind.String())
	e.UI.SetBusy(true)

	a := &attempt{creds: creds, trigger: t}
	var trace []State

	state := StateCheckConnectivity
	for !state.Terminal() {
		trace = append(trace, state)
		log.Debug(ctx, "login step", "state", state.String())

		o, err := e.step(ctx, a, state)
		if err != nil {
			a.err = err
			o = OutcomeFailed
		}
		state = transition(state, o)
	}
	trace = append(trace, state)

	res := Result{State: state, Trace: trace}
	switch state {
	case StateDone:
		p, st := a.panel, a.status
		res.Panel, res.Status = &p, &st
		sess, _ := e.Session.Current()
		e.Nav.Home(ctx, sess, a.panel, a.status)
		e.UI.SetBusy(false)
		log.Info(ctx, "login complete", "panel_id", a.panel.ID)

	case StateSelectionRequired:
		res.Panels = a.res.Panels
		e.Nav.SelectPanel(ctx, a.res.Panels)
		e.UI.SetBusy(false)
		log.Info(ctx, "panel selection required", "panels", len(a.res.Panels))

	case StateUpgradeRequired:
		p, st := a.panel, a.status
		res.Panel, res.Status = &p, &st
		e.UI.SetBusy(false)
		sess, _ := e.Session.Current()
		e.Nav.Upgrade(ctx, sess, a.panel, a.status)
		log.Info(ctx, "panel upgrade required", "panel_id", a.panel.ID)

	case StateFailed:
		if a.panel.ID != 0 {
			p := a.panel
			res.Panel = &p
		}
		if a.probed {
			st := a.status
			res.Status = &st
		}
		res.Err = a.err
		res.Message = UserMessage(a.err)
		e.fail(ctx, log, a, res.Message)
	}
	return res
}

// CancelSync cancels a user sync in progress. It reports whether there was
// one to cancel.
func (e *Establisher) CancelSync() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancelSync == nil {
		return false
	}
	e.cancelSync()
	return true
}

// Logout drops the current session and the saved password.
func (e *Establisher) Logout(ctx context.Context) error {
	e.Session.Clear()
	e.Diagnostics.SetUser(ctx, nil)
	return e.Store.ForgetPassword(ctx)
}

func (e *Establisher) fail(ctx context.Context, log logging.Logger, a *attempt, msg string) {
	e.UI.Progress("", 0, false)
	e.UI.SetBusy(false)

	log.Warn(ctx, "login failed", "error", a.err)
	if !expected(a.err) {
		e.Diagnostics.Capture(ctx, a.err, "login: unexpected error")
	}

	switch {
	case errors.Is(a.err, ErrCancelled):
	case a.delayAlert:
		time.AfterFunc(e.Config.AlertDelay, func() { e.UI.Alert(msg) })
	default:
		e.UI.Alert(msg)
	}

	if a.accountRedirect {
		e.Nav.Account(ctx)
	}
}

func (e *Establisher) step(ctx context.Context, a *attempt, s State) (Outcome, error) {
	switch s {
	case StateCheckConnectivity:
		return e.checkConnectivity(ctx, a)
	case StateAuthenticate:
		return e.authenticate(ctx, a)
	case StateRegisterPush:
		return e.registerPush(ctx, a)
	case StateResolvePanel:
		return e.resolvePanel(ctx, a)
	case StateValidateCode:
		if !ValidateCode(a.trigger.Code) {
			return OutcomeFailed, ErrInvalidCode
		}
		return OutcomeOK, nil
	case StateRememberCode:
		e.rememberCode(ctx, a)
		return OutcomeOK, nil
	case StateSyncIfNeeded:
		return e.syncIfNeeded(ctx, a)
	case StateSetCode:
		return e.setCode(ctx, a)
	case StateProbeStatus:
		return e.probeStatus(ctx, a)
	case StateFinalizeLogin:
		return e.finalizeLogin(ctx, a)
	}
	return OutcomeFailed, fmt.Errorf("no step for state %s", s)
}

func (e *Establisher) checkConnectivity(ctx context.Context, a *attempt) (Outcome, error) {
	if !e.Reach.Connected(ctx) {
		return OutcomeFailed, ErrNoConnectivity
	}
	if a.creds.Server == "" {
		return OutcomeFailed, ErrNotConfigured
	}
	if a.creds.Email == "" || a.creds.Password == "" {
		return OutcomeFailed, ErrMissingCredentials
	}
	e.Diagnostics.SetUser(ctx, map[string]string{
		"email":  a.creds.Email,
		"server": a.creds.Server,
		"state":  "Not authenticated",
	})
	return OutcomeOK, nil
}

// gatherDeviceInfo fetches push tokens and locale concurrently. Missing
// values are reported but never fail the login.
func (e *Establisher) gatherDeviceInfo(ctx context.Context, a *attempt) {
	var pushErr, localeErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.tokens, pushErr = e.Push.PushTokens(gctx)
		return nil
	})
	g.Go(func() error {
		a.locale, localeErr = e.Locale.Locale(gctx)
		return nil
	})
	_ = g.Wait()

	if a.tokens.Expo == "" || a.tokens.Device == "" || a.locale == "" {
		e.Diagnostics.Capture(ctx, errors.Join(pushErr, localeErr),
			fmt.Sprintf("login: incomplete device info (push=%t device=%t locale=%q)",
				a.tokens.Expo != "", a.tokens.Device != "", a.locale))
	}
}

func (e *Establisher) authenticate(ctx context.Context, a *attempt) (Outcome, error) {
	e.gatherDeviceInfo(ctx, a)

	theme, err := e.Store.Theme(ctx)
	if err != nil {
		e.Logger.Warn(ctx, "cached theme unavailable", "error", err)
	}

	// Unauthenticated placeholder: carries the cached theme until a token
	// is issued.
	e.Session.Replace(models.SessionToken{
		Email:  a.creds.Email,
		Server: a.creds.Server,
		Theme:  theme,
		Access: map[string]bool{},
	})

	authCtx, cancel := context.WithTimeout(ctx, e.Config.LoginTimeout)
	defer cancel()

	resp, err := e.Client.Authenticate(authCtx, a.creds.Server, models.AuthRequest{
		Username:     a.creds.Email,
		Password:     a.creds.Password,
		App:          e.Config.AppSlug,
		PushToken:    a.tokens.Expo,
		DeviceToken:  a.tokens.Device,
		DeviceLocale: a.locale,
	})
	switch {
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrRejected):
		e.Session.Clear()
		a.accountRedirect = true
		return OutcomeFailed, fmt.Errorf("%w: %w", ErrAuthRejected, err)
	case errors.Is(err, client.ErrUnavailable):
		return OutcomeFailed, fmt.Errorf("%w: %w", ErrServerUnavailable, err)
	case err != nil:
		return OutcomeFailed, err
	}

	if resp.Theme != "" && resp.Theme != theme {
		theme = resp.Theme
		if err := e.Store.SetTheme(ctx, theme); err != nil {
			e.Logger.Warn(ctx, "failed to cache theme", "error", err)
		}
	}

	e.Session.Replace(models.SessionToken{
		Email:     a.creds.Email,
		Server:    a.creds.Server,
		Token:     resp.Token,
		Theme:     theme,
		PushToken: a.tokens.Expo,
		Access:    map[string]bool{},
		ExpiresAt: session.TokenExpiry(resp.Token),
	})

	if err := e.Store.Save(ctx, a.creds); err != nil {
		e.Logger.Warn(ctx, "failed to save credentials", "error", err)
	}

	e.Diagnostics.SetUser(ctx, map[string]string{
		"email":  a.creds.Email,
		"server": a.creds.Server,
		"state":  "Authenticated",
	})
	return OutcomeOK, nil
}

// registerPush only reads the session. The push token was sent with the
// authenticate request and committed with the session token.
func (e *Establisher) registerPush(ctx context.Context, a *attempt) (Outcome, error) {
	if a.tokens.Expo == "" {
		e.Logger.Debug(ctx, "no push token to register")
		return OutcomeOK, nil
	}
	if sess, ok := e.Session.Current(); !ok || sess.PushToken != a.tokens.Expo {
		e.Logger.Warn(ctx, "session does not carry the registered push token")
	}
	return OutcomeOK, nil
}

func (e *Establisher) endpoint() models.Endpoint {
	sess, _ := e.Session.Current()
	return sess.Endpoint()
}

func (e *Establisher) resolvePanel(ctx context.Context, a *attempt) (Outcome, error) {
	lastPanel := ""
	forceSelect := a.trigger.ForceSelect
	if a.trigger.PanelID != 0 {
		lastPanel = strconv.FormatInt(a.trigger.PanelID, 10)
		forceSelect = false
	} else {
		var err error
		lastPanel, err = e.Store.LastPanel(ctx, a.creds.Email, a.creds.Server)
		if err != nil {
			e.Logger.Warn(ctx, "last panel unavailable", "error", err)
		}
	}

	res, err := e.Resolver.Resolve(ctx, e.endpoint(), lastPanel, forceSelect)
	if err != nil {
		return OutcomeFailed, err
	}
	a.res = res
	if res.SelectionRequired {
		return OutcomeSelectionRequired, nil
	}
	a.panel = *res.Panel
	return OutcomeOK, nil
}

// rememberCode stores or clears the code for (panel, user) according to the
// user's preferences. Failures are logged only.
func (e *Establisher) rememberCode(ctx context.Context, a *attempt) {
	userID := a.creds.Email
	prefs, err := e.Store.Preferences(ctx, a.panel.ID, userID)
	if err != nil {
		e.Logger.Warn(ctx, "code preferences unavailable", "panel_id", a.panel.ID, "error", err)
		return
	}

	if prefs.Any() {
		err = e.Store.SetRememberedCode(ctx, models.RememberedCode{
			PanelID:    a.panel.ID,
			UserID:     userID,
			Pin:        a.trigger.Code,
			RememberMe: prefs.RememberMe,
			Biometric:  prefs.Biometric,
		})
	} else {
		err = e.Store.ClearRememberedCode(ctx, a.panel.ID, userID)
	}
	if err != nil {
		e.Logger.Warn(ctx, "failed to update remembered code", "panel_id", a.panel.ID, "error", err)
	}
}

func (e *Establisher) syncIfNeeded(ctx context.Context, a *attempt) (Outcome, error) {
	if a.panel.AppSync {
		return OutcomeOK, nil
	}

	syncCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancelSync = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.cancelSync = nil
		e.mu.Unlock()
		cancel()
	}()

	err := e.Syncer.Sync(syncCtx, e.endpoint(), a.panel.ID, func(f float64) {
		e.UI.Progress(syncProgressTitle, f, true)
	})
	e.UI.Progress("", 0, false)

	switch {
	case errors.Is(err, ErrCancelled):
		return OutcomeFailed, err
	case err != nil:
		a.delayAlert = true
		e.Diagnostics.Capture(ctx, err, "login: failed to sync users")
		return OutcomeFailed, err
	}
	return OutcomeOK, nil
}

func (e *Establisher) setCode(ctx context.Context, a *attempt) (Outcome, error) {
	err := e.Client.SetCode(ctx, e.endpoint(), a.panel.ID, a.trigger.Code)
	switch {
	case err == nil:
		return OutcomeOK, nil
	case errors.Is(err, client.ErrRejected), errors.Is(err, client.ErrUnauthorized):
		return OutcomeFailed, fmt.Errorf("%w: %w", ErrCodeRejected, err)
	case errors.Is(err, client.ErrUnavailable):
		return OutcomeFailed, fmt.Errorf("%w: %w", ErrServerUnavailable, err)
	}
	return OutcomeFailed, err
}

func (e *Establisher) probeStatus(ctx context.Context, a *attempt) (Outcome, error) {
	a.status = e.Prober.Probe(ctx, e.endpoint(), a.panel)
	a.probed = true
	if !a.status.Reachable {
		return OutcomeFailed, ErrUnreachable
	}
	if a.status.NeedsUpgrade && a.panel.CanUpgradeFirmware() {
		return OutcomeUpgradeRequired, nil
	}
	return OutcomeOK, nil
}

func (e *Establisher) finalizeLogin(ctx context.Context, a *attempt) (Outcome, error) {
	resp, err := e.Client.PanelLogin(ctx, e.endpoint(), a.panel.ID)
	if err != nil {
		if errors.Is(err, client.ErrMalformedResponse) {
			return OutcomeFailed, err
		}
		return OutcomeFailed, fmt.Errorf("%w: %w", ErrLoginRejected, err)
	}
	if resp.Response != models.ResponseResult {
		return OutcomeFailed, fmt.Errorf("%w: response %q", ErrLoginRejected, resp.Response)
	}

	attached := e.Session.Update(func(s *models.SessionToken) {
		s.PanelID = a.panel.ID
		s.PanelName = a.panel.Name
		s.PanelCode = a.trigger.Code
		s.Access = make(map[string]bool, len(resp.Access))
		for k, v := range resp.Access {
			s.Access[k] = bool(v)
		}
	})
	if !attached {
		return OutcomeFailed, fmt.Errorf("%w: session ended during login", ErrLoginRejected)
	}

	if err := e.Store.SetLastPanel(ctx, a.creds.Email, a.creds.Server, a.panel.ID); err != nil {
		e.Logger.Warn(ctx, "failed to remember last panel", "error", err)
	}

	e.Diagnostics.SetUser(ctx, map[string]string{
		"email":    a.creds.Email,
		"server":   a.creds.Server,
		"panel_id": strconv.FormatInt(a.panel.ID, 10),
		"state":    "Logged in",
	})
	return OutcomeOK, nil
}
