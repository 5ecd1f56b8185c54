package services

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/panelkeeper/internal/client/client"
	"github.com/dmitrijs2005/panelkeeper/internal/client/credstore"
	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/client/session"
	"github.com/dmitrijs2005/panelkeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

// ---- fake client ----

// fakeClient implements client.Client. Nil hooks behave like a healthy
// backend with a single panel.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	authFn       func(ctx context.Context, server string, req models.AuthRequest) (*models.AuthResponse, error)
	panelsFn     func(ctx context.Context, ep models.Endpoint) ([]models.PanelSummary, error)
	pingFn       func(ctx context.Context, ep models.Endpoint, panelID int64) (*models.PingResponse, error)
	setCodeFn    func(ctx context.Context, ep models.Endpoint, panelID int64, code string) error
	syncFn       func(ctx context.Context, ep models.Endpoint, panelID int64) (*models.SyncStatus, error)
	loginFn      func(ctx context.Context, ep models.Endpoint, panelID int64) (*models.PanelLoginResponse, error)
	timezonesFn  func(ctx context.Context, ep models.Endpoint) ([]string, error)
	setTZFn      func(ctx context.Context, ep models.Endpoint, panelID int64, tz string) error
	timersFn     func(ctx context.Context, ep models.Endpoint, panelID int64) ([]models.Timer, error)
	deleteFn     func(ctx context.Context, ep models.Endpoint, panelID int64, number int) error
	effectsFn    func(ctx context.Context, ep models.Endpoint, panelID int64) ([]models.Effect, error)
	helpImagesFn func(ctx context.Context, ep models.Endpoint, theme string) ([]models.ThemeImage, error)
	downloadFn   func(ctx context.Context, url string) ([]byte, error)

	lastAuth models.AuthRequest
}

var _ client.Client = (*fakeClient)(nil)

var homePanel = models.PanelSummary{ID: 11, Name: "Home", AppSync: true}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeClient) Called(name string) bool {
	return slices.Contains(f.Calls(), name)
}

func (f *fakeClient) Authenticate(ctx context.Context, server string, req models.AuthRequest) (*models.AuthResponse, error) {
	f.record("Authenticate")
	f.mu.Lock()
	f.lastAuth = req
	f.mu.Unlock()
	if f.authFn != nil {
		return f.authFn(ctx, server, req)
	}
	return &models.AuthResponse{Token: "tok"}, nil
}

func (f *fakeClient) Panels(ctx context.Context, ep models.Endpoint) ([]models.PanelSummary, error) {
	f.record("Panels")
	if ep.Token == "" {
		return nil, client.ErrUnauthorized
	}
	if f.panelsFn != nil {
		return f.panelsFn(ctx, ep)
	}
	return []models.PanelSummary{homePanel}, nil
}

func (f *fakeClient) Ping(ctx context.Context, ep models.Endpoint, panelID int64) (*models.PingResponse, error) {
	f.record("Ping")
	if f.pingFn != nil {
		return f.pingFn(ctx, ep, panelID)
	}
	return &models.PingResponse{Response: models.ResponseResult}, nil
}

func (f *fakeClient) SetCode(ctx context.Context, ep models.Endpoint, panelID int64, code string) error {
	f.record("SetCode")
	if f.setCodeFn != nil {
		return f.setCodeFn(ctx, ep, panelID, code)
	}
	return nil
}

func (f *fakeClient) SyncUsers(ctx context.Context, ep models.Endpoint, panelID int64) (*models.SyncStatus, error) {
	f.record("SyncUsers")
	if f.syncFn != nil {
		return f.syncFn(ctx, ep, panelID)
	}
	return &models.SyncStatus{Response: models.ResponseResult, Progress: 1, Complete: true}, nil
}

func (f *fakeClient) PanelLogin(ctx context.Context, ep models.Endpoint, panelID int64) (*models.PanelLoginResponse, error) {
	f.record("PanelLogin")
	if f.loginFn != nil {
		return f.loginFn(ctx, ep, panelID)
	}
	return &models.PanelLoginResponse{Response: models.ResponseResult, Access: map[string]models.Flag{"arm": true}}, nil
}

func (f *fakeClient) Timezones(ctx context.Context, ep models.Endpoint) ([]string, error) {
	f.record("Timezones")
	if f.timezonesFn != nil {
		return f.timezonesFn(ctx, ep)
	}
	return []string{"Europe/London"}, nil
}

func (f *fakeClient) SetTimezone(ctx context.Context, ep models.Endpoint, panelID int64, tz string) error {
	f.record("SetTimezone")
	if f.setTZFn != nil {
		return f.setTZFn(ctx, ep, panelID, tz)
	}
	return nil
}

func (f *fakeClient) Timers(ctx context.Context, ep models.Endpoint, panelID int64) ([]models.Timer, error) {
	f.record("Timers")
	if f.timersFn != nil {
		return f.timersFn(ctx, ep, panelID)
	}
	return nil, nil
}

func (f *fakeClient) Timer(_ context.Context, _ models.Endpoint, _ int64, number int) (*models.Timer, error) {
	f.record("Timer")
	return &models.Timer{Number: number, Name: fmt.Sprintf("T%d", number)}, nil
}

func (f *fakeClient) DeleteTimer(ctx context.Context, ep models.Endpoint, panelID int64, number int) error {
	f.record("DeleteTimer")
	if f.deleteFn != nil {
		return f.deleteFn(ctx, ep, panelID, number)
	}
	return nil
}

func (f *fakeClient) Effects(ctx context.Context, ep models.Endpoint, panelID int64) ([]models.Effect, error) {
	f.record("Effects")
	if f.effectsFn != nil {
		return f.effectsFn(ctx, ep, panelID)
	}
	return nil, nil
}

func (f *fakeClient) HelpImages(ctx context.Context, ep models.Endpoint, theme string) ([]models.ThemeImage, error) {
	f.record("HelpImages")
	if f.helpImagesFn != nil {
		return f.helpImagesFn(ctx, ep, theme)
	}
	return nil, nil
}

func (f *fakeClient) Download(ctx context.Context, url string) ([]byte, error) {
	f.record("Download")
	if f.downloadFn != nil {
		return f.downloadFn(ctx, url)
	}
	return []byte(url), nil
}

// ---- platform fakes ----

type fakeReach struct {
	mu sync.Mutex
	up bool
}

func (r *fakeReach) Connected(context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.up
}

func (r *fakeReach) Set(up bool) {
	r.mu.Lock()
	r.up = up
	r.mu.Unlock()
}

type fakePush struct {
	tokens models.PushTokens
	err    error
}

func (p fakePush) PushTokens(context.Context) (models.PushTokens, error) { return p.tokens, p.err }

type fakeLocale struct {
	locale string
	err    error
}

func (l fakeLocale) Locale(context.Context) (string, error) { return l.locale, l.err }

// ---- UI / navigation ----

// eventLog is shared by the UI and navigator fakes so tests can assert the
// order of effects.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) All() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.events)
}

func (l *eventLog) Has(e string) bool {
	return slices.Contains(l.All(), e)
}

type fakeUI struct {
	log *eventLog

	mu       sync.Mutex
	busy     bool
	alerts   []string
	progress []float64
}

func (u *fakeUI) SetBusy(b bool) {
	u.mu.Lock()
	u.busy = b
	u.mu.Unlock()
	u.log.add(fmt.Sprintf("busy:%t", b))
}

func (u *fakeUI) Progress(title string, f float64, visible bool) {
	u.mu.Lock()
	if visible {
		u.progress = append(u.progress, f)
	}
	u.mu.Unlock()
	if !visible {
		u.log.add("progress:hide")
	}
}

func (u *fakeUI) Alert(msg string) {
	u.mu.Lock()
	u.alerts = append(u.alerts, msg)
	u.mu.Unlock()
	u.log.add("alert")
}

func (u *fakeUI) Busy() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.busy
}

func (u *fakeUI) Alerts() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return slices.Clone(u.alerts)
}

func (u *fakeUI) ProgressValues() []float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return slices.Clone(u.progress)
}

type fakeNav struct {
	log *eventLog
	ui  *fakeUI

	mu          sync.Mutex
	busyAtHome  bool
	homeSession models.SessionToken
	selected    []models.PanelSummary
}

func (n *fakeNav) Home(_ context.Context, sess models.SessionToken, _ models.PanelSummary, _ models.PanelStatus) {
	n.mu.Lock()
	n.busyAtHome = n.ui.Busy()
	n.homeSession = sess
	n.mu.Unlock()
	n.log.add("nav:home")
}

func (n *fakeNav) Upgrade(context.Context, models.SessionToken, models.PanelSummary, models.PanelStatus) {
	n.log.add("nav:upgrade")
}

func (n *fakeNav) SelectPanel(_ context.Context, panels []models.PanelSummary) {
	n.mu.Lock()
	n.selected = panels
	n.mu.Unlock()
	n.log.add("nav:select")
}

func (n *fakeNav) Account(context.Context) {
	n.log.add("nav:account")
}

// ---- diagnostics ----

type capture struct {
	err error
	msg string
}

type fakeDiag struct {
	mu       sync.Mutex
	user     map[string]string
	captures []capture
}

func (d *fakeDiag) SetUser(_ context.Context, fields map[string]string) {
	d.mu.Lock()
	d.user = fields
	d.mu.Unlock()
}

func (d *fakeDiag) Capture(_ context.Context, err error, msg string) {
	d.mu.Lock()
	d.captures = append(d.captures, capture{err: err, msg: msg})
	d.mu.Unlock()
}

func (d *fakeDiag) Captures() []capture {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.captures)
}

// ---- harness ----

var testCreds = models.Credentials{Email: "a@b.c", Password: "pw", Server: "https://cloud.example"}

type harness struct {
	client *fakeClient
	store  *credstore.Store
	holder *session.Holder
	reach  *fakeReach
	events *eventLog
	ui     *fakeUI
	nav    *fakeNav
	diag   *fakeDiag
	est    *Establisher
}

func newStore(t *testing.T) *credstore.Store {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return credstore.New(db, logging.Discard())
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		client: &fakeClient{},
		store:  newStore(t),
		holder: session.NewHolder(),
		reach:  &fakeReach{up: true},
		events: &eventLog{},
		diag:   &fakeDiag{},
	}
	h.ui = &fakeUI{log: h.events}
	h.nav = &fakeNav{log: h.events, ui: h.ui}

	log := logging.Discard()
	h.est = NewEstablisher(EstablisherDeps{
		Client:      h.client,
		Store:       h.store,
		Session:     h.holder,
		Resolver:    NewResolver(h.client),
		Prober:      NewProber(h.client, log),
		Syncer:      NewSyncer(h.client, log, time.Millisecond, time.Second),
		Reach:       h.reach,
		Push:        fakePush{tokens: models.PushTokens{Expo: "expo", Device: "dev"}},
		Locale:      fakeLocale{locale: "en_GB"},
		UI:          h.ui,
		Nav:         h.nav,
		Diagnostics: h.diag,
		Logger:      log,
		Config:      EstablisherConfig{AppSlug: "panelkeeper", AlertDelay: 10 * time.Millisecond},
	})
	return h
}

func (h *harness) login(code string) Result {
	return h.est.Establish(context.Background(), testCreds, Trigger{Kind: TriggerManual, Code: code})
}
