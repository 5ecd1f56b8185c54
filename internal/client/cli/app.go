package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dmitrijs2005/panelkeeper/internal/client/client"
	"github.com/dmitrijs2005/panelkeeper/internal/client/config"
	"github.com/dmitrijs2005/panelkeeper/internal/client/credstore"
	"github.com/dmitrijs2005/panelkeeper/internal/client/diagnostics"
	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/client/platform"
	"github.com/dmitrijs2005/panelkeeper/internal/client/services"
	"github.com/dmitrijs2005/panelkeeper/internal/client/session"
	"github.com/dmitrijs2005/panelkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const reachabilityTimeout = 3 * time.Second

// Biometrics is the unlock authenticator used by the CLI. Enrollment is
// managed from the REPL.
type Biometrics interface {
	services.Biometrics
	Enroll(ctx context.Context, passphrase []byte) error
	Unenroll(ctx context.Context) error
}

type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB

	store   *credstore.Store
	session *session.Holder
	reach   services.Reachability
	est     *services.Establisher
	bio     Biometrics
	gate    *services.BiometricGate
	panels  *services.PanelService
	theme   *services.ThemeService

	reader *bufio.Reader
	out    io.Writer
	bar    progress.Model

	mu          sync.Mutex
	Mode        Mode
	creds       models.Credentials
	lastCode    string
	pending     []models.PanelSummary
	progressing bool
}

// NewApp opens the local database and wires the login flow and panel
// services to the terminal.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	a := &App{
		config: c,
		log:    log,
		db:     db,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}

	api := client.NewHTTPClient(nil)
	a.store = credstore.New(db, log)
	a.session = session.NewHolder()
	a.reach = platform.NewDialReachability(c.ProbeAddr, reachabilityTimeout)

	a.est = services.NewEstablisher(services.EstablisherDeps{
		Client:      api,
		Store:       a.store,
		Session:     a.session,
		Resolver:    services.NewResolver(api),
		Prober:      services.NewProber(api, log),
		Syncer:      services.NewSyncer(api, log, c.SyncPollInterval, c.SyncMaxDuration),
		Reach:       a.reach,
		Push:        platform.NewDevicePushTokens(a.store, c.PushToken),
		Locale:      platform.EnvLocale{Override: c.Locale},
		UI:          a,
		Nav:         a,
		Diagnostics: diagnostics.NewLogCollector(log),
		Logger:      log,
		Config: services.EstablisherConfig{
			AppSlug:      c.AppSlug,
			LoginTimeout: c.LoginTimeout,
		},
	})
	a.setBiometrics(platform.NewPassphraseAuthenticator(db, platform.TerminalPrompt(a.out)))
	a.panels = services.NewPanelService(api, a.session, log)
	a.theme = services.NewThemeService(api, a.session, log, c.CacheDir)

	a.creds = a.store.Load(ctx)
	if a.creds.Server == "" {
		a.creds.Server = c.ServerAddr
	}

	return a, nil
}

func (a *App) setBiometrics(b Biometrics) {
	a.bio = b
	a.gate = services.NewBiometricGate(b, a.store, a.est, a.log, func(err error) bool {
		return errors.Is(err, platform.ErrAuthCancelled) || errors.Is(err, services.ErrBiometricCancelled)
	})
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()
	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

func (a *App) credentials() models.Credentials {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.creds
}

func (a *App) setCredentials(c models.Credentials) {
	a.mu.Lock()
	a.creds = c
	a.mu.Unlock()
}

func (a *App) isLoggedIn() bool {
	sess, ok := a.session.Current()
	return ok && sess.LoggedIn()
}

// Run starts the connectivity watcher, applies the startup login link if
// any, and blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	stop := a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	defer stop()

	stopSignals := a.handleInterrupts(ctx)
	defer stopSignals()

	a.printf("%s\n", titleStyle.Render("panelkeeper (type 'help' for commands)"))

	if a.config.DeepLink != "" {
		if err := a.Link(ctx, []string{a.config.DeepLink}); err != nil {
			a.printf("%s\n", errorStyle.Render(err.Error()))
		}
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn(context.Background(), "failed to close database", "error", err)
	}
}

func (a *App) getStatus() string {
	s := ""
	if email := a.credentials().Email; email != "" {
		s = email + " "
	}
	if sess, ok := a.session.Current(); ok && sess.LoggedIn() {
		s += sess.PanelName + " "
	}
	if m := a.mode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// printf serializes writes to the terminal; alerts may arrive from timer
// goroutines.
func (a *App) printf(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}
