package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/logging"
)

// ErrBiometricCancelled may be returned by a Biometrics implementation to
// mark a user cancel as opposed to a failed match.
var ErrBiometricCancelled = errors.New("biometric authentication cancelled")

// Biometrics is the platform authenticator: capability query, challenge and
// cancel.
type Biometrics interface {
	HasHardware(ctx context.Context) bool
	IsEnrolled(ctx context.Context) bool
	Authenticate(ctx context.Context) error
	Cancel()
}

// LoginRunner is the entry point the gate feeds a recovered code into.
type LoginRunner interface {
	Establish(ctx context.Context, creds models.Credentials, t Trigger) Result
}

type GateState int32

const (
	GateIdle GateState = iota
	GateAuthenticating
	GateSuccess
	GateFailure
	GateCancelled
)

func (s GateState) String() string {
	switch s {
	case GateIdle:
		return "Idle"
	case GateAuthenticating:
		return "Authenticating"
	case GateSuccess:
		return "Success"
	case GateFailure:
		return "Failure"
	case GateCancelled:
		return "Cancelled"
	}
	return "Unknown"
}

type GateOutcome int

const (
	GateUnavailable GateOutcome = iota
	GateBusy
	GateSucceeded
	GateFailed
	GateAborted
)

// BiometricGate substitutes a remembered code for manual entry once the
// platform authenticator succeeds. No lockout is kept here.
type BiometricGate struct {
	auth        Biometrics
	store       CredentialStore
	runner      LoginRunner
	log         logging.Logger
	isCancelled func(error) bool

	state atomic.Int32
}

// NewBiometricGate builds a gate. cancelled classifies authenticator errors
// that mean the user backed out; nil uses ErrBiometricCancelled only.
func NewBiometricGate(auth Biometrics, store CredentialStore, runner LoginRunner, log logging.Logger, cancelled func(error) bool) *BiometricGate {
	if cancelled == nil {
		cancelled = func(err error) bool { return errors.Is(err, ErrBiometricCancelled) }
	}
	return &BiometricGate{auth: auth, store: store, runner: runner, log: log, isCancelled: cancelled}
}

func (g *BiometricGate) State() GateState {
	return GateState(g.state.Load())
}

// Eligible returns the remembered code biometric unlock would use, or nil
// when unlock is not possible for creds.
func (g *BiometricGate) Eligible(ctx context.Context, creds models.Credentials) *models.RememberedCode {
	if !g.auth.HasHardware(ctx) || !g.auth.IsEnrolled(ctx) {
		return nil
	}
	last, err := g.store.LastPanel(ctx, creds.Email, creds.Server)
	if err != nil {
		g.log.Warn(ctx, "last panel unavailable", "error", err)
		return nil
	}
	panelID, ok := models.ParsePanelID(last)
	if !ok {
		return nil
	}
	code, err := g.store.RememberedCode(ctx, panelID, creds.Email)
	if err != nil {
		g.log.Warn(ctx, "remembered code unavailable", "panel_id", panelID, "error", err)
		return nil
	}
	if code == nil || !code.Biometric {
		return nil
	}
	return code
}

// Unlock challenges the user and, on success, runs the login with the
// remembered code. The Result is only meaningful for GateSucceeded.
func (g *BiometricGate) Unlock(ctx context.Context, creds models.Credentials) (GateOutcome, Result) {
	if g.State() != GateIdle {
		return GateBusy, Result{}
	}
	code := g.Eligible(ctx, creds)
	if code == nil {
		return GateUnavailable, Result{}
	}
	if !g.state.CompareAndSwap(int32(GateIdle), int32(GateAuthenticating)) {
		return GateBusy, Result{}
	}
	defer g.state.Store(int32(GateIdle))

	if err := g.auth.Authenticate(ctx); err != nil {
		if g.isCancelled(err) || ctx.Err() != nil {
			g.state.Store(int32(GateCancelled))
			g.log.Info(ctx, "biometric unlock cancelled")
			return GateAborted, Result{}
		}
		g.state.Store(int32(GateFailure))
		g.log.Info(ctx, "biometric unlock failed", "error", err)
		return GateFailed, Result{}
	}

	g.state.Store(int32(GateSuccess))
	res := g.runner.Establish(ctx, creds, Trigger{
		Kind:    TriggerBiometric,
		Code:    code.Pin,
		PanelID: code.PanelID,
	})
	return GateSucceeded, res
}

// Cancel aborts a challenge in progress.
func (g *BiometricGate) Cancel() {
	if g.State() == GateAuthenticating {
		g.auth.Cancel()
	}
}
