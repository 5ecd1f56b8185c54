package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/client/platform"
	"github.com/dmitrijs2005/panelkeeper/internal/client/services"
	"github.com/dmitrijs2005/panelkeeper/internal/common"
)

var (
	errUsage        = errors.New("usage")
	errNoCode       = errors.New("no security system code entered yet, use 'login' first")
	errMismatch     = errors.New("passphrases do not match")
	errNotSelecting = errors.New("no panel choice pending, use 'select' without a number to choose again")
)

func usage(text string) error {
	return fmt.Errorf("%w: %s", errUsage, text)
}

// userError returns the text shown for err at the prompt.
func userError(err error) string {
	if msg := services.UserMessage(err); msg != services.GenericFailureMessage {
		return msg
	}
	return err.Error()
}

// EditAccount asks for the cloud account details. They are saved on the next
// successful login.
func (a *App) EditAccount(ctx context.Context) error {
	cur := a.credentials()

	email, err := GetTextWithDefault(a.reader, "Enter email", cur.Email, a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	server := cur.Server
	if server == "" {
		server = a.config.ServerAddr
	}
	server, err = GetTextWithDefault(a.reader, "Enter server", server, a.out)
	if err != nil {
		return err
	}

	next := models.Credentials{Email: email, Password: cur.Password, Server: server}
	if len(password) > 0 {
		next.Password = string(password)
	}
	if !strings.EqualFold(next.Email, cur.Email) || next.Server != cur.Server {
		a.mu.Lock()
		a.pending, a.lastCode = nil, ""
		a.mu.Unlock()
	}
	a.setCredentials(next)
	a.log.Info(ctx, "account details updated", "email", email, "server", server)
	a.printf("%s\n", statusStyle.Render("Account details updated"))
	return nil
}

// Login runs the login flow with the given code, prompting for it when
// absent. An empty answer uses the code remembered for the last panel.
func (a *App) Login(ctx context.Context, args []string) error {
	creds := a.credentials()

	var code string
	if len(args) > 0 {
		code = args[0]
	} else {
		remembered := a.rememberedPin(ctx, creds)
		prompt := "Security system code"
		if remembered != "" {
			prompt += " (Enter to use the remembered code)"
		}
		secret, err := GetSecret(prompt, a.out)
		if err != nil {
			return err
		}
		code = string(secret)
		common.WipeByteArray(secret)
		if code == "" {
			code = remembered
		}
	}

	a.attempt(ctx, creds, services.Trigger{Kind: services.TriggerManual, Code: code})
	return nil
}

// rememberedPin returns the code remembered for pre-filling on the last
// panel, or "".
func (a *App) rememberedPin(ctx context.Context, creds models.Credentials) string {
	last, err := a.store.LastPanel(ctx, creds.Email, creds.Server)
	if err != nil {
		return ""
	}
	panelID, ok := models.ParsePanelID(last)
	if !ok {
		return ""
	}
	code, err := a.store.RememberedCode(ctx, panelID, creds.Email)
	if err != nil || code == nil || !code.RememberMe {
		return ""
	}
	return code.Pin
}

func (a *App) attempt(ctx context.Context, creds models.Credentials, t services.Trigger) services.Result {
	a.mu.Lock()
	a.lastCode = t.Code
	a.mu.Unlock()

	res := a.est.Establish(ctx, creds, t)
	if errors.Is(res.Err, services.ErrBusy) {
		a.Alert(res.Message)
	}
	return res
}

// Select continues a login that stopped at panel selection. Without an
// argument it asks for the panel list again.
func (a *App) Select(ctx context.Context, args []string) error {
	a.mu.Lock()
	code, pending := a.lastCode, a.pending
	a.mu.Unlock()

	if code == "" {
		return errNoCode
	}
	creds := a.credentials()

	if len(args) == 0 {
		a.attempt(ctx, creds, services.Trigger{Kind: services.TriggerManual, Code: code, ForceSelect: true})
		return nil
	}
	if len(pending) == 0 {
		return errNotSelecting
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(pending) {
		return usage(fmt.Sprintf("select <1-%d>", len(pending)))
	}

	a.attempt(ctx, creds, services.Trigger{Kind: services.TriggerManual, Code: code, PanelID: pending[n-1].ID})
	return nil
}

// Link applies a login link: the account fields it carries replace the
// current ones, and a code in the link starts a login.
func (a *App) Link(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("link <url>")
	}
	link, err := platform.ParseLoginLink(args[0])
	if err != nil {
		return err
	}

	creds := a.credentials()
	if link.Credentials.Email != "" {
		creds.Email = link.Credentials.Email
	}
	if link.Credentials.Password != "" {
		creds.Password = link.Credentials.Password
	}
	if link.Credentials.Server != "" {
		creds.Server = link.Credentials.Server
	}
	a.setCredentials(creds)

	if link.Code == "" {
		a.printf("%s\n", statusStyle.Render("Account details updated from link"))
		return nil
	}
	a.attempt(ctx, creds, services.Trigger{Kind: services.TriggerManual, Code: link.Code})
	return nil
}

// Prefs shows or changes the code preferences for the current panel.
// Turning a preference on stores the code used for this session.
func (a *App) Prefs(ctx context.Context, args []string) error {
	sess, ok := a.session.Current()
	if !ok || !sess.LoggedIn() {
		return common.ErrNotLoggedIn
	}
	userID := a.credentials().Email

	prefs, err := a.store.Preferences(ctx, sess.PanelID, userID)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		a.printf("remember: %s\nbiometric: %s\n", onOff(prefs.RememberMe), onOff(prefs.Biometric))
		return nil
	}
	if len(args) != 2 {
		return usage("prefs [remember|biometric on|off]")
	}
	on, err := parseToggle(args[1])
	if err != nil {
		return usage("prefs [remember|biometric on|off]")
	}

	switch args[0] {
	case "remember":
		prefs.RememberMe = on
	case "biometric":
		if on && !a.bio.IsEnrolled(ctx) {
			return errors.New("set an unlock passphrase with 'enroll' first")
		}
		prefs.Biometric = on
	default:
		return usage("prefs [remember|biometric on|off]")
	}

	if err := a.store.SetPreferences(ctx, sess.PanelID, userID, prefs); err != nil {
		return err
	}
	if prefs.Any() {
		err = a.store.SetRememberedCode(ctx, models.RememberedCode{
			PanelID:    sess.PanelID,
			UserID:     userID,
			Pin:        sess.PanelCode,
			RememberMe: prefs.RememberMe,
			Biometric:  prefs.Biometric,
		})
	} else {
		err = a.store.ClearRememberedCode(ctx, sess.PanelID, userID)
	}
	if err != nil {
		return err
	}
	a.printf("%s\n", successStyle.Render("Preferences saved"))
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Enroll sets the unlock passphrase used by 'unlock'.
func (a *App) Enroll(ctx context.Context) error {
	first, err := GetSecret("New unlock passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(first)

	second, err := GetSecret("Repeat unlock passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(second)

	if string(first) != string(second) {
		return errMismatch
	}
	if err := a.bio.Enroll(ctx, first); err != nil {
		return err
	}
	a.printf("%s\n", successStyle.Render("Unlock passphrase set"))
	return nil
}

// Unlock logs in with the code remembered for the last panel once the
// unlock passphrase is confirmed.
func (a *App) Unlock(ctx context.Context) error {
	outcome, _ := a.gate.Unlock(ctx, a.credentials())
	switch outcome {
	case services.GateUnavailable:
		return errors.New("unlock is not available: set a passphrase with 'enroll' and turn on 'prefs biometric' after logging in")
	case services.GateBusy:
		return errors.New("unlock already in progress")
	case services.GateFailed:
		a.Alert("Unlock failed")
	case services.GateAborted:
		a.printf("%s\n", statusStyle.Render("Cancelled"))
	}
	return nil
}

func (a *App) Status(ctx context.Context) error {
	creds := a.credentials()
	lines := []string{
		"account: " + orDash(creds.Email),
		"server: " + orDash(creds.Server),
		"connectivity: " + orDash(string(a.mode())),
	}

	sess, ok := a.session.Current()
	switch {
	case ok && sess.LoggedIn():
		lines = append(lines, fmt.Sprintf("panel: %s [%d]", sess.PanelName, sess.PanelID))
	case ok && sess.Authenticated():
		lines = append(lines, "panel: not logged in")
	default:
		lines = append(lines, "session: none")
	}
	if ok && !sess.ExpiresAt.IsZero() {
		lines = append(lines, "session expires: "+sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	lines = append(lines, "unlock passphrase: "+onOff(a.bio.IsEnrolled(ctx)))

	a.printf("%s\n", boxStyle.Render(strings.Join(lines, "\n")))
	return nil
}

// Logout ends the session and forgets the saved password.
func (a *App) Logout(ctx context.Context) error {
	if err := a.est.Logout(ctx); err != nil {
		return err
	}
	creds := a.credentials()
	creds.Password = ""
	a.setCredentials(creds)
	a.mu.Lock()
	a.pending, a.lastCode = nil, ""
	a.mu.Unlock()
	a.printf("%s\n", statusStyle.Render("Logged out"))
	return nil
}

// Forget logs out and removes the saved account, its last panels and
// remembered codes from this device.
func (a *App) Forget(ctx context.Context) error {
	if err := a.est.Logout(ctx); err != nil {
		return err
	}
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	a.setCredentials(models.Credentials{Server: a.config.ServerAddr})
	a.mu.Lock()
	a.pending, a.lastCode = nil, ""
	a.mu.Unlock()
	a.printf("%s\n", statusStyle.Render("Account removed from this device"))
	return nil
}
