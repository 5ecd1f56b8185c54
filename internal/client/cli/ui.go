package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/client/services"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("247"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

var (
	_ services.LoginUI   = (*App)(nil)
	_ services.Navigator = (*App)(nil)
)

func (a *App) SetBusy(busy bool) {
	if busy {
		a.printf("%s\n", statusStyle.Render("Logging in..."))
	}
}

// Progress redraws the bar in place. Hiding it ends the line.
func (a *App) Progress(title string, fraction float64, visible bool) {
	a.mu.Lock()
	was := a.progressing
	a.progressing = visible
	a.mu.Unlock()

	switch {
	case visible:
		a.printf("\r%s %s", title, a.bar.ViewAs(fraction))
	case was:
		a.printf("\n")
	}
}

func (a *App) Alert(msg string) {
	a.printf("%s\n", errorStyle.Render(msg))
}

func (a *App) Home(_ context.Context, sess models.SessionToken, panel models.PanelSummary, status models.PanelStatus) {
	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()

	lines := []string{
		successStyle.Render("Logged in to " + panel.Name),
		fmt.Sprintf("panel id: %d", panel.ID),
	}
	if v := status.Details.FirmwareVersion; v != "" {
		lines = append(lines, "firmware: "+v)
	}
	if v := status.Details.SmartComVersion; v != "" {
		lines = append(lines, "smartcom: "+v)
	}
	if status.NeedsUpgrade {
		lines = append(lines, warnStyle.Render("an upgrade is available for this panel"))
	}
	if !sess.ExpiresAt.IsZero() {
		lines = append(lines, "session expires: "+sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	a.printf("%s\n", boxStyle.Render(strings.Join(lines, "\n")))
}

func (a *App) Upgrade(_ context.Context, _ models.SessionToken, panel models.PanelSummary, status models.PanelStatus) {
	msg := fmt.Sprintf("Panel %s needs a firmware upgrade before it can be used", panel.Name)
	details := fmt.Sprintf("firmware %s (min %s), smartcom %s (min %s)",
		orDash(status.Details.FirmwareVersion), orDash(status.Details.MinFirmwareVersion),
		orDash(status.Details.SmartComVersion), orDash(status.Details.MinSmartComVersion))
	a.printf("%s\n%s\n", warnStyle.Render(msg), statusStyle.Render(details))
}

func (a *App) SelectPanel(_ context.Context, panels []models.PanelSummary) {
	a.mu.Lock()
	a.pending = panels
	a.mu.Unlock()

	var b strings.Builder
	b.WriteString("Choose a panel:\n")
	for i, p := range panels {
		fmt.Fprintf(&b, "  %d) %s [%d]\n", i+1, p.Name, p.ID)
	}
	b.WriteString("Use 'select <n>' to continue")
	a.printf("%s\n", b.String())
}

func (a *App) Account(context.Context) {
	a.printf("%s\n", warnStyle.Render("Check your account details with 'account'"))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
