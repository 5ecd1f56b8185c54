package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/client/services"
)

func (a *App) Timers(ctx context.Context) error {
	timers, err := a.panels.Timers(ctx)
	if err != nil {
		return err
	}
	a.printTimers(timers)
	return nil
}

func (a *App) printTimers(timers []models.Timer) {
	var b strings.Builder
	for _, t := range timers {
		fmt.Fprintf(&b, "%s\n", formatTimer(t))
	}
	if slot, ok := services.FreeTimerSlot(timers); ok {
		fmt.Fprintf(&b, "%s\n", statusStyle.Render(fmt.Sprintf("next free slot: %d", slot)))
	}
	a.printf("%s", b.String())
}

func formatTimer(t models.Timer) string {
	if t.Empty() {
		return fmt.Sprintf("%2d) %s", t.Number, statusStyle.Render("<free>"))
	}
	state := "off"
	if t.Enabled {
		state = "on"
	}
	return fmt.Sprintf("%2d) %-16s %s-%s %s", t.Number, t.Name, clock(t.From), clock(t.To), state)
}

func clock(t *models.TimeOfDay) string {
	if t == nil {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", t.Hours, t.Minutes)
}

func timerNumber(args []string, cmd string) (int, error) {
	if len(args) != 1 {
		return 0, usage(cmd + " <n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, usage(cmd + " <n>")
	}
	return n, nil
}

func (a *App) Timer(ctx context.Context, args []string) error {
	n, err := timerNumber(args, "timer")
	if err != nil {
		return err
	}
	t, err := a.panels.Timer(ctx, n)
	if err != nil {
		return err
	}
	days := make([]string, 0, len(t.Days))
	for _, d := range t.Days {
		days = append(days, strconv.Itoa(d))
	}
	a.printf("%s\ndays: %s\n", formatTimer(*t), orDash(strings.Join(days, ",")))
	return nil
}

func (a *App) DeleteTimer(ctx context.Context, args []string) error {
	n, err := timerNumber(args, "deltimer")
	if err != nil {
		return err
	}
	timers, err := a.panels.DeleteTimer(ctx, n)
	if err != nil {
		return err
	}
	a.printf("%s\n", successStyle.Render(fmt.Sprintf("Timer %d removed", n)))
	a.printTimers(timers)
	return nil
}

func (a *App) Timezones(ctx context.Context) error {
	zones, err := a.panels.Timezones(ctx)
	if err != nil {
		return err
	}
	a.printf("%s\n", strings.Join(zones, "\n"))
	return nil
}

// SetTimezone accepts only zones from the backend's list.
func (a *App) SetTimezone(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("settz <zone>")
	}
	zones, err := a.panels.Timezones(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(zones, args[0]) {
		return fmt.Errorf("unknown timezone %q, see 'timezones'", args[0])
	}
	if err := a.panels.SetTimezone(ctx, args[0]); err != nil {
		return err
	}
	a.printf("%s\n", successStyle.Render("Timezone set to "+args[0]))
	return nil
}

func (a *App) Effects(ctx context.Context) error {
	effects, err := a.panels.Effects(ctx)
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, e := range effects {
		fmt.Fprintf(&b, "%4d  %-24s %s\n", e.ID, e.Name, e.Type)
	}
	a.printf("%s", b.String())
	return nil
}

func (a *App) Details(ctx context.Context) error {
	d, err := a.panels.SystemDetails(ctx)
	if err != nil {
		return err
	}
	lines := []string{
		"firmware: " + orDash(d.FirmwareVersion),
		"min firmware: " + orDash(d.MinFirmwareVersion),
		"smartcom: " + orDash(d.SmartComVersion),
		"min smartcom: " + orDash(d.MinSmartComVersion),
	}
	a.printf("%s\n", boxStyle.Render(strings.Join(lines, "\n")))
	return nil
}

// Images refreshes the cached theme images; "force" downloads all of them
// again.
func (a *App) Images(ctx context.Context, args []string) error {
	force := len(args) > 0 && args[0] == "force"
	paths, err := a.theme.Refresh(ctx, force)
	if err != nil {
		return err
	}
	a.printf("%s\n", successStyle.Render(fmt.Sprintf("%d images cached", len(paths))))
	return nil
}
