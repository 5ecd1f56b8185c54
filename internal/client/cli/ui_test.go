package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
)

func bufferApp() (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{out: &out, bar: progress.New(progress.WithWidth(20))}, &out
}

func TestUI_ProgressEndsLineOnHide(t *testing.T) {
	a, out := bufferApp()

	a.Progress("", 0, false)
	assert.Empty(t, out.String())

	a.Progress("Syncing", 0.5, true)
	assert.Contains(t, out.String(), "\rSyncing ")
	assert.Contains(t, out.String(), "50%")

	a.Progress("", 0, false)
	assert.Equal(t, byte('\n'), out.Bytes()[out.Len()-1])
	assert.False(t, a.progressing)
}

func TestUI_Upgrade(t *testing.T) {
	a, out := bufferApp()
	a.Upgrade(context.Background(), models.SessionToken{}, models.PanelSummary{Name: "Home"}, models.PanelStatus{
		NeedsUpgrade: true,
		Details:      models.StatusDetails{FirmwareVersion: "V4.01", MinFirmwareVersion: "V4.02"},
	})
	assert.Contains(t, out.String(), "Panel Home needs a firmware upgrade")
	assert.Contains(t, out.String(), "firmware V4.01 (min V4.02), smartcom - (min -)")
}

func TestUI_SelectPanelKeepsChoices(t *testing.T) {
	a, out := bufferApp()
	panels := []models.PanelSummary{{ID: 3, Name: "Shop"}}
	a.SelectPanel(context.Background(), panels)
	assert.Equal(t, panels, a.pending)
	assert.Contains(t, out.String(), "1) Shop [3]")

	a.Home(context.Background(), models.SessionToken{}, panels[0], models.PanelStatus{NeedsUpgrade: true})
	assert.Nil(t, a.pending)
	assert.Contains(t, out.String(), "Logged in to Shop")
	assert.Contains(t, out.String(), "an upgrade is available")
}
