package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelSummary_DecodesBackendFlags(t *testing.T) {
	raw := `[
	  {"panel_id": 12, "panel_name": "Home", "panel_appsync": 0,
	   "panel_user": {"panel_user_id": 3, "access_firmware_upgrade": 1}},
	  {"panel_id": 13, "panel_name": "Shop", "panel_appsync": "1"}
	]`

	var panels []PanelSummary
	require.NoError(t, json.Unmarshal([]byte(raw), &panels))
	require.Len(t, panels, 2)

	assert.False(t, bool(panels[0].AppSync))
	assert.True(t, panels[0].CanUpgradeFirmware())
	assert.True(t, bool(panels[1].AppSync))
	assert.False(t, panels[1].CanUpgradeFirmware())
}

func TestFlag_RejectsGarbage(t *testing.T) {
	var f Flag
	require.Error(t, json.Unmarshal([]byte(`"maybe"`), &f))
}

func TestParsePanelID(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"  7 ", 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"4.2", 0, false},
	}
	for _, tt := range tests {
		id, ok := ParsePanelID(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, id, tt.in)
	}
}

func TestSessionToken_CloneIsIndependent(t *testing.T) {
	s := SessionToken{Token: "t", Access: map[string]bool{"arm": true}}
	c := s.Clone()
	c.Access["arm"] = false

	assert.True(t, s.Access["arm"])
	assert.True(t, s.Authenticated())
	assert.False(t, s.LoggedIn())
}

func TestTimer_Empty(t *testing.T) {
	tests := []struct {
		name  string
		timer Timer
		want  bool
	}{
		{"no name", Timer{From: &TimeOfDay{Hours: 7}}, true},
		{"no start", Timer{Name: "Morning"}, true},
		{"sentinel hour", Timer{Name: "Morning", From: &TimeOfDay{Hours: EmptyTimerHours}}, true},
		{"configured", Timer{Name: "Morning", From: &TimeOfDay{Hours: 7, Minutes: 30}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.timer.Empty())
		})
	}
}
