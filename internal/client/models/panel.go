package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Flag is a boolean that the backend encodes as 0/1 (and occasionally as a
// JSON boolean or quoted digit).
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "1", "true":
		*f = true
	case "0", "false", "null", "":
		*f = false
	default:
		return fmt.Errorf("invalid flag value %s", b)
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// PanelUser describes the account's user record on a panel.
type PanelUser struct {
	ID              int64  `json:"panel_user_id"`
	Name            string `json:"panel_user_name"`
	FirmwareUpgrade Flag   `json:"access_firmware_upgrade"`
}

// PanelSummary is one entry of the account's panel directory.
type PanelSummary struct {
	ID       int64      `json:"panel_id"`
	Name     string     `json:"panel_name"`
	AppSync  Flag       `json:"panel_appsync"`
	Timezone string     `json:"panel_timezone,omitempty"`
	SmartCom string     `json:"panel_smartcom,omitempty"`
	User     *PanelUser `json:"panel_user,omitempty"`
}

// CanUpgradeFirmware reports whether the account's panel user holds the
// firmware-upgrade right.
func (p PanelSummary) CanUpgradeFirmware() bool {
	return p.User != nil && bool(p.User.FirmwareUpgrade)
}

// ParsePanelID normalizes a remembered panel id ("  42 ") to its numeric
// form. ok is false for empty or non-numeric input.
func ParsePanelID(s string) (id int64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// StatusDetails are the version markers reported by a panel ping.
type StatusDetails struct {
	SmartComVersion    string `json:"smartcom_version"`
	FirmwareVersion    string `json:"panel_firmware"`
	MinSmartComVersion string `json:"min_smartcom_version"`
	MinFirmwareVersion string `json:"min_firmware_version"`
	NeedsUpgrade       Flag   `json:"needs_upgrade"`
}

// ResponseResult is the envelope value of a successful backend call.
const ResponseResult = "result"

// PingResponse is the raw body of the panel ping endpoint.
type PingResponse struct {
	Response string        `json:"response"`
	Details  StatusDetails `json:"details"`
}

// PanelStatus is the classified result of one probe. It is only valid for
// the login attempt that requested it.
type PanelStatus struct {
	Reachable    bool
	NeedsUpgrade bool
	Details      StatusDetails
}

// SyncStatus reports progress of a server-directed panel user download.
type SyncStatus struct {
	Response string  `json:"response"`
	Progress float64 `json:"progress"`
	Complete bool    `json:"complete"`
}

// PanelLoginResponse is returned by the panel login endpoint.
type PanelLoginResponse struct {
	Response string          `json:"response"`
	Access   map[string]Flag `json:"access"`
}
