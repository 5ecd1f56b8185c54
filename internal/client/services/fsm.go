package services

// State is a step of the session establishment flow.
type State int

const (
	StateCheckConnectivity State = iota
	StateAuthenticate
	StateRegisterPush
	StateResolvePanel
	StateValidateCode
	StateRememberCode
	StateSyncIfNeeded
	StateSetCode
	StateProbeStatus
	StateFinalizeLogin

	StateDone
	StateSelectionRequired
	StateUpgradeRequired
	StateFailed
)

var stateNames = [...]string{
	StateCheckConnectivity: "CheckConnectivity",
	StateAuthenticate:      "Authenticate",
	StateRegisterPush:      "RegisterPush",
	StateResolvePanel:      "ResolvePanel",
	StateValidateCode:      "ValidateCode",
	StateRememberCode:      "RememberCode",
	StateSyncIfNeeded:      "SyncIfNeeded",
	StateSetCode:           "SetCode",
	StateProbeStatus:       "ProbeStatus",
	StateFinalizeLogin:     "FinalizeLogin",
	StateDone:              "Done",
	StateSelectionRequired: "SelectionRequired",
	StateUpgradeRequired:   "UpgradeRequired",
	StateFailed:            "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the flow stops in s.
func (s State) Terminal() bool {
	return s >= StateDone
}

// Outcome is the result of running one step.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeFailed
	OutcomeSelectionRequired
	OutcomeUpgradeRequired
)

// transition is the flow's state table. Terminal states absorb every
// outcome; an outcome a state cannot produce is treated as a failure.
func transition(s State, o Outcome) State {
	if s.Terminal() {
		return s
	}
	switch o {
	case OutcomeOK:
		if s == StateFinalizeLogin {
			return StateDone
		}
		return s + 1
	case OutcomeSelectionRequired:
		if s == StateResolvePanel {
			return StateSelectionRequired
		}
	case OutcomeUpgradeRequired:
		if s == StateProbeStatus {
			return StateUpgradeRequired
		}
	}
	return StateFailed
}
