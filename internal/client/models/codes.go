package models

// CodePreferences are the per-(panel, user) flags controlling whether a PIN
// is retained for pre-filling (RememberMe) or biometric substitution.
type CodePreferences struct {
	RememberMe bool
	Biometric  bool
}

// Any reports whether either preference is enabled.
func (p CodePreferences) Any() bool {
	return p.RememberMe || p.Biometric
}

// RememberedCode is a PIN retained for a (panel, user) pair.
type RememberedCode struct {
	PanelID    int64
	UserID     string
	Pin        string
	RememberMe bool
	Biometric  bool
}
