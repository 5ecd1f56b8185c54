package models

// Credentials are the cloud account details used to authenticate.
// Password must never be logged.
type Credentials struct {
	Email    string
	Password string
	Server   string
}

// Complete reports whether all three fields are set.
func (c Credentials) Complete() bool {
	return c.Email != "" && c.Password != "" && c.Server != ""
}

// PushTokens are the notification tokens sent along with authentication.
type PushTokens struct {
	Expo   string
	Device string
}

// AuthRequest is the body of the credential exchange.
type AuthRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	App          string `json:"app"`
	PushToken    string `json:"push_token"`
	DeviceToken  string `json:"device_token"`
	DeviceLocale string `json:"device_locale"`
}

// AuthResponse is returned by a successful credential exchange.
type AuthResponse struct {
	Token string `json:"token"`
	Theme string `json:"theme,omitempty"`
}
