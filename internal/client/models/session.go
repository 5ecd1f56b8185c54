package models

import (
	"maps"
	"time"
)

// Endpoint addresses the backend on behalf of an authenticated user.
type Endpoint struct {
	Server string
	Token  string
}

// SessionToken is the current cloud session. Token is empty until
// authentication succeeds; the Panel* fields are attached by panel login.
type SessionToken struct {
	Email     string
	Server    string
	Token     string
	Theme     string
	PushToken string
	Access    map[string]bool
	ExpiresAt time.Time

	PanelID   int64
	PanelName string
	PanelCode string
}

// Endpoint returns the server/token pair for API calls.
func (s SessionToken) Endpoint() Endpoint {
	return Endpoint{Server: s.Server, Token: s.Token}
}

// Authenticated reports whether a cloud token is present.
func (s SessionToken) Authenticated() bool {
	return s.Token != ""
}

// LoggedIn reports whether a panel session has been attached.
func (s SessionToken) LoggedIn() bool {
	return s.Authenticated() && s.PanelID != 0
}

// Clone returns a copy that shares no mutable state with s.
func (s SessionToken) Clone() SessionToken {
	s.Access = maps.Clone(s.Access)
	return s
}
