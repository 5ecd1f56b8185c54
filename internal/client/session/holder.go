// Package session owns the current cloud session for the running client.
//
// There is at most one current SessionToken. Writers replace it wholesale;
// readers always get a private copy, so a login in progress never exposes a
// half-updated session.
package session

import (
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
)

type Holder struct {
	current atomic.Pointer[models.SessionToken]
}

func NewHolder() *Holder {
	return &Holder{}
}

// Current returns a copy of the current session. ok is false when no session
// has been established.
func (h *Holder) Current() (models.SessionToken, bool) {
	p := h.current.Load()
	if p == nil {
		return models.SessionToken{}, false
	}
	return p.Clone(), true
}

// Replace makes s the current session, superseding any previous one.
func (h *Holder) Replace(s models.SessionToken) {
	c := s.Clone()
	h.current.Store(&c)
}

// Update applies fn to a copy of the current session and stores the result.
// fn may run again if another writer got in first. It reports false when
// there is no session.
func (h *Holder) Update(fn func(*models.SessionToken)) bool {
	for {
		old := h.current.Load()
		if old == nil {
			return false
		}
		next := old.Clone()
		fn(&next)
		if h.current.CompareAndSwap(old, &next) {
			return true
		}
	}
}

func (h *Holder) Clear() {
	h.current.Store(nil)
}

// TokenExpiry reads the exp claim of a JWT bearer token without verifying
// it. Opaque tokens, and tokens without exp, yield the zero time.
func TokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
