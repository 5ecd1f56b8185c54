// Package common defines shared constants and sentinel errors used across
// the panelkeeper client packages. Callers should use errors.Is to match
// these values.
package common

import "errors"

// ErrNotLoggedIn is returned by panel operations without a panel session.
var ErrNotLoggedIn = errors.New("not logged in to a panel")
