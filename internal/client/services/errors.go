package services

import (
	"errors"

	"github.com/dmitrijs2005/panelkeeper/internal/common"
)

var (
	ErrBusy                 = errors.New("login already in progress")
	ErrNoConnectivity       = errors.New("no network connectivity")
	ErrNotConfigured        = errors.New("no cloud server configured")
	ErrMissingCredentials   = errors.New("username or password missing")
	ErrAuthRejected         = errors.New("authentication rejected")
	ErrServerUnavailable    = errors.New("cloud server unavailable")
	ErrDirectoryUnavailable = errors.New("panel directory unavailable")
	ErrInvalidCode          = errors.New("invalid user code")
	ErrSyncFailed           = errors.New("panel user sync failed")
	ErrCancelled            = errors.New("cancelled by user")
	ErrCodeRejected         = errors.New("user code rejected")
	ErrUnreachable          = errors.New("panel unreachable")
	ErrLoginRejected        = errors.New("panel login rejected")
)

// GenericFailureMessage is shown for errors without a specific message.
const GenericFailureMessage = "Something went wrong, please try again"

var userMessages = []struct {
	err error
	msg string
}{
	{ErrNoConnectivity, "You need a valid internet connection"},
	{ErrNotConfigured, "No cloud server configured"},
	{ErrMissingCredentials, "Please enter your username and password"},
	{ErrAuthRejected, "Failed to log in, please check your username and password"},
	{ErrServerUnavailable, "Failed to contact the cloud server, please try again later"},
	{ErrDirectoryUnavailable, "Failed to get panel list"},
	{ErrInvalidCode, "Please check your Security System Code. It should be a 4, 5 or 6 digit code."},
	{ErrSyncFailed, "Failed to synchronise with panel"},
	{ErrCancelled, "Cancelled"},
	{ErrCodeRejected, "Please ensure your user code is correct"},
	{ErrUnreachable, "Failed to connect to panel, please check your network connection"},
	{ErrLoginRejected, "Failed to log in to panel"},
	{ErrBusy, "Login already in progress"},
	{common.ErrNotLoggedIn, "Please log in to a panel first"},
}

// UserMessage returns the text shown to the user for err, falling back to
// GenericFailureMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return GenericFailureMessage
}

// expected reports whether err is one of the known failure kinds, as opposed
// to something that should be captured for diagnosis.
func expected(err error) bool {
	return UserMessage(err) != GenericFailureMessage
}
