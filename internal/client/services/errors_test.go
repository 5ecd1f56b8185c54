package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/panelkeeper/internal/client/client"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrNoConnectivity, "You need a valid internet connection"},
		{fmt.Errorf("%w: %w", ErrAuthRejected, client.ErrUnauthorized), "Failed to log in, please check your username and password"},
		{fmt.Errorf("step: %w", ErrSyncFailed), "Failed to synchronise with panel"},
		{ErrUnreachable, "Failed to connect to panel, please check your network connection"},
		{client.ErrMalformedResponse, GenericFailureMessage},
		{errors.New("boom"), GenericFailureMessage},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UserMessage(tt.err), "%v", tt.err)
	}
}

func TestExpected(t *testing.T) {
	assert.True(t, expected(ErrCancelled))
	assert.True(t, expected(fmt.Errorf("x: %w", ErrCodeRejected)))
	assert.False(t, expected(client.ErrMalformedResponse))
}
