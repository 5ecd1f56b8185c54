package platform

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
)

var ErrNoPushToken = errors.New("push token unavailable")

// DeviceTokenSource yields the per-install device identifier.
type DeviceTokenSource interface {
	DeviceToken(ctx context.Context) (string, error)
}

// DevicePushTokens pairs a configured push-service token with the
// per-install device token.
type DevicePushTokens struct {
	source DeviceTokenSource
	expo   string
}

func NewDevicePushTokens(source DeviceTokenSource, expoToken string) *DevicePushTokens {
	return &DevicePushTokens{source: source, expo: expoToken}
}

// PushTokens returns whatever tokens are available. ErrNoPushToken is
// returned alongside the partial result when the push-service token is not
// configured.
func (p *DevicePushTokens) PushTokens(ctx context.Context) (models.PushTokens, error) {
	device, err := p.source.DeviceToken(ctx)
	if err != nil {
		return models.PushTokens{Expo: p.expo}, err
	}
	tokens := models.PushTokens{Expo: p.expo, Device: device}
	if p.expo == "" {
		return tokens, ErrNoPushToken
	}
	return tokens, nil
}
