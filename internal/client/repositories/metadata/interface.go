// Package metadata stores small device-local settings (saved credentials,
// last panel per account, theme, device token, key material) as key/value
// rows in the metadata table.
package metadata

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}
