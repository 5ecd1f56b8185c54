// Package client contains the backend API client for panelkeeper.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     the cloud endpoints consumed by the app: token exchange, panel
//     directory, panel ping/login/setcode, user sync, timers, timezones,
//     recipe effects and help images.
//  2. A concrete JSON-over-HTTP implementation (see HTTPClient) that adds
//     the bearer token, decodes the backend's "response" envelope and maps
//     transport and status failures to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrRejected,
// ErrMalformedResponse.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation and deadlines.
package client
