// Package codes persists remembered panel user codes and the per-(panel,
// user) remember/biometric preferences.
//
// Codes are stored sealed; callers encrypt before Upsert and decrypt after
// Get. Lookups for missing rows return (nil, nil), and missing preferences
// read as the zero value.
package codes
