// Package credstore is the device-local credential store.
//
// It keeps the saved account (email, password, server), the last panel used
// per (email, server), the cached theme name, a per-install device token and
// remembered panel user codes with their remember/biometric preferences.
//
// The password and remembered codes are sealed with AES-GCM under a random
// key generated on first use and kept in the metadata table. This protects
// against casual inspection of the database file, not against an attacker
// with full access to the device.
//
// Load never fails; a damaged or missing record reads as empty fields. Save
// writes all credential fields in one transaction.
package credstore
