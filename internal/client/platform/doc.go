// Package platform adapts device capabilities to the login flow when running
// on a desktop terminal: network reachability, push/device tokens, locale,
// login deep links and a passphrase check that stands in for fingerprint or
// face unlock.
package platform
