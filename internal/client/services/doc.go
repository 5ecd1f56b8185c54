// Package services contains the application services of the panelkeeper
// client.
//
// The centrepiece is Establisher, the login flow. It is a finite-state
// machine whose steps are:
//
//	CheckConnectivity -> Authenticate -> RegisterPush -> ResolvePanel
//	  -> ValidateCode -> RememberCode -> SyncIfNeeded -> SetCode
//	  -> ProbeStatus -> FinalizeLogin -> Done
//
// Terminal states are Done, SelectionRequired, UpgradeRequired and Failed.
// Transitions come from a pure table (see transition) so every branch can
// be tested in isolation. Manual and biometric logins share the single entry
// point Establish, distinguished by Trigger.Kind.
//
// Supporting services:
//   - Resolver chooses the panel from the account's directory.
//   - Prober classifies reachability and upgrade needs.
//   - Syncer polls a server-side user download with cancellation.
//   - BiometricGate substitutes a remembered code after a platform check.
//   - PanelService and ThemeService serve the screens reached after login.
//
// Failures are reported with the sentinel errors in this package; use
// UserMessage to turn them into text for the user.
package services
