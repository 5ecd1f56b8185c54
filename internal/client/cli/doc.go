// Package cli provides the interactive panelkeeper command-line client.
//
// It wires configuration, the local credential store, the cloud API client
// and the login flow to a REPL. The App implements the login screen
// (services.LoginUI) and navigation (services.Navigator) in the terminal:
// busy and progress feedback, alerts, the post-login panel summary, the
// upgrade notice and panel selection.
//
// Typical flow: enter account details ('account'), log in with the security
// system code ('login'), choose a panel if asked ('select <n>'), then use
// the panel commands. A connectivity watcher runs in the background and
// Ctrl-C cancels a running user sync.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
