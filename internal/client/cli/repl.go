package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	EditAccount(ctx context.Context) error
	Login(ctx context.Context, args []string) error
	Select(ctx context.Context, args []string) error
	Link(ctx context.Context, args []string) error
	Prefs(ctx context.Context, args []string) error
	Enroll(ctx context.Context) error
	Unlock(ctx context.Context) error
	Status(ctx context.Context) error
	Timers(ctx context.Context) error
	Timer(ctx context.Context, args []string) error
	DeleteTimer(ctx context.Context, args []string) error
	Timezones(ctx context.Context) error
	SetTimezone(ctx context.Context, args []string) error
	Effects(ctx context.Context) error
	Details(ctx context.Context) error
	Images(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	Forget(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the panelkeeper CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Always:
//	  - help                 show available commands
//	  - account              enter email, password and server
//	  - login [code]         log in to a panel with the security system code
//	  - select [n]           pick a panel (without n: choose again)
//	  - link <url>           apply a login link
//	  - enroll               set the unlock passphrase
//	  - unlock               log in with the remembered code after unlocking
//	  - status               show account, session and connectivity
//	  - forget               remove the saved account from this device
//	  - exit | quit          leave the program
//
//	Logged in:
//	  - prefs remember|biometric on|off
//	  - timers, timer <n>, deltimer <n>
//	  - timezones, settz <zone>
//	  - effects, details, images [force]
//	  - logout
//
// Handlers report their own progress; an error they return is printed and
// the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, prefs, timers, timer, deltimer, timezones, settz, effects, details, images, select, logout, exit")
			} else {
				printlnFn("Available commands: account, login, select, link, enroll, unlock, status, forget, exit")
			}

		case "account":
			err = a.EditAccount(ctx)
		case "login":
			err = a.Login(ctx, args)
		case "select":
			err = a.Select(ctx, args)
		case "link":
			err = a.Link(ctx, args)
		case "prefs":
			err = a.Prefs(ctx, args)
		case "enroll":
			err = a.Enroll(ctx)
		case "unlock":
			err = a.Unlock(ctx)
		case "status":
			err = a.Status(ctx)
		case "timers":
			err = a.Timers(ctx)
		case "timer":
			err = a.Timer(ctx, args)
		case "deltimer":
			err = a.DeleteTimer(ctx, args)
		case "timezones":
			err = a.Timezones(ctx)
		case "settz":
			err = a.SetTimezone(ctx, args)
		case "effects":
			err = a.Effects(ctx)
		case "details":
			err = a.Details(ctx)
		case "images":
			err = a.Images(ctx, args)
		case "logout":
			err = a.Logout(ctx)
		case "forget":
			err = a.Forget(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn(errorStyle.Render(userError(err)))
		}
	}
}
