package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Dashboard(ctx context.Context) error
	Profile(ctx context.Context) error
	Passwd(ctx context.Context) error
	Events(ctx context.Context) error
	AddEvent(ctx context.Context) error
	Backup(ctx context.Context) error
	Reset(ctx context.Context) error
}

const loginHint = "Please login first (use 'login' or 'register')"

// protected lists commands that need an active session.
var protected = map[string]bool{
	"dashboard": true,
	"profile":   true,
	"passwd":    true,
	"events":    true,
	"addevent":  true,
	"backup":    true,
}

// runREPL reads one command per line from reader and dispatches it to a
// until EOF or "exit"/"quit". Protected commands print loginHint when no
// session is active. Handler errors are reported by the handlers.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("pk %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		if protected[cmd] && !a.isLoggedIn() {
			printlnFn(loginHint)
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: dashboard, profile, passwd, events, addevent, backup, whoami, logout, reset, exit")
			} else {
				printlnFn("Available commands: register, login, whoami, reset, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "dashboard":
			_ = a.Dashboard(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "passwd":
			_ = a.Passwd(ctx)

		case "events":
			_ = a.Events(ctx)

		case "addevent":
			_ = a.AddEvent(ctx)

		case "backup":
			_ = a.Backup(ctx)

		case "reset":
			_ = a.Reset(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
