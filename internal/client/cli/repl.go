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
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	List(ctx context.Context) error
	Check(ctx context.Context, name string) error
	Create(ctx context.Context, name string, value bool, description string) error
	Rename(ctx context.Context, name, newName, description string) error
	Toggle(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	Users(ctx context.Context) error
	Snapshot(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: (l)ist, check <name>, register, login, users, exit"
	helpLoggedIn  = "Available commands: (l)ist, check <name>, create <name> <true|false> [description], " +
		"rename <name> <new name> [description], toggle <name>, remove <name>, users, whoami, snapshot, logout, exit"
)

// usage is printed when a command gets the wrong arguments.
var usage = map[string]string{
	"check":  "Usage: check <name>",
	"create": "Usage: create <name> <true|false> [description]",
	"rename": "Usage: rename <name> <new name> [description]",
	"toggle": "Usage: toggle <name>",
	"remove": "Usage: remove <name>",
}

// runREPL starts a simple read–eval–print loop for the OpenFlag CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and the rest as its arguments, and dispatches to methods on 'a'.
// Unknown commands are reported back to the user. The loop exits on scanner
// EOF or when the user types "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("openflag%s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "check":
			if len(args) != 1 {
				printlnFn(usage[cmd])
				continue
			}
			_ = a.Check(ctx, args[0])

		case "create":
			if len(args) < 2 {
				printlnFn(usage[cmd])
				continue
			}
			value, ok := parseBool(args[1])
			if !ok {
				printlnFn(usage[cmd])
				continue
			}
			_ = a.Create(ctx, args[0], value, strings.Join(args[2:], " "))

		case "rename":
			if len(args) < 2 {
				printlnFn(usage[cmd])
				continue
			}
			_ = a.Rename(ctx, args[0], args[1], strings.Join(args[2:], " "))

		case "toggle":
			if len(args) != 1 {
				printlnFn(usage[cmd])
				continue
			}
			_ = a.Toggle(ctx, args[0])

		case "remove":
			if len(args) != 1 {
				printlnFn(usage[cmd])
				continue
			}
			_ = a.Remove(ctx, args[0])

		case "users":
			_ = a.Users(ctx)

		case "snapshot":
			_ = a.Snapshot(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "on", "1", "yes":
		return true, true
	case "false", "off", "0", "no":
		return false, true
	default:
		return false, false
	}
}
