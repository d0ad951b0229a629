package app

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
	List(ctx context.Context) error
	More(ctx context.Context) error
	Search(ctx context.Context, query string) error
	ResetSearch(ctx context.Context) error
	Profile(ctx context.Context, login string) error
	Note(ctx context.Context, login, content string) error
	Avatar(ctx context.Context, login string) error
}

// runREPL starts a simple read–eval–print loop for the hubsync CLI.
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
//   - help                   — show available commands
//   - list | l               — show the current listing
//   - more | m               — fetch the next page
//   - search <query>         — filter by login or note text
//   - reset                  — clear the active search
//   - profile <login>        — show a profile, fetching it if needed
//   - note <login> <text>    — attach or replace a note
//   - avatar <login>         — fetch the avatar into the cache
//   - exit | quit            — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("hub> %s ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: (l)ist, (m)ore, search <query>, reset, profile <login>, note <login> <text>, avatar <login>, exit")

		case "l", "list":
			_ = a.List(ctx)

		case "m", "more":
			_ = a.More(ctx)

		case "search":
			if len(args) == 0 {
				printlnFn("Usage: search <query>")
				continue
			}
			_ = a.Search(ctx, strings.Join(args, " "))

		case "reset":
			_ = a.ResetSearch(ctx)

		case "profile":
			if len(args) != 1 {
				printlnFn("Usage: profile <login>")
				continue
			}
			_ = a.Profile(ctx, args[0])

		case "note":
			if len(args) < 2 {
				printlnFn("Usage: note <login> <text>")
				continue
			}
			_ = a.Note(ctx, args[0], strings.Join(args[1:], " "))

		case "avatar":
			if len(args) != 1 {
				printlnFn("Usage: avatar <login>")
				continue
			}
			_ = a.Avatar(ctx, args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
