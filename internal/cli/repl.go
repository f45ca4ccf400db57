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
	Paste(ctx context.Context) error
	Add(ctx context.Context, paths []string) error
	AddDir(ctx context.Context, path string) error
	Copy(ctx context.Context, args []string) error
	ToggleMode(ctx context.Context) error
	SetScheme(ctx context.Context, value string) error
	SetCrop(ctx context.Context, value string) error
	Template(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Clear(ctx context.Context) error
	Watch(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the picdrop CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands:
//
//   - help                     — show available commands
//   - paste                    — upload files or URLs from the clipboard
//   - add <file> [file ...]    — upload the given files as one batch
//   - adddir <dir>             — upload every file in a directory as a group
//   - copy [kind] [n]          — copy links of section n (default: last)
//   - mode                     — toggle between single and batch copy
//   - scheme <value>           — set the link scheme (http, https, relative)
//   - crop <value>             — set the sizing variant (preset or WxH)
//   - template <value> | off   — set or disable the URL template override
//   - list                     — list rendered sections
//   - clear                    — discard all rendered sections
//   - watch                    — start watching the configured drop directory
//   - exit | quit              — leave the program
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pd> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: paste, add, adddir, copy, mode, scheme, crop, template, (l)ist, clear, watch, exit")

		case "paste":
			_ = a.Paste(ctx)

		case "add":
			if len(args) == 0 {
				printlnFn("Usage: add <file> [file ...]")
				continue
			}
			_ = a.Add(ctx, args)

		case "adddir":
			if len(args) != 1 {
				printlnFn("Usage: adddir <dir>")
				continue
			}
			_ = a.AddDir(ctx, args[0])

		case "copy":
			_ = a.Copy(ctx, args)

		case "mode":
			_ = a.ToggleMode(ctx)

		case "scheme":
			if len(args) != 1 {
				printlnFn("Usage: scheme <http|https|relative>")
				continue
			}
			_ = a.SetScheme(ctx, args[0])

		case "crop":
			if len(args) != 1 {
				printlnFn("Usage: crop <original|medium|thumbnail|WxH>")
				continue
			}
			_ = a.SetCrop(ctx, args[0])

		case "template":
			if len(args) == 0 {
				printlnFn("Usage: template <value> | template off")
				continue
			}
			_ = a.Template(ctx, args)

		case "l", "list":
			_ = a.List(ctx)

		case "clear":
			_ = a.Clear(ctx)

		case "watch":
			_ = a.Watch(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
