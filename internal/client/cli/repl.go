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
	Add(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Done(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Dead(ctx context.Context) error
	Requeue(ctx context.Context, args []string) error
	Remote(ctx context.Context) error
}

const helpText = `Available commands:
  add [title]        add a record (prompts when no title is given)
  (l)ist             list records, pending ones are marked
  show <id>          show one record
  edit <id>          change title and notes
  done <id>          toggle completed
  delete|rm <id>     delete a record
  sync               sync now
  status|pending     outbox status
  dead               list items that failed permanently
  requeue [id...]    retry failed items (all when no id is given)
  remote             list what the server holds
  exit|quit          leave`

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit". A failing command prints its error and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("sb %s> ", statusFn()))
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
			printlnFn(helpText)
		case "add":
			err = a.Add(ctx, args)
		case "l", "list":
			err = a.List(ctx)
		case "show":
			err = a.Show(ctx, args)
		case "edit":
			err = a.Edit(ctx, args)
		case "done":
			err = a.Done(ctx, args)
		case "delete", "rm":
			err = a.Delete(ctx, args)
		case "sync":
			err = a.Sync(ctx)
		case "status", "pending":
			err = a.Status(ctx)
		case "dead":
			err = a.Dead(ctx)
		case "requeue":
			err = a.Requeue(ctx, args)
		case "remote":
			err = a.Remote(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
