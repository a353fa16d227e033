package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate. The
// real App type satisfies this interface; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Recovery(ctx context.Context) error
	Add(ctx context.Context) error
	Mkdir(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Move(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Tag(ctx context.Context, args []string) error
	Links(ctx context.Context, args []string) error
}

// runREPL reads a line, parses the first token as the command and
// dispatches to methods on 'a'. The loop exits on EOF or when the user
// types "exit" or "quit". Command errors are printed, never fatal.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("nv> %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && !(err == io.EOF && len(line) > 0) {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: add, mkdir, list, show, edit, move, search, tag, links, recovery, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}
		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "recovery":
			cmdErr = a.Recovery(ctx)
		case "add":
			cmdErr = a.Add(ctx)
		case "mkdir":
			cmdErr = a.Mkdir(ctx)
		case "list", "ls":
			cmdErr = a.List(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "edit":
			cmdErr = a.Edit(ctx, args)
		case "move", "mv":
			cmdErr = a.Move(ctx, args)
		case "search":
			cmdErr = a.Search(ctx, args)
		case "tag":
			cmdErr = a.Tag(ctx, args)
		case "links":
			cmdErr = a.Links(ctx, args)
		case "exit", "quit":
			return
		default:
			printlnFn("Unknown command. Type 'help' for the list of commands.")
		}

		if cmdErr != nil {
			printlnFn("Error: " + cmdErr.Error())
		}
	}
}
