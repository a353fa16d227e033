package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  [][]string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	return f.record("register", nil)
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) Recovery(ctx context.Context) error {
	return f.record("recovery", nil)
}
func (f *fakeExec) Add(ctx context.Context) error   { return f.record("add", nil) }
func (f *fakeExec) Mkdir(ctx context.Context) error { return f.record("mkdir", nil) }
func (f *fakeExec) List(ctx context.Context, args []string) error {
	return f.record("list", args)
}
func (f *fakeExec) Show(ctx context.Context, args []string) error {
	return f.record("show", args)
}
func (f *fakeExec) Edit(ctx context.Context, args []string) error {
	return f.record("edit", args)
}
func (f *fakeExec) Move(ctx context.Context, args []string) error {
	return f.record("move", args)
}
func (f *fakeExec) Search(ctx context.Context, args []string) error {
	return f.record("search", args)
}
func (f *fakeExec) Tag(ctx context.Context, args []string) error {
	return f.record("tag", args)
}
func (f *fakeExec) Links(ctx context.Context, args []string) error {
	return f.record("links", args)
}

func silencePrintln(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	silencePrintln(t)

	input := strings.Join([]string{
		"help",
		"login",
		"add",
		"list",
		"search project plan",
		"tag work",
		"links Roadmap",
		"move Plan Projects",
		"nonsense",
		"logout",
		"exit",
		"list", // never reached
	}, "\n") + "\n"

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(strings.NewReader(input)))

	want := []string{"login", "add", "list", "search", "tag", "links", "move", "logout"}
	if len(exec.calls) != len(want) {
		t.Fatalf("calls = %+v, want %+v", exec.calls, want)
	}
	for i := range want {
		if exec.calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q", i, exec.calls[i], want[i])
		}
	}

	// Arguments after the command name are passed through.
	if got := strings.Join(exec.args[3], " "); got != "project plan" {
		t.Fatalf("search args = %q", got)
	}
	if got := strings.Join(exec.args[6], " "); got != "Plan Projects" {
		t.Fatalf("move args = %q", got)
	}
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	silencePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("list\n")))

	if len(exec.calls) != 1 || exec.calls[0] != "list" {
		t.Fatalf("calls = %+v", exec.calls)
	}
}
