package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/contacts/internal/contact"
)

// errExitCalled is a sentinel used to catch kong's os.Exit calls in tests.
var errExitCalled = errors.New("exit called")

var idLine = regexp.MustCompile(`(?m)^  id:\s+(\S+)$`)

// isolate points HOME and the working directory at fresh temp dirs and
// clears the environment overrides so only the test's flags apply.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
	t.Setenv("CONTACTS_FILE", "")
	t.Setenv("CONTACTS_PLAIN", "")
	t.Setenv("CONTACTS_LOG_LEVEL", "")
	t.Setenv("CONTACTS_LOG_FILE", os.DevNull)
	return dir
}

// invoke parses args and runs the command, returning the exit code and output.
func invoke(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var cli CLI
	var usage bytes.Buffer
	k, err := kong.New(&cli,
		kong.Name("contacts"),
		kong.Vars{"version": "test"},
		kong.Writers(&usage, &usage),
		kong.Exit(func(int) { panic(errExitCalled) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	kctx, err := k.Parse(args)
	if err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}

	var out, errOut bytes.Buffer
	e := &env{ctx: context.Background(), stdout: &out, stderr: &errOut}
	code = execute(kctx, &cli.Globals, e)
	return code, out.String(), errOut.String()
}

func TestFeature_CLIParsing(t *testing.T) {
	t.Run("version flag prints version", func(t *testing.T) {
		// Given: a CLI parser with a version string
		var cli CLI
		var buf bytes.Buffer
		k, err := kong.New(&cli,
			kong.Vars{"version": "v1.0.0 abc1234 2026-01-01T00:00:00Z"},
			kong.Writers(&buf, &buf),
			kong.Exit(func(int) { panic(errExitCalled) }),
		)
		if err != nil {
			t.Fatal(err)
		}

		// When: -V is passed
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected panic from -V flag")
			}
			err, ok := r.(error)
			if !ok || !errors.Is(err, errExitCalled) {
				panic(r)
			}

			// Then: the version string is printed
			if !strings.Contains(buf.String(), "v1.0.0 abc1234") {
				t.Errorf("version output = %q", buf.String())
			}
		}()

		k.Parse([]string{"-V"}) //nolint:errcheck // -V triggers panic via Exit hook
	})

	t.Run("no args errors", func(t *testing.T) {
		var cli CLI
		k, err := kong.New(&cli, kong.Vars{"version": "test"})
		if err != nil {
			t.Fatal(err)
		}

		if _, err := k.Parse([]string{}); err == nil {
			t.Fatal("expected error when no command provided")
		}
	})

	t.Run("add takes three verbatim arguments", func(t *testing.T) {
		// Given: a CLI parser
		var cli CLI
		k, err := kong.New(&cli, kong.Vars{"version": "test"})
		if err != nil {
			t.Fatal(err)
		}

		// When: add is invoked with spaces and an empty field
		kctx, err := k.Parse([]string{"add", "Ada Lovelace", "ada@example.com", ""})
		if err != nil {
			t.Fatal(err)
		}

		// Then: all three fields are captured as given
		if kctx.Command() != "add <name> <email> <phone>" {
			t.Errorf("command = %q", kctx.Command())
		}
		if cli.Add.Name != "Ada Lovelace" || cli.Add.Email != "ada@example.com" || cli.Add.Phone != "" {
			t.Errorf("add = %+v", cli.Add)
		}
	})

	t.Run("add requires three arguments", func(t *testing.T) {
		var cli CLI
		k, err := kong.New(&cli, kong.Vars{"version": "test"})
		if err != nil {
			t.Fatal(err)
		}

		if _, err := k.Parse([]string{"add", "Ada"}); err == nil {
			t.Fatal("expected error for missing email and phone")
		}
	})

	t.Run("global flags parse before the command", func(t *testing.T) {
		var cli CLI
		k, err := kong.New(&cli, kong.Vars{"version": "test"})
		if err != nil {
			t.Fatal(err)
		}

		_, err = k.Parse([]string{"--file", "x.json", "--plain", "--log-level", "debug", "list", "--ids"})
		if err != nil {
			t.Fatal(err)
		}

		if cli.File != "x.json" || !cli.Plain || cli.LogLevel != "debug" || !cli.List.IDs {
			t.Errorf("globals = %+v, ids = %v", cli.Globals, cli.List.IDs)
		}
	})

	t.Run("missing config file is rejected", func(t *testing.T) {
		var cli CLI
		k, err := kong.New(&cli, kong.Vars{"version": "test"})
		if err != nil {
			t.Fatal(err)
		}

		if _, err := k.Parse([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "list"}); err == nil {
			t.Fatal("expected error for a missing --config file")
		}
	})
}

func TestFeature_ContactLifecycle(t *testing.T) {
	isolate(t)
	file := filepath.Join("db", "contacts.json")
	if err := os.Mkdir("db", 0o755); err != nil {
		t.Fatal(err)
	}

	// Given: an initialized, empty contact file at the default path
	code, out, _ := invoke(t, "init")
	if code != exitSuccess {
		t.Fatalf("init exit = %d", code)
	}
	if !strings.Contains(out, "Created empty contact file "+file) {
		t.Errorf("init output = %q", out)
	}

	code, out, _ = invoke(t, "list")
	if code != exitSuccess || out != "Empty contacts list.\n" {
		t.Fatalf("list exit = %d output = %q", code, out)
	}

	// When: Ada Lovelace is added
	code, out, _ = invoke(t, "add", "Ada Lovelace", "ada@example.com", "555-0100")
	if code != exitSuccess {
		t.Fatalf("add exit = %d", code)
	}
	if !strings.HasPrefix(out, "Contact has been added.\n") {
		t.Errorf("add output = %q", out)
	}
	m := idLine.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("add output has no id line: %q", out)
	}
	id := m[1]

	// Then: she can be listed and fetched by id
	code, out, _ = invoke(t, "list")
	if code != exitSuccess || !strings.Contains(out, "Ada Lovelace  ada@example.com  555-0100") {
		t.Errorf("list exit = %d output = %q", code, out)
	}

	code, out, _ = invoke(t, "get", id)
	if code != exitSuccess || !strings.HasPrefix(out, "Contact by id "+id+":\n") {
		t.Errorf("get exit = %d output = %q", code, out)
	}

	// When: she is removed twice
	code, out, _ = invoke(t, "remove", id)
	if code != exitSuccess || out != "Contact with id "+id+" has been deleted.\n" {
		t.Errorf("remove exit = %d output = %q", code, out)
	}
	code, out, errOut := invoke(t, "remove", id)

	// Then: the second removal reports not found and exits 1
	if code != exitFailure || out != "Contact with id "+id+" not exist!\n" {
		t.Errorf("second remove exit = %d output = %q", code, out)
	}
	if errOut != "" {
		t.Errorf("not found should not print an error, got %q", errOut)
	}

	code, out, _ = invoke(t, "get", id)
	if code != exitFailure || !strings.Contains(out, "not exist!") {
		t.Errorf("get after remove exit = %d output = %q", code, out)
	}

	code, out, _ = invoke(t, "init")
	if code != exitSuccess || !strings.Contains(out, "already exists") {
		t.Errorf("second init exit = %d output = %q", code, out)
	}
}

func TestFeature_ReadFailures(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		args    []string
	}{
		{name: "list missing file", args: []string{"list"}},
		{name: "get missing file", args: []string{"get", "x"}},
		{name: "remove missing file", args: []string{"remove", "x"}},
		{name: "add invalid json", content: ptr("{not json"), args: []string{"add", "a", "b", "c"}},
		{name: "list wrong shape", content: ptr(`{"id":"1"}`), args: []string{"list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a missing or corrupt contact file
			dir := isolate(t)
			file := filepath.Join(dir, "c.json")
			if tt.content != nil {
				if err := os.WriteFile(file, []byte(*tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			// When: a command reads it
			code, out, errOut := invoke(t, append([]string{"--file", file}, tt.args...)...)

			// Then: a read error is printed once and the exit code is 2
			if code != exitRead {
				t.Errorf("exit = %d, want %d", code, exitRead)
			}
			if !strings.HasPrefix(errOut, "read error: ") || strings.Count(errOut, "\n") != 1 {
				t.Errorf("stderr = %q, want a single read error line", errOut)
			}
			if out != "" {
				t.Errorf("stdout = %q, want empty", out)
			}
			if tt.content != nil {
				got, _ := os.ReadFile(file)
				if string(got) != *tt.content {
					t.Errorf("file changed to %q", got)
				}
			}
		})
	}
}

func TestFeature_InitWriteFailure(t *testing.T) {
	// Given: a path whose parent directory does not exist
	dir := isolate(t)
	file := filepath.Join(dir, "missing", "c.json")

	// When: init tries to create it
	code, _, errOut := invoke(t, "--file", file, "init")

	// Then: a write error is printed and the exit code is 3
	if code != exitWrite {
		t.Errorf("exit = %d, want %d", code, exitWrite)
	}
	if !strings.HasPrefix(errOut, "write error: ") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestFeature_Configuration(t *testing.T) {
	t.Run("config file selects the store path", func(t *testing.T) {
		// Given: a config file pointing at a custom contact file
		dir := isolate(t)
		file := filepath.Join(dir, "custom.json")
		if err := os.WriteFile(file, []byte(`[{"id":"1","name":"Grace Hopper","email":"g@example.com","phone":"1"}]`), 0o644); err != nil {
			t.Fatal(err)
		}
		cfgPath := filepath.Join(dir, "cfg.yaml")
		if err := os.WriteFile(cfgPath, []byte("store:\n  path: "+file+"\noutput:\n  show_ids: true\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		// When: list runs with --config
		code, out, _ := invoke(t, "--config", cfgPath, "list")

		// Then: the configured file and id column are used
		if code != exitSuccess || !strings.Contains(out, "Grace Hopper") || !strings.Contains(out, "ID") {
			t.Errorf("exit = %d output = %q", code, out)
		}
	})

	t.Run("config flag replaces the default locations", func(t *testing.T) {
		// Given: a project config naming a missing file and an explicit config naming a real one
		dir := isolate(t)
		if err := os.WriteFile(".contacts.yaml", []byte("store:\n  path: missing.json\noutput:\n  show_ids: true\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "real.json"), []byte("[]"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfgPath := filepath.Join(dir, "explicit.yaml")
		if err := os.WriteFile(cfgPath, []byte("store:\n  path: real.json\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		// When: list runs with --config
		code, out, _ := invoke(t, "--config", cfgPath, "list")

		// Then: only the explicit file is read
		if code != exitSuccess || out != "Empty contacts list.\n" {
			t.Errorf("exit = %d output = %q", code, out)
		}
	})

	t.Run("invalid config file is a setup error", func(t *testing.T) {
		dir := isolate(t)
		cfgPath := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(cfgPath, []byte("store: [unclosed\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		code, _, errOut := invoke(t, "--config", cfgPath, "list")

		if code != exitFailure || !strings.HasPrefix(errOut, "error: list: config:") {
			t.Errorf("exit = %d stderr = %q", code, errOut)
		}
	})

	t.Run("project config is picked up from the working directory", func(t *testing.T) {
		dir := isolate(t)
		if err := os.WriteFile(filepath.Join(dir, "mine.json"), []byte("[]"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(".contacts.yaml", []byte("store:\n  path: mine.json\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		code, out, _ := invoke(t, "list")

		if code != exitSuccess || out != "Empty contacts list.\n" {
			t.Errorf("exit = %d output = %q", code, out)
		}
	})

	t.Run("env overrides config and flag overrides env", func(t *testing.T) {
		dir := isolate(t)
		envFile := filepath.Join(dir, "env.json")
		flagFile := filepath.Join(dir, "flag.json")
		if err := os.WriteFile(envFile, []byte("[]"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("CONTACTS_FILE", envFile)

		code, _, _ := invoke(t, "list")
		if code != exitSuccess {
			t.Errorf("env path: exit = %d, want success", code)
		}

		code, _, _ = invoke(t, "--file", flagFile, "list")
		if code != exitRead {
			t.Errorf("flag path: exit = %d, want read failure for missing flag file", code)
		}
	})

	t.Run("invalid log level is a setup error", func(t *testing.T) {
		dir := isolate(t)

		code, out, errOut := invoke(t, "--file", filepath.Join(dir, "c.json"), "--log-level", "loud", "list")

		if code != exitFailure {
			t.Errorf("exit = %d, want %d", code, exitFailure)
		}
		if !strings.HasPrefix(errOut, "error: list: config: unknown log.level") {
			t.Errorf("stderr = %q", errOut)
		}
		if out != "" {
			t.Errorf("stdout = %q, want empty", out)
		}
	})

	t.Run("log file receives JSON entries", func(t *testing.T) {
		dir := isolate(t)
		logPath := filepath.Join(dir, "contacts.log")

		invoke(t, "--file", filepath.Join(dir, "missing.json"), "--log-file", logPath, "list")

		data, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"level":"warn"`) {
			t.Errorf("log = %q, want a warn entry for the read failure", data)
		}
	})
}

func TestExitCode(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitSuccess},
		{name: "read", err: &reportedError{err: &contact.ReadError{Path: "c", Err: cause}}, want: exitRead},
		{name: "write", err: &reportedError{err: &contact.WriteError{Path: "c", Err: cause}}, want: exitWrite},
		{name: "not found", err: &reportedError{err: errNotFound}, want: exitFailure},
		{name: "other", err: cause, want: exitFailure},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%s) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

// fakeProgram records whether Run was called.
type fakeProgram struct {
	called bool
	err    error
}

func (f *fakeProgram) Run() (tea.Model, error) {
	f.called = true
	return nil, f.err
}

func TestFeature_BrowseCommand(t *testing.T) {
	t.Run("requires a terminal", func(t *testing.T) {
		isolate(t)

		code, _, errOut := invoke(t, "browse")

		if code != exitFailure || !strings.Contains(errOut, "requires a terminal") {
			t.Errorf("exit = %d stderr = %q", code, errOut)
		}
	})

	t.Run("runs the program", func(t *testing.T) {
		prog := &fakeProgram{}

		if err := (&BrowseCmd{}).run(prog); err != nil {
			t.Fatalf("run() = %v", err)
		}
		if !prog.called {
			t.Error("program was not run")
		}
	})

	t.Run("killed program is not an error", func(t *testing.T) {
		prog := &fakeProgram{err: tea.ErrProgramKilled}

		if err := (&BrowseCmd{}).run(prog); err != nil {
			t.Errorf("run() = %v, want nil", err)
		}
	})

	t.Run("program failure is wrapped", func(t *testing.T) {
		prog := &fakeProgram{err: errors.New("tty gone")}

		err := (&BrowseCmd{}).run(prog)
		if err == nil || !strings.HasPrefix(err.Error(), "browse: ") {
			t.Errorf("run() = %v, want wrapped error", err)
		}
	})
}

func ptr(s string) *string { return &s }
