package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/smileynet/contacts/internal/browse"
	"github.com/smileynet/contacts/internal/config"
	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/logging"
	"github.com/smileynet/contacts/internal/render"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI is the top-level command structure for contacts.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	List    ListCmd          `cmd:"" help:"List all contacts."`
	Get     GetCmd           `cmd:"" help:"Show one contact by id."`
	Add     AddCmd           `cmd:"" help:"Add a contact."`
	Remove  RemoveCmd        `cmd:"" help:"Delete a contact by id."`
	Init    InitCmd          `cmd:"" help:"Create an empty contact file if it does not exist."`
	Browse  BrowseCmd        `cmd:"" help:"Browse and delete contacts interactively."`
}

// Globals holds flags shared by every command. Set flags override config
// files and environment variables.
type Globals struct {
	Config   string `help:"Config file to use instead of the default locations." type:"existingfile" placeholder:"PATH"`
	File     string `help:"Contact file path." short:"f" placeholder:"PATH"`
	Plain    bool   `help:"Force plain text output even if stdout is a TTY."`
	LogLevel string `help:"Log level (debug, info, warn, error)." placeholder:"LEVEL"`
	LogFile  string `help:"Write JSON logs to this file instead of stderr." placeholder:"PATH"`
}

// env carries process-level dependencies into command Run methods.
type env struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
	isTTY  bool
}

// ListCmd prints every contact.
type ListCmd struct {
	IDs bool `name:"ids" help:"Include the id column."`
}

// GetCmd prints one contact.
type GetCmd struct {
	ID string `arg:"" help:"Contact id."`
}

// AddCmd creates a contact from its three fields.
type AddCmd struct {
	Name  string `arg:"" help:"Contact name."`
	Email string `arg:"" help:"Contact email."`
	Phone string `arg:"" help:"Contact phone."`
}

// RemoveCmd deletes a contact.
type RemoveCmd struct {
	ID string `arg:"" help:"Contact id."`
}

// InitCmd creates the backing file.
type InitCmd struct{}

// BrowseCmd opens the interactive browser.
type BrowseCmd struct{}

// errNotFound is returned after the not-found message has been printed.
var errNotFound = errors.New("contact not found")

// reportedError marks an error whose message the printer has already shown.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// app is the per-invocation wiring of config, logger, store, and printer.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *contact.FileStore
	env    *env
}

// open resolves configuration and builds the logger and store.
func (g *Globals) open(e *env) (*app, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}
	logger.Debug("config resolved",
		zap.String("store", cfg.Store.Path),
		zap.Bool("plain", cfg.Output.Plain),
	)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  contact.NewFileStore(cfg.Store.Path, contact.WithLogger(logger)),
		env:    e,
	}, nil
}

// loadConfig loads layered config from user and project paths, or the
// --config file, then applies env overrides and flags.
func (g *Globals) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.Config != "" {
		cfg, err = config.Load(g.Config)
	} else {
		cfg, err = config.LoadLayered(
			os.ExpandEnv("$HOME/.config/contacts/config.yaml"),
			".contacts.yaml",
		)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if g.File != "" {
		cfg.Store.Path = g.File
	}
	if g.Plain {
		cfg.Output.Plain = true
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFile != "" {
		cfg.Log.File = g.LogFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) printer() render.Printer {
	return render.NewPrinter(render.Options{
		Writer:     a.env.stdout,
		ErrWriter:  a.env.stderr,
		ForcePlain: a.cfg.Output.Plain,
		ShowIDs:    a.cfg.Output.ShowIDs,
	})
}

// fail prints err with its kind and marks it as reported.
func (a *app) fail(p render.Printer, err error) error {
	p.Error(err)
	return &reportedError{err: err}
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// Run executes the list command.
func (l *ListCmd) Run(g *Globals, e *env) error {
	a, err := g.open(e)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	defer a.close()

	if l.IDs {
		a.cfg.Output.ShowIDs = true
	}
	p := a.printer()

	contacts, err := a.store.List(e.ctx)
	if err != nil {
		return a.fail(p, err)
	}
	p.List(contacts)
	return nil
}

// Run executes the get command.
func (c *GetCmd) Run(g *Globals, e *env) error {
	a, err := g.open(e)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	defer a.close()
	p := a.printer()

	found, ok, err := a.store.Find(e.ctx, c.ID)
	if err != nil {
		return a.fail(p, err)
	}
	if !ok {
		p.NotFound(c.ID)
		return &reportedError{err: errNotFound}
	}
	p.Contact(found)
	return nil
}

// Run executes the add command.
func (c *AddCmd) Run(g *Globals, e *env) error {
	a, err := g.open(e)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	defer a.close()
	p := a.printer()

	added, err := a.store.Add(e.ctx, c.Name, c.Email, c.Phone)
	if err != nil {
		return a.fail(p, err)
	}
	p.Added(added)
	return nil
}

// Run executes the remove command.
func (c *RemoveCmd) Run(g *Globals, e *env) error {
	a, err := g.open(e)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	defer a.close()
	p := a.printer()

	removed, err := a.store.Remove(e.ctx, c.ID)
	if err != nil {
		return a.fail(p, err)
	}
	if !removed {
		p.NotFound(c.ID)
		return &reportedError{err: errNotFound}
	}
	p.Removed(c.ID)
	return nil
}

// Run executes the init command.
func (c *InitCmd) Run(g *Globals, e *env) error {
	a, err := g.open(e)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.close()
	p := a.printer()

	created, err := a.store.Init(e.ctx)
	if err != nil {
		return a.fail(p, err)
	}
	p.Initialized(a.store.Path(), created)
	return nil
}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run executes the browse command.
func (b *BrowseCmd) Run(g *Globals, e *env) error {
	if !e.isTTY {
		return fmt.Errorf("browse: requires a terminal (TTY)")
	}

	a, err := g.open(e)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	defer a.close()

	m := browse.NewModel(e.ctx, a.store)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(e.ctx))
	return b.run(prog)
}

// run executes the tea program, enabling testable wiring.
func (b *BrowseCmd) run(prog teaRunner) error {
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}

// Exit codes.
const (
	exitSuccess = 0
	exitFailure = 1
	exitRead    = 2
	exitWrite   = 3
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, contact.ErrRead):
		return exitRead
	case errors.Is(err, contact.ErrWrite):
		return exitWrite
	default:
		return exitFailure
	}
}

// execute runs the selected command and reports any error not yet shown.
func execute(kctx *kong.Context, g *Globals, e *env) int {
	err := kctx.Run(g, e)
	if err == nil {
		return exitSuccess
	}
	var reported *reportedError
	if !errors.As(err, &reported) {
		fmt.Fprintf(e.stderr, "error: %s\n", err)
	}
	return exitCode(err)
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("contacts"),
		kong.Description("Manage a contact book stored in a JSON file."),
		kong.UsageOnError(),
		kong.Vars{"version": version + " " + commit + " " + date},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	e := &env{
		ctx:    ctx,
		stdout: os.Stdout,
		stderr: os.Stderr,
		isTTY:  isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
	code := execute(kctx, &cli.Globals, e)
	stop()
	os.Exit(code)
}
