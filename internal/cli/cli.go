// Package cli implements villactl, a terminal client that shares the auth
// state, route guard and API client with the web front end. The credential
// lives in a file instead of a cookie.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spec-kit/villa-web/internal/api/dto"
	"github.com/spec-kit/villa-web/internal/apiclient"
	"github.com/spec-kit/villa-web/internal/authstate"
	"github.com/spec-kit/villa-web/internal/cache"
	"github.com/spec-kit/villa-web/internal/config"
	"github.com/spec-kit/villa-web/internal/events"
	"github.com/spec-kit/villa-web/internal/service"
	"github.com/spec-kit/villa-web/internal/session"
)

// ErrUsage marks bad command lines. main exits with status 2 for it.
var ErrUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

type command struct {
	summary string
	usage   string
	// flags registers the command's own flags and returns the struct they
	// are bound to; run receives that struct as params.
	flags func(fs *pflag.FlagSet) any
	run   func(a *App, ctx context.Context, e *env, params any, args []string) error
}

var commands = map[string]command{
	"login":        loginCommand,
	"logout":       logoutCommand,
	"whoami":       whoamiCommand,
	"open":         openCommand,
	"villas":       villasCommand,
	"catalog":      catalogCommand,
	"create-villa": createVillaCommand,
	"register":     registerCommand,
}

// App runs villactl commands.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
	readPassword func() (string, error)
}

// Option configures an App.
type Option func(*App)

// WithIO replaces the process streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(a *App) {
		a.stdin, a.stdout, a.stderr = stdin, stdout, stderr
	}
}

// WithPasswordPrompt replaces the terminal password prompt.
func WithPasswordPrompt(fn func() (string, error)) Option {
	return func(a *App) { a.readPassword = fn }
}

// New returns an App reading its defaults from cfg.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:    cfg,
		logger: logger,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	a.readPassword = a.promptPassword
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// env holds what every command needs once its flags are parsed.
type env struct {
	sessionFile string
	state       *authstate.State
	dispatcher  events.Dispatcher
	sessions    *service.SessionService
	villas      *service.VillaService
	catalog     *service.CatalogService
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.printHelp()
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		a.printHelp()
		return usageError("unknown command %q", args[0])
	}

	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	apiURL := fs.String("api", a.cfg.API.BaseURL, "villa API base URL")
	sessionFile := fs.String("session-file", session.DefaultFilePath(), "credential file")
	var params any
	if cmd.flags != nil {
		params = cmd.flags(fs)
	}
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: villactl %s\n\n%s\n\nFlags:\n%s", cmd.usage, cmd.summary, fs.FlagUsages())
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usageError("%v", err)
	}

	e := a.newEnv(ctx, *apiURL, *sessionFile)
	return cmd.run(a, ctx, e, params, fs.Args())
}

func (a *App) newEnv(ctx context.Context, apiURL, sessionFile string) *env {
	dispatcher := events.NewInMemoryDispatcher()
	service.StartAuditService(dispatcher, a.logger, nil)

	client := apiclient.New(apiURL,
		apiclient.WithTimeout(a.cfg.API.Timeout()),
		apiclient.WithLogger(a.logger),
	)
	state := authstate.New(session.NewFileStore(sessionFile),
		authstate.WithLogger(a.logger),
		authstate.WithDispatcher(dispatcher),
	)
	state.Initialize(ctx)

	validate := dto.NewValidator()
	return &env{
		sessionFile: sessionFile,
		state:       state,
		dispatcher:  dispatcher,
		sessions:    service.NewSessionService(client, validate, a.logger),
		villas:      service.NewVillaService(client, validate, a.logger),
		catalog:     service.NewCatalogService(client, cache.NewCatalog(nil, 0, a.logger)),
	}
}

func (a *App) printHelp() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.stdout, "Usage: villactl <command> [flags]")
	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, "Commands:")
	for _, name := range names {
		fmt.Fprintf(a.stdout, "  %-13s %s\n", name, commands[name].summary)
	}
}

// promptPassword reads a password from the terminal with echo disabled.
func (a *App) promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", usageError("no terminal available for the password prompt (use --password-stdin)")
	}
	fmt.Fprint(a.stderr, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(a.stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(password), nil
}

// password returns the password from the first stdin line or the prompt.
func (a *App) password(fromStdin bool) (string, error) {
	if !fromStdin {
		return a.readPassword()
	}
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
