package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/kedaara/performance-hub/config"
	"github.com/kedaara/performance-hub/internal/bootstrap"
	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/domain/nav"
	"github.com/kedaara/performance-hub/internal/domain/routing"
	"github.com/kedaara/performance-hub/internal/ports"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	// needsConfig is false for commands that only inspect compiled-in tables.
	needsConfig bool
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
	In     io.Reader
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 30 * time.Second
)

func main() {
	logger := bootstrap.InitLogger(false)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{Ctx: ctx, Logger: logger, Out: os.Stdout, In: os.Stdin}
	if cmd.needsConfig {
		cfg, err := bootstrap.LoadConfig()
		if err != nil {
			logger.ErrorContext(ctx, "load config", "error", err)
			stop()
			os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
		}
		cmdCtx.Config = cfg
	}

	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations for the postgres session backend",
			needsConfig: true,
			run:         runMigrations,
		},
		"purge-sessions": {
			name:        "purge-sessions",
			description: "Delete expired session slots from Postgres",
			needsConfig: true,
			run:         runPurgeSessions,
		},
		"show-session": {
			name:        "show-session",
			description: "Print the principal stored in a session slot",
			needsConfig: true,
			run:         runShowSession,
		},
		"revoke-session": {
			name:        "revoke-session",
			description: "Delete a session slot, signing its holder out",
			needsConfig: true,
			run:         runRevokeSession,
		},
		"routes": {
			name:        "routes",
			description: "Print the route table and per-role navigation",
			run:         runRoutes,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: kph-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := writef(w, "  %-24s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{Timeout: defaultMigrationTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := connectDB(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx.Logger, db)

	cmdCtx.Logger.Info("running database migrations")
	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}
	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func runPurgeSessions(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("purge-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	timeout := fs.Duration("timeout", defaultCommandTimeout, "Maximum duration for the purge")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, *timeout)
	defer cancel()

	purger, release, err := openPurger(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer release()

	n, err := purger.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge expired sessions: %w", err)
	}
	return writef(cmdCtx.Out, "Purged %d expired session(s).\n", n)
}

type sessionOptions struct {
	ID      string
	Yes     bool
	Timeout time.Duration
}

func parseSessionFlags(name string, args []string, withYes bool) (sessionOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := sessionOptions{Timeout: defaultCommandTimeout}
	fs.StringVar(&opts.ID, "id", "", "Session ID (the value of the session cookie)")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the command")
	if withYes {
		fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")
	}

	if err := fs.Parse(args); err != nil {
		return sessionOptions{}, err
	}
	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return sessionOptions{}, errors.New("--id is required")
	}
	return opts, nil
}

func runShowSession(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionFlags("show-session", args, false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	store, release, err := openSessionStore(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer release()

	return showSession(ctx, cmdCtx.Out, store, opts.ID)
}

func showSession(ctx context.Context, w io.Writer, store ports.SessionStore, id string) error {
	raw, err := store.Load(ctx, id)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return writef(w, "Session %s not found or expired.\n", id)
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	p, err := domainauth.DecodePrincipal(raw)
	if err != nil {
		return writef(w, "Session %s is corrupt: %v\n", id, err)
	}
	landing, _ := nav.DefaultPath(p.Role)
	return writef(w, "Session:    %s\nIdentifier: %s\nRole:       %s\nLanding:    %s\n",
		id, p.Identifier, p.Role, landing)
}

func runRevokeSession(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionFlags("revoke-session", args, true)
	if err != nil {
		return err
	}
	if !opts.Yes {
		if confirmErr := confirm(cmdCtx, fmt.Sprintf("About to revoke session %s.", opts.ID)); confirmErr != nil {
			return confirmErr
		}
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	store, release, err := openSessionStore(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer release()

	if delErr := store.Delete(ctx, opts.ID); delErr != nil {
		return fmt.Errorf("delete session: %w", delErr)
	}
	return writef(cmdCtx.Out, "Session %s revoked.\n", opts.ID)
}

func confirm(cmdCtx *commandContext, intro string) error {
	if err := writef(cmdCtx.Out, "%s\nContinue? [y/N]: ", intro); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := bufio.NewReader(cmdCtx.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errors.New("aborted by user")
}

func runRoutes(cmdCtx *commandContext, _ []string) error {
	return printRoutes(cmdCtx.Out, routing.DefaultTable())
}

func printRoutes(w io.Writer, table *routing.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "PATH\tACCESS\tROLES\tSCREEN\n"); err != nil {
		return err
	}
	for _, d := range table.Descriptors() {
		roles := "-"
		if len(d.Roles) > 0 {
			names := make([]string, len(d.Roles))
			for i, r := range d.Roles {
				names[i] = r.String()
			}
			roles = strings.Join(names, ", ")
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\n", d.Path, d.Access, roles, d.Screen); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, role := range domainauth.AllRoles() {
		if err := writef(w, "\n%s (%s chrome)\n", role, nav.LayoutFor(role)); err != nil {
			return err
		}
		for _, e := range nav.For(role) {
			if err := writef(w, "  %-22s %s\n", e.Label, e.Path); err != nil {
				return err
			}
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
