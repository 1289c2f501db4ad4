package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/migration"
	"github.com/storesync/backend/migrations"
	"go.uber.org/zap"
)

// env is what a command runs against. m is nil for commands that never touch
// the database.
type env struct {
	log  *zap.Logger
	dir  string // "" selects the embedded migrations
	args []string
	m    *migration.Migrator
}

func (e *env) source() fs.FS {
	if e.dir == "" {
		return migrations.FS
	}
	return os.DirFS(e.dir)
}

func (e *env) intArg(name string) (int, error) {
	if len(e.args) == 0 {
		return 0, fmt.Errorf("%s required", name)
	}
	n, err := strconv.Atoi(e.args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, e.args[0])
	}
	return n, nil
}

type command struct {
	usage   string
	summary string
	offline bool
	run     func(*env) error
}

var commands = map[string]command{
	"up": {usage: "up", summary: "Apply all pending migrations",
		run: func(e *env) error { return e.m.Up() }},
	"down": {usage: "down", summary: "Roll back all migrations",
		run: func(e *env) error { return e.m.Down() }},
	"step": {usage: "step <n>", summary: "Apply n migrations (positive=up, negative=down)",
		run: func(e *env) error {
			n, err := e.intArg("step count")
			if err != nil {
				return err
			}
			return e.m.Steps(n)
		}},
	"version": {usage: "version", summary: "Show the applied version", run: runVersion},
	"status":  {usage: "status", summary: "Show the applied version and pending migrations", run: runStatus},
	"force": {usage: "force <version>", summary: "Mark a version as applied and clean (use with caution)",
		run: func(e *env) error {
			v, err := e.intArg("version")
			if err != nil {
				return err
			}
			e.log.Warn("Forcing migration version", zap.Int("version", v))
			return e.m.Force(v)
		}},
	"create": {usage: "create <name> [desc]", summary: "Create the next numbered migration file pair", offline: true, run: runCreate},
	"list":   {usage: "list", summary: "List available migrations", offline: true, run: runList},
}

func main() {
	var (
		dir      string
		logLevel string
	)
	flag.StringVar(&dir, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if dir != "" {
		if dir, err = filepath.Abs(dir); err != nil {
			log.Fatal("Failed to resolve migrations path", zap.Error(err))
		}
	}
	e := &env{log: log, dir: dir, args: args[1:]}

	if !cmd.offline {
		db, m, err := openMigrator(dir, log)
		if err != nil {
			log.Fatal("Failed to prepare migrator", zap.Error(err))
		}
		defer db.Close()
		defer m.Close()
		e.m = m
	}

	if err := cmd.run(e); err != nil {
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func openMigrator(dir string, log *zap.Logger) (*sql.DB, *migration.Migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if dir == "" {
		m, err = migration.New(db, log)
	} else {
		m, err = migration.NewFromPath(db, dir, log)
	}
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, m, nil
}

func runVersion(e *env) error {
	version, dirty, err := e.m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		e.log.Info("No migrations applied")
		return nil
	}
	e.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func runStatus(e *env) error {
	version, dirty, err := e.m.Version()
	if err != nil {
		return err
	}
	available, err := migration.ListMigrations(e.source())
	if err != nil {
		return err
	}

	fmt.Printf("applied: %06d", version)
	if dirty {
		fmt.Print(" (dirty)")
	}
	fmt.Println()
	pending := 0
	for _, mf := range available {
		if uint(mf.Version) > version {
			fmt.Printf("  pending %06d %s\n", mf.Version, mf.Name)
			pending++
		}
	}
	if pending == 0 {
		fmt.Println("  up to date")
	}
	return nil
}

func runCreate(e *env) error {
	if len(e.args) == 0 {
		return errors.New("migration name required")
	}
	dir := e.dir
	if dir == "" {
		dir = "migrations"
	}
	description := ""
	if len(e.args) > 1 {
		description = e.args[1]
	}

	mf, err := migration.CreateMigration(dir, e.args[0], description)
	if err != nil {
		return err
	}
	e.log.Info("Migration created",
		zap.Int("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func runList(e *env) error {
	available, err := migration.ListMigrations(e.source())
	if err != nil {
		return err
	}
	if len(available) == 0 {
		e.log.Info("No migrations found")
		return nil
	}
	for _, mf := range available {
		fmt.Printf("  %06d %s\n", mf.Version, mf.Name)
	}
	return nil
}

func printUsage() {
	fmt.Println("storesync database migration tool")
	fmt.Println()
	fmt.Println("Usage:\n  migrate [flags] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	for _, name := range []string{"up", "down", "step", "version", "status", "force", "create", "list"} {
		c := commands[name]
		fmt.Printf("  %-22s%s\n", c.usage, c.summary)
	}
	fmt.Print(`
Flags:
  -path string          Read migrations from a directory (default: embedded set)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  STORESYNC_DATABASE_HOST, STORESYNC_DATABASE_PORT, STORESYNC_DATABASE_USER,
  STORESYNC_DATABASE_PASSWORD, STORESYNC_DATABASE_DBNAME, STORESYNC_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate create add_sync_log "Keep a log of every sync run"
`)
}
