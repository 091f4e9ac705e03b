// Command migrate manages the BooksCart schema.
//
//	migrate [-dir path] <up|down|status|version|to VERSION|create NAME|validate>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/sakthi-t/bookscart/pkg/config"
	"github.com/sakthi-t/bookscart/pkg/db"
	"github.com/sakthi-t/bookscart/pkg/logger"
	"github.com/sakthi-t/bookscart/pkg/migrate"
)

var errUsage = errors.New("usage: migrate [-dir path] <up|down|status|version|to VERSION|create NAME|validate>")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dir := flags.String("dir", migrate.DefaultDir, "migrations directory for create/validate")
	if err := flags.Parse(args); err != nil {
		return errUsage
	}
	if flags.NArg() == 0 {
		return errUsage
	}
	cmd, rest := flags.Arg(0), flags.Args()[1:]

	// File-only commands need neither config nor a database.
	switch cmd {
	case "create":
		if len(rest) != 1 {
			return fmt.Errorf("%w: create needs a NAME", errUsage)
		}
		path, err := migrate.CreateSQLMigration(*dir, rest[0])
		if err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		fmt.Fprintln(out, "created", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			return fmt.Errorf("validate %s: %w", *dir, err)
		}
		fmt.Fprintln(out, "migrations ok")
		return nil
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	runner, err := migrate.NewRunner(sqlDB, dbClient.Driver())
	if err != nil {
		return err
	}

	switch cmd {
	case "up":
		results, err := runner.Up(ctx)
		printResults(out, results)
		return err
	case "down":
		result, err := runner.Down(ctx)
		if result != nil {
			printResults(out, []*goose.MigrationResult{result})
		}
		return err
	case "to":
		if len(rest) != 1 {
			return fmt.Errorf("%w: to needs a VERSION", errUsage)
		}
		results, err := runner.MigrateTo(ctx, rest[0])
		printResults(out, results)
		return err
	case "status":
		statuses, err := runner.Status(ctx)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		printStatus(out, statuses)
		return nil
	case "version":
		version, err := runner.Version(ctx)
		if err != nil {
			return fmt.Errorf("version: %w", err)
		}
		fmt.Fprintln(out, version)
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func printResults(out io.Writer, results []*goose.MigrationResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, "no migrations to apply")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.Direction, r.Source.Version, r.Source.Path, r.Duration)
	}
	_ = tw.Flush()
}

func printStatus(out io.Writer, statuses []*goose.MigrationStatus) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, s := range statuses {
		applied := "-"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
	}
	_ = tw.Flush()
}
