package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dbmeta/internal/dialect"
	"dbmeta/internal/engine"
	"dbmeta/internal/schema"
	"dbmeta/internal/script"
)

var (
	buildDBDir  string
	buildDryRun bool
)

var buildCmd = &cobra.Command{
	Use:   "build-db",
	Short: "Create a new database from a scripts directory",
	Long: `Runs every *.sql file of the scripts directory, in file name order,
against a new database. With --db-dir a database file is created first
(Firebird, SQLite); otherwise the --dsn database must not have any tables.`,
	PreRun: bindScriptsDir,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		files, err := readScripts()
		if err != nil {
			return err
		}

		driverName, err := resolveDriver()
		if err != nil {
			return err
		}
		d, err := dialect.GetDialect(driverName)
		if err != nil {
			return err
		}

		if buildDBDir != "" {
			err = prepareFileDatabase(ctx, d)
		} else {
			err = prepareServerDatabase(ctx)
		}
		if err != nil {
			return err
		}

		var exec engine.Executor
		if buildDryRun {
			log.Println("[SIMULATION] Dry-Run Mode Active: statements are printed, not run.")
			exec = engine.NewDryRunExecutor(cmd.OutOrStdout())
		} else {
			exec = engine.NewSQLExecutor(DB)
		}

		bar := startProgress("Building", script.CountStatements(files), !buildDryRun)
		report, err := engine.NewBuilder(exec, d, engine.Options{
			Logger:      log.Default(),
			OnStatement: bar.Incr,
		}).Build(ctx, files)
		bar.Stop()

		report.Print(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		log.Printf("Build Done! Time Elapsed: %s", report.Elapsed)
		return nil
	},
}

// prepareFileDatabase creates <db-dir>/database.<ext> and connects to it.
// A dry run only checks that the file does not exist yet.
func prepareFileDatabase(ctx context.Context, d dialect.Dialect) error {
	fd, ok := d.(dialect.FileDatabase)
	if !ok {
		return fmt.Errorf("--db-dir needs a file based driver (firebirdsql, sqlite), got %s", d.Driver())
	}

	dir, err := filepath.Abs(buildDBDir)
	if err != nil {
		return fmt.Errorf("invalid --db-dir: %w", err)
	}
	path := filepath.Join(dir, "database."+fd.Extension())

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("database file %s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	if buildDryRun {
		log.Printf("[SIMULATION] Would create database file %s", path)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	connStr := fd.FileDSN(path, dialect.Credentials{
		User:     viper.GetString("create.user"),
		Password: viper.GetString("create.password"),
		Host:     viper.GetString("create.host"),
		Port:     viper.GetInt("create.port"),
	})

	log.Printf("Creating database file %s...", path)
	created, err := openDB(ctx, fd.CreateDriver(), connStr)
	if err != nil {
		return fmt.Errorf("failed to create database %s: %w", path, err)
	}
	created.Close()

	return connect(ctx, d.Driver(), connStr)
}

// prepareServerDatabase connects to the configured database and checks it is
// empty.
func prepareServerDatabase(ctx context.Context) error {
	target, err := resolveTarget()
	if err != nil {
		return err
	}
	if err := connect(ctx, target.Driver, target.DSN); err != nil {
		return err
	}

	tables, err := schema.NewReader(DB, Dialect).Tables(ctx)
	if err != nil {
		return err
	}
	if len(tables) > 0 {
		return fmt.Errorf("database %s already has %d tables, build-db needs an empty database (use update-db instead)", target.Name, len(tables))
	}
	return nil
}

// bindScriptsDir binds the running command's --scripts-dir to scripts.dir.
// Several commands define the flag, so it is bound once the command is known.
func bindScriptsDir(cmd *cobra.Command, args []string) {
	viper.BindPFlag("scripts.dir", cmd.Flags().Lookup("scripts-dir"))
}

// readScripts loads the scripts directory given by --scripts-dir or
// scripts.dir.
func readScripts() ([]script.File, error) {
	dir := viper.GetString("scripts.dir")
	if dir == "" {
		return nil, fmt.Errorf("scripts.dir is required (via --scripts-dir or config)")
	}
	files, err := script.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no *.sql files found in %s", dir)
	}
	log.Printf("Found %d script files in %s", len(files), dir)
	return files, nil
}

func init() {
	RootCmd.AddCommand(buildCmd)

	buildCmd.Flags().String("scripts-dir", "", "directory holding the *.sql scripts")
	buildCmd.Flags().StringVar(&buildDBDir, "db-dir", "", "create the database file in this directory (Firebird, SQLite)")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "print the statements instead of running them")
}
