package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dbmeta/internal/dialect"
)

var (
	cfgFile string
	dsn     string
	driver  string
	quiet   bool

	DB      *sql.DB
	Dialect dialect.Dialect
)

// Commands annotated with needsDatabase get DB and Dialect set up before
// they run.
const needsDatabase = "database"

var RootCmd = &cobra.Command{
	Use:   "dbmeta",
	Short: "Build, export and update database schemas from SQL scripts",
	Long: `
      _ _                    _
   __| | |__  _ __ ___   ___| |_ __ _
  / _' | '_ \| '_ ' _ \ / _ \ __/ _' |
 | (_| | |_) | | | | | |  __/ || (_| |
  \__,_|_.__/|_| |_| |_|\___|\__\__,_|

DBMETA 🗂  - Schema scripts in, database out (and back)
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[needsDatabase] != "true" {
			return nil
		}
		target, err := resolveTarget()
		if err != nil {
			return err
		}
		return connect(cmd.Context(), target.Driver, target.DSN)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			DB.Close()
		}
	},
}

func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./dbmeta.yaml)")
	RootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database Source Name (DSN)")
	RootCmd.PersistentFlags().StringVar(&driver, "driver", "", "database driver (firebirdsql, postgres, mysql, sqlserver, oracle, sqlite)")
	RootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")

	viper.BindPFlag("database.dsn", RootCmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("database.driver", RootCmd.PersistentFlags().Lookup("driver"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// executable directory first, then the working directory
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		viper.AddConfigPath(".")

		viper.SetConfigName("dbmeta")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DBMETA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// connect opens the database and resolves its dialect into the package
// globals.
func connect(ctx context.Context, driverName, connStr string) error {
	d, err := dialect.GetDialect(driverName)
	if err != nil {
		return err
	}
	db, err := openDB(ctx, d.Driver(), connStr)
	if err != nil {
		return err
	}
	DB, Dialect = db, d
	fmt.Printf("🔌 Connected via %s (%s)\n", d.Driver(), maskDSN(connStr))
	return nil
}

// openDB opens a single-connection pool and checks it is reachable.
func openDB(ctx context.Context, driverName, connStr string) (*sql.DB, error) {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return db, nil
}
