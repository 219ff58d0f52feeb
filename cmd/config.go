package cmd

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dbmeta/internal/dialect"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Active bool   `mapstructure:"active"`
}

// GetActiveDBConfig returns the currently active database configuration.
func GetActiveDBConfig() (*DBConfig, error) {
	var configs []DBConfig

	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	var activeConfig *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Active {
			activeConfig = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no active database found in config (set active: true)")
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple active databases found (only one can be active)")
	}

	return activeConfig, nil
}

// resolveTarget picks the database to work on: database.dsn and
// database.driver (flag, env or config) override the active databases entry.
func resolveTarget() (*DBConfig, error) {
	target := &DBConfig{
		Name:   "command line",
		Driver: viper.GetString("database.driver"),
		DSN:    viper.GetString("database.dsn"),
		Active: true,
	}

	if target.DSN == "" {
		active, err := GetActiveDBConfig()
		if err != nil {
			return nil, fmt.Errorf("database.dsn is required (via --dsn, DBMETA_DATABASE_DSN or config): %w", err)
		}
		target.Name, target.DSN = active.Name, active.DSN
		if target.Driver == "" {
			target.Driver = active.Driver
		}
	}

	if target.Driver == "" {
		target.Driver = detectDriver(target.DSN)
	}
	if target.Driver == "" {
		return nil, fmt.Errorf("cannot detect the driver of %q, use --driver", maskDSN(target.DSN))
	}
	return target, nil
}

// resolveDriver is resolveTarget for commands that only need a driver name.
func resolveDriver() (string, error) {
	if d := viper.GetString("database.driver"); d != "" {
		return d, nil
	}
	target, err := resolveTarget()
	if err != nil {
		return "", err
	}
	return target.Driver, nil
}

// detectDriver guesses the driver from URL-style DSNs.
func detectDriver(connStr string) string {
	scheme, _, found := strings.Cut(connStr, "://")
	if !found {
		if strings.Contains(connStr, "sslmode") {
			return "postgres"
		}
		return ""
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return "postgres"
	case "sqlserver":
		return "sqlserver"
	case "oracle":
		return "oracle"
	case "file":
		return "sqlite"
	}
	return ""
}

var (
	userInfoPassword = regexp.MustCompile(`^([^:@/]*):([^@]*)@`)
	keyValuePassword = regexp.MustCompile(`(?i)\b(password|pwd)=([^\s;]*)`)
)

// maskDSN hides the password of URL, user:pass@host and key=value DSNs.
func maskDSN(connStr string) string {
	if strings.Contains(connStr, "://") {
		if u, err := url.Parse(connStr); err == nil {
			return u.Redacted()
		}
	}
	masked := userInfoPassword.ReplaceAllString(connStr, "$1:xxxxx@")
	return keyValuePassword.ReplaceAllString(masked, "$1=xxxxx")
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "xxxxx"
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		file := viper.ConfigFileUsed()
		if file == "" {
			file = "(none)"
		}
		fmt.Fprintln(out, "⚙️  Configuration:")
		fmt.Fprintf(out, "  config file       : %s\n", file)

		if target, err := resolveTarget(); err == nil {
			fmt.Fprintf(out, "  database          : %s\n", target.Name)
			fmt.Fprintf(out, "  driver            : %s\n", target.Driver)
			fmt.Fprintf(out, "  dsn               : %s\n", maskDSN(target.DSN))
			if _, err := dialect.GetDialect(target.Driver); err != nil {
				fmt.Fprintf(out, "    └ %v\n", err)
			}
		} else {
			fmt.Fprintf(out, "  database          : %v\n", err)
		}

		fmt.Fprintf(out, "  scripts.dir       : %s\n", viper.GetString("scripts.dir"))
		fmt.Fprintf(out, "  update.procedures : %s\n", viper.GetString("update.procedures"))
		fmt.Fprintf(out, "  create.user       : %s\n", viper.GetString("create.user"))
		fmt.Fprintf(out, "  create.password   : %s\n", maskSecret(viper.GetString("create.password")))
		fmt.Fprintf(out, "  create.host       : %s\n", viper.GetString("create.host"))
		fmt.Fprintf(out, "  create.port       : %d\n", viper.GetInt("create.port"))

		var configs []DBConfig
		if err := viper.UnmarshalKey("databases", &configs); err != nil {
			return fmt.Errorf("failed to parse databases config: %w", err)
		}
		if len(configs) > 0 {
			fmt.Fprintln(out, "  databases:")
		}
		for _, c := range configs {
			mark := " "
			if c.Active {
				mark = "*"
			}
			fmt.Fprintf(out, "   %s %-15s %-12s %s\n", mark, c.Name, c.Driver, maskDSN(c.DSN))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(configCmd)

	viper.SetDefault("update.procedures", "changed")
	viper.SetDefault("create.user", "SYSDBA")
	viper.SetDefault("create.host", "localhost")
	viper.SetDefault("create.port", 3050)
}
