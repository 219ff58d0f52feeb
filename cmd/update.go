package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dbmeta/internal/engine"
	"dbmeta/internal/schema"
	"dbmeta/internal/script"
)

var updateDryRun bool

var updateCmd = &cobra.Command{
	Use:   "update-db",
	Short: "Bring an existing database in line with a scripts directory",
	Long: `Runs the scripts directory against an existing database. Known tables
get missing columns added and undeclared columns dropped, procedures are
replaced, and statements whose effect is already present are skipped.`,
	Annotations: map[string]string{needsDatabase: "true"},
	PreRun:      bindScriptsDir,
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := engine.ParseProcedurePolicy(viper.GetString("update.procedures"))
		if err != nil {
			return err
		}

		files, err := readScripts()
		if err != nil {
			return err
		}

		var exec engine.Executor = engine.NewSQLExecutor(DB)
		if updateDryRun {
			log.Println("[SIMULATION] Dry-Run Mode Active: statements are printed, not run.")
			exec = engine.NewDryRunExecutor(cmd.OutOrStdout())
		}

		log.Printf("Updating with procedure policy %q...", policy)
		bar := startProgress("Updating", script.CountStatements(files), !updateDryRun)
		report, err := engine.NewSynchronizer(exec, schema.NewReader(DB, Dialect), Dialect, engine.Options{
			Procedures:  policy,
			Logger:      log.Default(),
			OnStatement: bar.Incr,
		}).Run(cmd.Context(), files)
		bar.Stop()

		report.Print(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		log.Printf("Update Done! Time Elapsed: %s", report.Elapsed)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(updateCmd)

	updateCmd.Flags().String("scripts-dir", "", "directory holding the *.sql scripts")
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "print the statements instead of running them")
	updateCmd.Flags().String("procedures", "changed", "procedure policy: changed (skip unchanged) or always")

	viper.BindPFlag("update.procedures", updateCmd.Flags().Lookup("procedures"))
}
