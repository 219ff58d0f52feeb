package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"dbmeta/internal/engine"
	"dbmeta/internal/schema"
	"dbmeta/internal/script"
)

var exportOutputDir string

var exportCmd = &cobra.Command{
	Use:   "export-scripts",
	Short: "Write the database schema as build scripts",
	Long: `Reads domains, tables and procedures from the database catalog and
writes 01_domains.sql, 02_tables.sql and 03_procedures.sql, which build-db
and update-db read back.`,
	Annotations: map[string]string{needsDatabase: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportOutputDir == "" {
			return fmt.Errorf("--output-dir is required")
		}

		log.Println("Reading schema...")
		files, err := engine.NewExporter(schema.NewReader(DB, Dialect), log.Default()).Export(cmd.Context())
		if err != nil {
			return err
		}
		if err := script.WriteDir(exportOutputDir, files); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Export completed: %d files written to %s\n", len(files), exportOutputDir)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutputDir, "output-dir", "o", "", "directory to write the scripts into")
}
