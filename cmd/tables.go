package cmd

import (
	"database/sql"
	"fmt"

	"group-renamer/internal/dialect"
	"group-renamer/internal/engine"
	"group-renamer/internal/logging"

	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables a rename would touch",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.FromContext(cmd.Context())
		out := cmd.OutOrStdout()

		config, err := ResolveDBConfig()
		if err != nil {
			return err
		}
		d, err := dialect.GetDialect(config.Driver)
		if err != nil {
			return err
		}
		log.Debug("using dialect", "driver", config.Driver)

		db, err := sql.Open(sqlDriverName(config.Driver), config.DSN)
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer db.Close()

		e := engine.New(db, d, EngineConfig(config))
		tables, err := e.Discover(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "🔍 Tables containing %s in %s (%s):\n", e.Config().Column, config.Name, config.Driver)
		for i, t := range tables {
			fmt.Fprintf(out, "[%02d] %s\n", i+1, t)
		}
		if len(tables) == 0 {
			fmt.Fprintln(out, "none")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(tablesCmd)
}
