package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"group-renamer/internal/dialect"
	"group-renamer/internal/engine"
	"group-renamer/internal/gate"
	"group-renamer/internal/loader"
	"group-renamer/internal/logging"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var noVerify bool

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Rename groups listed in a CSV file across all tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.FromContext(cmd.Context()).WithFields("run_id", uuid.NewString())
		out := cmd.OutOrStdout()
		log.Info("Starting.")

		csvPath := viper.GetString("rename.csv")
		if csvPath == "" {
			return fmt.Errorf("rename.csv is required (via --csv or config)")
		}
		fmt.Fprintf(out, "- Reading the csv file %s\n", csvPath)
		batch, err := loader.LoadCSV(csvPath)
		if err != nil {
			return err
		}
		for i, p := range batch {
			fmt.Fprintf(out, "  [%02d] %s\n", i+1, p)
		}

		config, err := ResolveDBConfig()
		if err != nil {
			return err
		}
		d, err := dialect.GetDialect(config.Driver)
		if err != nil {
			return err
		}
		// sql.Open does not connect; the engine pings after the gate.
		db, err := sql.Open(sqlDriverName(config.Driver), config.DSN)
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer db.Close()

		cfg := EngineConfig(config)
		observers := engine.Observers{logging.NewRunObserver(log)}
		// The bar redraws in place, so it only goes to a real terminal.
		bar := newProgressBar(out, cfg.DryRun)
		if out == os.Stdout && isatty.IsTerminal(os.Stdout.Fd()) {
			observers = append(observers, bar)
		}
		defer bar.Stop()

		e := engine.New(db, d, cfg,
			engine.WithGate(gate.Maintenance{
				Path:   viper.GetString("maintenance.config_file"),
				Key:    viper.GetString("maintenance.key"),
				Logger: log.Logger,
			}),
			engine.WithObserver(observers),
		)

		fmt.Fprintf(out, "- Looking for tables containing %s in %s (%s)\n", e.Config().Column, config.Name, config.Driver)
		start := time.Now()
		result := e.Run(cmd.Context(), batch)
		bar.Stop()

		if err := printOutcome(out, result, time.Since(start)); err != nil {
			return err
		}

		if result.Status != engine.StatusDone || result.DryRun || noVerify {
			return nil
		}
		reports, err := e.Verify(cmd.Context(), result.Tables, batch)
		if err != nil {
			// The rename is committed; a failed check does not undo it.
			log.Warn("post-commit verification failed", "error", err)
			return nil
		}
		printVerification(out, reports)
		for _, r := range reports {
			if !r.OK() {
				log.Warn("old values reappeared after commit, another writer may be active",
					"table", r.Table.String(), "rows", r.RemainingOld)
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(renameCmd)

	flags := renameCmd.Flags()
	flags.String("csv", "", "CSV file of old,new pairs with a header row")
	flags.Int("chunk-size", 0, "maximum values bound into one IN list")
	flags.Bool("dry-run", false, "validate every table and roll back")
	flags.Bool("require-tables", false, "fail when no table holds the column")
	flags.Bool("suspend-fk", false, "suspend foreign key checks inside the transaction")
	flags.BoolVar(&noVerify, "no-verify", false, "skip the post-commit re-count")

	bindRenameFlags()
}

func bindRenameFlags() {
	flags := renameCmd.Flags()
	viper.BindPFlag("rename.csv", flags.Lookup("csv"))
	viper.BindPFlag("rename.chunk_size", flags.Lookup("chunk-size"))
	viper.BindPFlag("rename.dry_run", flags.Lookup("dry-run"))
	viper.BindPFlag("rename.require_tables", flags.Lookup("require-tables"))
	viper.BindPFlag("rename.suspend_foreign_keys", flags.Lookup("suspend-fk"))
}

// printOutcome writes the run report and returns the error that decides the
// exit code.
func printOutcome(out io.Writer, result engine.Outcome, elapsed time.Duration) error {
	switch result.Status {
	case engine.StatusGateAborted:
		fmt.Fprintln(out, "We are in maintenance mode, exiting now.")
		return &exitError{code: 2, err: engine.ErrGateAbort}
	case engine.StatusNoTables:
		fmt.Fprintln(out, "- No table holds the column, nothing to do.")
		return nil
	}

	if len(result.Tables) > 0 {
		fmt.Fprintln(out, "- Found following tables :")
		for i, t := range result.Tables {
			fmt.Fprintf(out, "  [%02d] %s\n", i+1, t)
		}
	}

	if !result.Success {
		fmt.Fprintln(out, "- FAIL")
		if result.FailingTable != nil {
			fmt.Fprintf(out, "  table: %s\n", result.FailingTable)
		}
		if result.FailingPair != nil {
			fmt.Fprintf(out, "  pair:  %s\n", result.FailingPair)
		}
		for _, c := range result.Conflicts {
			fmt.Fprintf(out, "  FATAL : %s already exists in table %s (%d rows)\n", c.Pair.New, c.Table, c.Rows)
		}
		if result.Status == engine.StatusRolledBack {
			fmt.Fprintln(out, "  All changes rolled back.")
		}
		return &exitError{code: 1, err: result.Err}
	}

	if result.DryRun {
		fmt.Fprintln(out, "[SIMULATION] Dry-Run Mode Active: every table validated, nothing was written.")
		return nil
	}

	fmt.Fprintln(out, "\n📊 Summary Report:")
	var total int64
	for i, r := range result.Applied {
		fmt.Fprintf(out, "[%02d] %-40s %8d rows\n", i+1, r.Table, r.Rows)
		total += r.Rows
	}
	fmt.Fprintf(out, "Total: %d rows in %d tables, %s\n", total, len(result.Applied), elapsed.Round(time.Millisecond))
	fmt.Fprintln(out, "- SUCCESS")
	return nil
}

func printVerification(out io.Writer, reports []engine.TableReport) {
	fmt.Fprintln(out, "\n🔍 Verification:")
	for _, r := range reports {
		status := "OK"
		if !r.OK() {
			status = fmt.Sprintf("WARN %d old rows", r.RemainingOld)
		}
		fmt.Fprintf(out, "  %-40s %8d new rows  %s\n", r.Table, r.NewRows, status)
	}
}
