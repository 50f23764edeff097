package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"group-renamer/internal/engine"
	"group-renamer/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	appLog  *logging.Logger
)

// exitError carries a process exit code up to Execute.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

var RootCmd = &cobra.Command{
	Use:   "group-renamer",
	Short: "Rename group identifiers across every table of a schema",
	Long: `
GROUP RENAMER - bulk rename of group identifiers

Renames old,new pairs from a CSV in every table holding the group column,
all inside one transaction.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// No database access here: the maintenance gate must run first.
		l, err := logging.NewLogger(logging.Config{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
			File:   viper.GetString("log.file"),
			Output: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		appLog = l
		cmd.SetContext(logging.WithLogger(cmd.Context(), l))
		return nil
	},
}

func Execute() {
	// An interrupt cancels the context, which rolls the transaction back.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if appLog != nil {
		appLog.Close()
	}
	if err == nil {
		return
	}

	if errors.Is(err, engine.ErrGateAbort) {
		fmt.Fprintln(os.Stderr, err)
	} else {
		fmt.Fprintln(os.Stderr, "ERROR !", err)
	}
	os.Exit(exitCode(err))
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./group-renamer.yaml)")
	flags.String("dsn", "", "Database Source Name (DSN), overrides the databases list")
	flags.String("driver", "", "database/sql driver: mysql, postgres, pgx, sqlserver, oracle, sqlite")
	flags.String("schema", "", "schema to scan (default is the connection's current schema)")
	flags.String("column", "", "column holding the group identifier")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-file", "", "append the log to this file as well")

	bindRootFlags()
	setDefaults(viper.GetViper())
}

// bindRootFlags makes the persistent flags override config (Flag > Config > Default).
func bindRootFlags() {
	flags := RootCmd.PersistentFlags()
	viper.BindPFlag("database.dsn", flags.Lookup("dsn"))
	viper.BindPFlag("database.driver", flags.Lookup("driver"))
	viper.BindPFlag("database.schema", flags.Lookup("schema"))
	viper.BindPFlag("rename.column", flags.Lookup("column"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.file", flags.Lookup("log-file"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rename.column", "gid")
	v.SetDefault("rename.chunk_size", 500)
	v.SetDefault("maintenance.key", "maintenance")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			exePath := filepath.Dir(ex)
			viper.AddConfigPath(exePath)
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("group-renamer")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GROUP_RENAMER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// exitCode reports the code Execute would use for err.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return 1
}
