package cmd

import (
	"fmt"
	"strings"

	"group-renamer/internal/engine"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Schema string `mapstructure:"schema"`
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

// ResolveDBConfig picks the connection to use. A DSN given by flag or
// environment wins over the databases list; --schema overrides either.
func ResolveDBConfig() (*DBConfig, error) {
	var config DBConfig

	if connStr := viper.GetString("database.dsn"); connStr != "" {
		config = DBConfig{
			Name:   "command line",
			Driver: viper.GetString("database.driver"),
			DSN:    connStr,
			Active: true,
		}
		if config.Driver == "" {
			config.Driver = detectDriver(connStr)
		}
	} else {
		active, err := GetActiveDBConfig()
		if err != nil {
			return nil, fmt.Errorf("%w: use --dsn and --driver, or a config file", err)
		}
		config = *active
	}

	if s := viper.GetString("database.schema"); s != "" {
		config.Schema = s
	}
	if config.Driver == "" {
		return nil, fmt.Errorf("database %q has no driver", config.Name)
	}

	if strings.EqualFold(config.Driver, "mysql") {
		dsnCfg, err := mysql.ParseDSN(config.DSN)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql dsn for %q: %w", config.Name, err)
		}
		if config.Schema == "" {
			config.Schema = dsnCfg.DBName
		}
	}
	return &config, nil
}

// detectDriver guesses the driver from the DSN shape.
func detectDriver(connStr string) string {
	switch {
	case strings.HasPrefix(connStr, "sqlserver://"):
		return "sqlserver"
	case strings.HasPrefix(connStr, "oracle://"):
		return "oracle"
	case strings.HasPrefix(connStr, "file:"), strings.HasSuffix(connStr, ".db"), strings.HasSuffix(connStr, ".sqlite"):
		return "sqlite"
	case strings.Contains(connStr, "postgres"), strings.Contains(connStr, "sslmode"):
		return "postgres"
	default:
		return "mysql"
	}
}

// sqlDriverName maps a configured driver to the name registered with
// database/sql.
func sqlDriverName(driver string) string {
	switch strings.ToLower(driver) {
	case "sqlite3":
		return "sqlite"
	case "mssql":
		return "sqlserver"
	default:
		return strings.ToLower(driver)
	}
}

// EngineConfig builds the engine configuration from viper settings.
func EngineConfig(db *DBConfig) engine.Config {
	return engine.Config{
		Schema:             db.Schema,
		Column:             viper.GetString("rename.column"),
		ChunkSize:          viper.GetInt("rename.chunk_size"),
		RequireTables:      viper.GetBool("rename.require_tables"),
		DryRun:             viper.GetBool("rename.dry_run"),
		SuspendForeignKeys: viper.GetBool("rename.suspend_foreign_keys"),
	}
}
