package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	dsn     string
	driver  string
	ddlFile string
	tables  []string
	verbose bool
	logger  = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

var RootCmd = &cobra.Command{
	Use:   "ddl-pump",
	Short: "Parse DDL, order tables, repair rows and load them",
	Long: `
  ____  ____  _       ____  _   _ __  __ ____
 |  _ \|  _ \| |     |  _ \| | | |  \/  |  _ \
 | | | | | | | |     | |_) | | | | |\/| | |_) |
 | |_| | |_| | |___  |  __/| |_| | |  | |  __/
 |____/|____/|_____| |_|    \___/|_|  |_|_|

DDL PUMP 🦅 - Schema-driven Row Validator, Repairer & Loader
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(verbose)
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Define flags
	pf := RootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./ddl-pump.yaml)")
	pf.StringVar(&dsn, "dsn", "", "Database Source Name (DSN)")
	pf.StringVar(&driver, "driver", "", "postgres, pgx, mysql, sqlserver, oracle or sqlite (detected from the DSN when empty)")
	pf.StringVar(&ddlFile, "ddl", "", "DDL file with the CREATE TABLE statements")
	pf.StringSliceVarP(&tables, "tables", "t", []string{}, "Specific tables (comma-separated)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	// Bind flags to viper (Flag > Env > Config > Default)
	viper.BindPFlag("database.dsn", pf.Lookup("dsn"))
	viper.BindPFlag("database.driver", pf.Lookup("driver"))
	viper.BindPFlag("settings.ddl", pf.Lookup("ddl"))

	viper.SetDefault("settings.default_count", 100)
	viper.SetDefault("settings.seed", 1)
	viper.SetDefault("settings.workers", 4)
	viper.SetDefault("settings.max_attempts", 8)
	viper.SetDefault("settings.max_passes", 4)
	viper.SetDefault("settings.max_live_values", 0)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// .env 파일이 있으면 환경변수로 로드
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Warning: failed to load .env:", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("ddl-pump")
		viper.SetConfigType("yaml")
	}

	// DDLPUMP_DATABASE_DSN -> database.dsn
	viper.SetEnvPrefix("DDLPUMP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
