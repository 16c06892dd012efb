package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowboard/internal/config"
	"flowboard/internal/i18n"
	"flowboard/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string

	cfg    config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "flowboard",
	Short: "FlowBoard - a Kanban board you can talk to",
	Long: `FlowBoard keeps a three-column task board (To Do, In Progress, Done)
and an AI assistant that can create, update and delete tasks while it chats.

Run "flowboard serve" to start the gateway, then "flowboard board" or
"flowboard chat" to talk to it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbPath != "" {
			cfg.Storage.DBPath = dbPath
		}
		i18n.Init(cfg.Client.Locale)

		// Interactive clients own the terminal, keep their logs quiet.
		if cmd.Annotations["interactive"] == "true" && !verbose {
			logger = zap.NewNop()
			return nil
		}
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Format, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config JSON/JSONC (or set FLOWBOARD_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides storage.db_path)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
