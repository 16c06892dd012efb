package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowboard/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a flowboard.config.json template",
	Long: `Writes flowboard.config.json with the default settings into dir (default: the
current directory). An existing file is left untouched. The API key is not
written; set FLOWBOARD_API_KEY instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	path, created, err := config.InitProjectConfigScaffold(dir)
	if err != nil {
		return err
	}
	if created {
		logger.Info("config scaffold written", zap.String("path", path))
		cmd.Printf("created %s\n", path)
		return nil
	}
	cmd.Printf("%s already exists, left unchanged\n", path)
	return nil
}
