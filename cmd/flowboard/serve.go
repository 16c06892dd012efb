package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowboard/internal/board"
	"flowboard/internal/contextmgr"
	"flowboard/internal/gateway"
	"flowboard/internal/metrics"
	"flowboard/internal/permission"
	"flowboard/internal/provider"
	"flowboard/internal/storage"
	"flowboard/internal/tools"
)

var (
	serveAddr       string
	servePermission string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat gateway and task API",
	Long: `Serves POST /chat (streaming, with board tool calls), the /tasks REST API,
/metrics and /health until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&servePermission, "permission", "", "Tool permission preset: editor, no-delete or readonly (overrides permission)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	permCfg := cfg.Permission
	if servePermission != "" {
		preset, ok := permission.PresetConfig(servePermission)
		if !ok {
			return fmt.Errorf("unknown permission preset %q", servePermission)
		}
		permCfg = preset
	}
	policy := permission.New(permCfg)

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()
	svc := board.NewService(store)

	llm := provider.NewOpenAIProvider(provider.Config{
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     cfg.Provider.APIKey,
		Model:      cfg.Provider.Model,
		TimeoutMS:  cfg.Provider.TimeoutMS,
		MaxRetries: cfg.Provider.MaxRetries,
	})
	defer llm.Close()
	if cfg.Provider.APIKey == "" {
		logger.Warn("provider API key is not configured; /chat will answer 500 until it is set")
	}

	m := metrics.New()
	tok := contextmgr.NewTokenizerForModel(cfg.Provider.Model)
	assembler := contextmgr.New("", svc, tok, cfg.Runtime.ContextTokenLimit, logger)
	dispatcher := tools.NewDispatcher(tools.NewBoardRegistry(svc), logger).WithPolicy(policy)
	dispatcher.Observe = m.ObserveToolCall

	srv := gateway.New(gateway.Options{
		Provider:       llm,
		Board:          svc,
		Assembler:      assembler,
		Dispatcher:     dispatcher,
		Metrics:        m,
		Logger:         logger,
		AllowedHeaders: cfg.Server.AllowedHeaders,
	})

	logger.Info("gateway starting",
		zap.String("addr", addr),
		zap.String("model", llm.CurrentModel()),
		zap.String("db", cfg.Storage.DBPath),
		zap.Bool("precise_tokens", tok.IsPrecise()),
		zap.String("permission", policy.Summary()),
	)
	return srv.Run(ctx, addr)
}
