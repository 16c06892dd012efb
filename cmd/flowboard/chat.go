package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowboard/internal/chatclient"
	"flowboard/internal/config"
	"flowboard/internal/i18n"
	"flowboard/internal/repl"
	"flowboard/internal/tui"
)

var gatewayURL string

var chatCmd = &cobra.Command{
	Use:         "chat",
	Short:       "Chat with the board assistant line by line",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"interactive": "true"},
	RunE:        runChat,
}

var boardCmd = &cobra.Command{
	Use:         "board",
	Short:       "Open the full-screen board with the assistant alongside",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"interactive": "true"},
	RunE:        runBoard,
}

func init() {
	for _, c := range []*cobra.Command{chatCmd, boardCmd} {
		c.Flags().StringVar(&gatewayURL, "gateway", "", "Gateway base URL (overrides client.gateway_url)")
	}
}

func newGatewayClient() (*chatclient.Client, string) {
	url := cfg.Client.GatewayURL
	if gatewayURL != "" {
		url = gatewayURL
	}
	return chatclient.New(chatclient.Config{
		GatewayURL: url,
		Messages:   i18n.Global(),
		Logger:     logger,
	}), url
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	client, url := newGatewayClient()
	historyPath, err := config.ExpandPath(filepath.Join(config.DefaultGlobalDir, "chat.history"))
	if err != nil {
		historyPath = ""
	}
	input, inputErr := repl.NewLineInput(historyPath)
	if inputErr != nil {
		logger.Warn("line editor unavailable, fallback to basic input", zap.Error(inputErr))
	}
	defer input.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, i18n.T("startup.welcome", url))
	loop := repl.NewLoop(repl.Options{
		Client:   client,
		Input:    input,
		Out:      out,
		Messages: i18n.Global(),
		Width:    repl.TerminalWidth(os.Stdout),
		Color:    repl.UseColor() && repl.IsTerminal(os.Stdout),
	})
	return loop.Run(ctx)
}

func runBoard(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	client, url := newGatewayClient()
	return tui.Run(ctx, client, url, i18n.Global())
}
