package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/enerledger/gocertd/internal/config"
	"github.com/enerledger/gocertd/internal/di"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the certificate ledger daemon",
	Long: `Start gocertd, which provides:
- JSON-RPC API for transactions and queries
- WebSocket event stream for real-time subscriptions
- Durable record storage and SQL trade history`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Running gocertd with no subcommand starts the server.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, args)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	container := di.New()
	provider := di.NewProvider(container, cfg, Version)
	provider.RegisterAll()
	defer provider.Close()

	rpcServer, err := provider.RPCServer()
	if err != nil {
		return fmt.Errorf("build json-rpc server: %w", err)
	}

	if !quiet {
		fmt.Printf("gocertd %s\n", Version)
		fmt.Printf("  JSON-RPC:  http://%s/\n", cfg.Server.RPCAddr)
		if cfg.Server.WSAddr != "" {
			fmt.Printf("  WebSocket: ws://%s/\n", cfg.Server.WSAddr)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return rpcServer.Run(ctx) })

	if cfg.Server.WSAddr != "" {
		wsServer, err := provider.WSServer()
		if err != nil {
			return fmt.Errorf("build websocket server: %w", err)
		}
		group.Go(func() error { return wsServer.Run(ctx) })
	}

	return group.Wait()
}
