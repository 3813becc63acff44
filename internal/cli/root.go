// Package cli defines the gocertd command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time.
var Version = "0.1.0-dev"

var (
	configFile string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "gocertd",
	Short: "gocertd - renewable energy certificate ledger daemon",
	Long: `gocertd runs a ledger for trading tokenized renewable-energy
certificates (Guarantees of Origin). It tracks certificates, wallets, and
orders, settles trades atomically, and serves a JSON-RPC API plus a WebSocket
event stream.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}
