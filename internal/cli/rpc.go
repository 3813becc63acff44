package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

var rpcURL string

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "JSON-RPC client commands",
	Long:  `Send JSON-RPC requests to a running gocertd server.`,
}

func init() {
	rootCmd.AddCommand(rpcCmd)
	rpcCmd.PersistentFlags().StringVar(&rpcURL, "url", "http://127.0.0.1:5005/", "gocertd JSON-RPC endpoint")
}

// callRemote posts one JSON-RPC request and pretty-prints the result.
func callRemote(method string, params any) error {
	request := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		request["params"] = params
	}

	body, err := json.Marshal(request)
	if err != nil {
		return err
	}

	resp, err := http.Post(rpcURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded struct {
		Result any `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Data    any    `json:"data"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return fmt.Errorf("RPC error [%d]: %s", decoded.Error.Code, decoded.Error.Message)
	}

	pretty, err := json.MarshalIndent(decoded.Result, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", decoded.Result)
		return nil
	}
	fmt.Println(string(pretty))
	return nil
}

func parseAmount(arg, name string) (uint64, error) {
	amount, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return amount, nil
}

var serverInfoCmd = &cobra.Command{
	Use:   "server_info",
	Short: "Get server information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return callRemote("server_info", nil)
	},
}

var certificateInfoCmd = &cobra.Command{
	Use:   "certificate_info <certificate_id>",
	Short: "Get certificate information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callRemote("certificate_info", map[string]any{"certificate_id": args[0]})
	},
}

var walletInfoCmd = &cobra.Command{
	Use:   "wallet_info <wallet_id>",
	Short: "Get wallet balances",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callRemote("wallet_info", map[string]any{"wallet_id": args[0]})
	},
}

var orderInfoCmd = &cobra.Command{
	Use:   "order_info <order_id>",
	Short: "Get order information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callRemote("order_info", map[string]any{"order_id": args[0]})
	},
}

var tradeInfoCmd = &cobra.Command{
	Use:   "trade_info <order_id>",
	Short: "Get the trade that settled an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callRemote("trade_info", map[string]any{"order_id": args[0]})
	},
}

var recentTradesCmd = &cobra.Command{
	Use:   "recent_trades [limit]",
	Short: "List recent trades, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{}
		if len(args) > 0 {
			limit, err := parseAmount(args[0], "limit")
			if err != nil {
				return err
			}
			params["limit"] = limit
		}
		return callRemote("recent_trades", params)
	},
}

var createCertificateCmd = &cobra.Command{
	Use:   "create_certificate <account> <certificate_id> <owner_id> <energy_amount>",
	Short: "Mint a certificate (privileged)",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[3], "energy amount")
		if err != nil {
			return err
		}
		return callRemote("create_certificate", map[string]any{
			"account":        args[0],
			"certificate_id": args[1],
			"owner_id":       args[2],
			"energy_amount":  amount,
		})
	},
}

var createWalletCmd = &cobra.Command{
	Use:   "create_wallet <account> <wallet_id> [currency] [energy]",
	Short: "Open a wallet (privileged)",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{
			"account":   args[0],
			"wallet_id": args[1],
		}
		if len(args) > 2 {
			currency, err := parseAmount(args[2], "currency")
			if err != nil {
				return err
			}
			params["currency"] = currency
		}
		if len(args) > 3 {
			energy, err := parseAmount(args[3], "energy")
			if err != nil {
				return err
			}
			params["energy"] = energy
		}
		return callRemote("create_wallet", params)
	},
}

var createSellOrderCmd = &cobra.Command{
	Use:   "create_sell_order <order_id> <certificate_id> <seller_wallet> <price> <energy_amount>",
	Short: "Post a sell order for a certificate",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := parseAmount(args[3], "price")
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[4], "energy amount")
		if err != nil {
			return err
		}
		return callRemote("create_sell_order", map[string]any{
			"order_id":       args[0],
			"certificate_id": args[1],
			"seller_wallet":  args[2],
			"price":          price,
			"energy_amount":  amount,
		})
	},
}

var createBuyOrderCmd = &cobra.Command{
	Use:   "create_buy_order <order_id> <buyer_wallet> <price> <energy_amount>",
	Short: "Post a buy order",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := parseAmount(args[2], "price")
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[3], "energy amount")
		if err != nil {
			return err
		}
		return callRemote("create_buy_order", map[string]any{
			"order_id":      args[0],
			"buyer_wallet":  args[1],
			"price":         price,
			"energy_amount": amount,
		})
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle <order_id> <buyer_wallet>",
	Short: "Settle a sell order against a buyer wallet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callRemote("settle", map[string]any{
			"order_id":     args[0],
			"buyer_wallet": args[1],
		})
	},
}

var finalizeOrderCmd = &cobra.Command{
	Use:   "finalize_order <account> <order_id> <certificate_id>",
	Short: "Finalize an order administratively (privileged)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callRemote("finalize_order", map[string]any{
			"account":        args[0],
			"order_id":       args[1],
			"certificate_id": args[2],
		})
	},
}

var autoCreditCmd = &cobra.Command{
	Use:   "auto_credit <wallet_id> <amount>",
	Short: "Credit a wallet's currency balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[1], "amount")
		if err != nil {
			return err
		}
		return callRemote("auto_credit", map[string]any{
			"wallet_id": args[0],
			"amount":    amount,
		})
	},
}

// Generic JSON command for any method.
var jsonCmd = &cobra.Command{
	Use:   "json <method> <json_params>",
	Short: "Execute any RPC method with JSON parameters",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var params any
		if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
			return fmt.Errorf("invalid JSON parameters: %w", err)
		}
		return callRemote(args[0], params)
	},
}

func init() {
	rpcCmd.AddCommand(
		serverInfoCmd,
		certificateInfoCmd,
		walletInfoCmd,
		orderInfoCmd,
		tradeInfoCmd,
		recentTradesCmd,

		createCertificateCmd,
		createWalletCmd,
		createSellOrderCmd,
		createBuyOrderCmd,
		settleCmd,
		finalizeOrderCmd,
		autoCreditCmd,

		jsonCmd,
	)
}
