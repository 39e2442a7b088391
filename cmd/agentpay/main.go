package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/DeBrosOfficial/agentpay/pkg/agent"
	"github.com/DeBrosOfficial/agentpay/pkg/config"
	"github.com/DeBrosOfficial/agentpay/pkg/logging"
	"github.com/DeBrosOfficial/agentpay/pkg/payments"
	"github.com/DeBrosOfficial/agentpay/pkg/wallet"
)

// version metadata populated via -ldflags at build time
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		showHelp()
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "version":
		fmt.Printf("agentpay %s\n", version)
	case "wallet":
		handleWallet(args)
	case "quote":
		handleQuote(args)
	case "register":
		handleRegister(args)
	case "pay":
		handlePay(args)
	case "balance":
		handleBalance(args)
	case "store":
		handleStore(args)
	case "serve":
		handleServe(args)
	case "help", "-h", "--help":
		showHelp()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		showHelp()
		os.Exit(1)
	}
}

func showHelp() {
	fmt.Println(`agentpay - on-chain agent identity, x402 payments and evidence storage

Usage:
  agentpay <command> [flags]

Commands:
  wallet new                     generate a wallet and print its address and key
  quote <amount> <currency>      show the fee-adjusted total for an amount
  register <metadata-uri>        register an agent identity on-chain
  pay <to> <amount> <currency>   execute a two-leg settlement
  balance [address]              show native and USDC balances
  store <file>                   upload a file to the configured storage backends
  serve                          run the paywall HTTP server
  version                        print version

Flags (all commands):
  -config <path>   config file (default agentpay.yaml if present)
  -env <path>      .env file with credentials (default .env)`)
}

// loadSetup parses shared flags and builds the agent.
func loadSetup(args []string, cmd string) (*agent.Agent, *config.Config, *logging.ColoredLogger, []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	envPath := fs.String("env", ".env", ".env file path")
	fs.Parse(args)

	if err := config.LoadEnvFile(*envPath); err != nil {
		fatal("failed to load env file: %v", err)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			fatal("%v", err)
		}
		cfg = loaded
	} else if _, err := os.Stat("agentpay.yaml"); err == nil {
		loaded, err := config.LoadFromFile("agentpay.yaml")
		if err != nil {
			fatal("%v", err)
		}
		cfg = loaded
	} else {
		cfg.ApplyEnv()
	}

	logger, err := logging.NewColoredLogger(logging.ComponentAgent, cfg.Logging.Colors)
	if err != nil {
		fatal("failed to build logger: %v", err)
	}

	a, err := agent.New(context.Background(), cfg, logger)
	if err != nil {
		fatal("failed to initialize agent: %v", err)
	}
	return a, cfg, logger, fs.Args()
}

func handleWallet(args []string) {
	if len(args) < 1 || args[0] != "new" {
		fatal("usage: agentpay wallet new")
	}
	w, err := wallet.Generate()
	if err != nil {
		fatal("failed to generate wallet: %v", err)
	}
	fmt.Printf("address: %s\n", w.Address().Hex())
	fmt.Printf("private key: %s\n", w.PrivateKeyHex())
}

func handleQuote(args []string) {
	a, _, _, rest := loadSetup(args, "quote")
	defer a.Close()
	if len(rest) < 2 {
		fatal("usage: agentpay quote <amount> <currency>")
	}
	if a.Payments() == nil {
		fatal("payments are not enabled in the config")
	}

	quote, err := a.Payments().CalculateTotalCost(rest[0], rest[1])
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("amount: %s\nfee:    %s\ntotal:  %s\n", quote.Amount, quote.Fee, quote.Total)
}

func handleRegister(args []string) {
	a, _, _, rest := loadSetup(args, "register")
	defer a.Close()
	if len(rest) < 1 {
		fatal("usage: agentpay register <metadata-uri>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	identity, err := a.Identity().Register(ctx, rest[0])
	if err != nil {
		fatal("registration failed: %v", err)
	}
	fmt.Printf("agent id: %s\nowner:    %s\n", identity.AgentID, identity.Owner)
}

func handlePay(args []string) {
	a, _, _, rest := loadSetup(args, "pay")
	defer a.Close()
	if len(rest) < 3 {
		fatal("usage: agentpay pay <to> <amount> <currency>")
	}
	if a.Payments() == nil {
		fatal("payments are not enabled in the config")
	}
	if !common.IsHexAddress(rest[0]) {
		fatal("%q is not an address", rest[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	settlement, err := a.Payments().Pay(ctx, payments.Request{
		To:       common.HexToAddress(rest[0]),
		Amount:   rest[1],
		Currency: rest[2],
	})
	if err != nil {
		fatal("payment failed: %v", err)
	}

	fmt.Printf("status: %s\ntx:     %s\n", settlement.Status, settlement.Payment.TxHash)
	if settlement.Payment.FeeTxHash != "" {
		fmt.Printf("fee tx: %s\n", settlement.Payment.FeeTxHash)
	}
	if settlement.FeeError != "" {
		fmt.Printf("fee leg failed: %s\n", settlement.FeeError)
	}
}

func handleBalance(args []string) {
	a, _, _, rest := loadSetup(args, "balance")
	defer a.Close()

	var account common.Address
	switch {
	case len(rest) > 0:
		if !common.IsHexAddress(rest[0]) {
			fatal("%q is not an address", rest[0])
		}
		account = common.HexToAddress(rest[0])
	case a.Wallet() != nil:
		account = a.Wallet().Address()
	default:
		fatal("usage: agentpay balance <address> (no wallet configured)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	native, err := a.Chain().NativeBalance(ctx, account)
	if err != nil {
		fatal("balance lookup failed: %v", err)
	}
	fmt.Printf("%s: %s wei\n", a.Network().NativeCurrency.Symbol, native)

	if a.Payments() != nil {
		usdc, err := a.Payments().TokenBalance(ctx, account, "USDC")
		if err != nil {
			fatal("USDC balance lookup failed: %v", err)
		}
		fmt.Printf("USDC: %s\n", payments.FromMinorUnits(usdc, 6))
	}
}

func handleStore(args []string) {
	a, _, _, rest := loadSetup(args, "store")
	defer a.Close()
	if len(rest) < 1 {
		fatal("usage: agentpay store <file>")
	}
	if a.Storage() == nil {
		fatal("storage is not enabled in the config")
	}

	f, err := os.Open(rest[0])
	if err != nil {
		fatal("%v", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := a.Storage().Put(ctx, f, filepath.Base(rest[0]))
	if err != nil {
		fatal("upload failed: %v", err)
	}
	fmt.Printf("provider: %s\ncid:      %s\nuri:      %s\n", result.Provider, result.CID, result.URI)
}

func handleServe(args []string) {
	a, cfg, logger, _ := loadSetup(args, "serve")
	defer a.Close()
	defer logger.Sync()

	if a.Paywall() == nil {
		fatal("the paywall is not enabled in the config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	fmt.Printf("paywall listening on %s\n", cfg.Paywall.ListenAddr)
	if err := a.ServePaywall(ctx); err != nil {
		fatal("%v", err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
